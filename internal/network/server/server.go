// Package server 是协议的参考服务端实现：认证、房间、匹配与权威对局判定。
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/palemoky/ultimate-tictactoe/internal/config"
	"github.com/palemoky/ultimate-tictactoe/internal/logger"
	"github.com/palemoky/ultimate-tictactoe/internal/network/server/storage"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源，生产环境需要限制
	},
}

// Server WebSocket 游戏服务器
type Server struct {
	cfg      *config.Config
	log      zerolog.Logger
	redis    *redis.Client
	store    *storage.Store
	verifier Verifier
	rooms    *RoomManager
	matcher  *Matcher

	clientsMu sync.RWMutex
	clients   map[string]*Client

	// 信号量控制并发连接数
	semaphore chan struct{}
}

// NewServer 创建服务器实例
// Redis 客户端由调用方注入，测试可换用 miniredis
func NewServer(cfg *config.Config, rdb *redis.Client) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis 连接失败: %w", err)
	}

	s := &Server{
		cfg:       cfg,
		log:       logger.New("server"),
		redis:     rdb,
		store:     storage.NewStore(rdb),
		verifier:  NewVerifier(cfg.Auth),
		clients:   make(map[string]*Client),
		semaphore: make(chan struct{}, cfg.Server.MaxConnections),
	}
	s.rooms = NewRoomManager(s, cfg.Game.RoomTimeoutDuration())
	s.matcher = NewMatcher(s)
	return s, nil
}

// Handler 返回 HTTP 路由（/ws 与 /health），供 Start 和测试共用
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

// Start 启动服务器并阻塞服务
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.log.Info().Str("addr", addr).Msg("服务器启动")

	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
	}
	return server.ListenAndServe()
}

// handleWebSocket 处理 WebSocket 连接升级
// 认证在连接升级之后进行：第一帧必须是 hello，由读协程校验
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	select {
	case s.semaphore <- struct{}{}:
	default:
		s.log.Warn().Int("max", cap(s.semaphore)).Msg("达到最大连接数限制")
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		<-s.semaphore
		s.log.Warn().Err(err).Msg("WebSocket 升级失败")
		return
	}

	client := newClient(s, conn)
	s.registerClient(client)

	// 写协程由 readPump 在认证通过后启动，保证连接只有一个写入方
	go client.readPump()
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.ID] = client
}

func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	if _, ok := s.clients[client.ID]; ok {
		delete(s.clients, client.ID)
		<-s.semaphore
	}
}

// OnlineCount 当前在线连接数
func (s *Server) OnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Shutdown 关闭所有客户端连接与 Redis
func (s *Server) Shutdown() {
	s.clientsMu.Lock()
	clients := make([]*Client, 0, len(s.clients))
	for _, client := range s.clients {
		clients = append(clients, client)
	}
	s.clientsMu.Unlock()

	for _, client := range clients {
		client.Close()
	}
	_ = s.redis.Close()

	s.log.Info().Msg("服务器已关闭")
}
