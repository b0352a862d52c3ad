package server

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/palemoky/ultimate-tictactoe/internal/apperrors"
	"github.com/palemoky/ultimate-tictactoe/internal/game"
	"github.com/palemoky/ultimate-tictactoe/internal/logger"
	"github.com/palemoky/ultimate-tictactoe/internal/protocol"
)

const (
	roomCodeLength = 4
	// 去掉易混字符 I/O/0/1
	roomCodeChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// RoomManager 管理所有房间
// 房间内部状态也由 rm.mu 保护：参考实现流量不大，单锁换简单性
type RoomManager struct {
	server  *Server
	log     zerolog.Logger
	timeout time.Duration

	mu    sync.Mutex
	rooms map[string]*Room
}

// NewRoomManager 创建房间管理器并启动超时清理
func NewRoomManager(s *Server, timeout time.Duration) *RoomManager {
	rm := &RoomManager{
		server:  s,
		log:     logger.New("rooms"),
		timeout: timeout,
		rooms:   make(map[string]*Room),
	}
	go rm.cleanupLoop()
	return rm
}

// Create 创建房间并让创建者入座
func (rm *RoomManager) Create(c *Client) {
	if c.room() != "" {
		c.pushError(protocol.ErrBadMessage)
		return
	}

	rm.mu.Lock()
	code := rm.generateCode()
	room := newRoom(rm, code)
	_ = room.addPlayer(c)
	rm.rooms[code] = room

	c.push(protocol.NewRoomCreated(code))
	room.broadcastLobby()
	room.persist()
	rm.mu.Unlock()

	rm.log.Info().Str("room", code).Str("player", c.ID).Msg("房间已创建")
}

// Join 按房间号入座
func (rm *RoomManager) Join(c *Client, code string) {
	if c.room() != "" {
		c.pushError(protocol.ErrBadMessage)
		return
	}
	code = protocol.NormalizeRoomCode(code)

	rm.mu.Lock()
	defer rm.mu.Unlock()

	room, ok := rm.rooms[code]
	if !ok {
		c.pushError(protocol.ErrRoomNotFound)
		return
	}
	if err := room.addPlayer(c); err != nil {
		c.pushError(reasonOf(err))
		return
	}
	room.broadcastLobby()
	room.persist()
}

// CreatePaired 匹配成功：建房、双方入座并立即开局
func (rm *RoomManager) CreatePaired(a, b *Client) {
	rm.mu.Lock()
	code := rm.generateCode()
	room := newRoom(rm, code)
	_ = room.addPlayer(a)
	_ = room.addPlayer(b)
	rm.rooms[code] = room

	room.broadcastLobby()
	_ = room.start()
	rm.mu.Unlock()

	rm.log.Info().Str("room", code).Str("x", a.ID).Str("o", b.ID).Msg("匹配成功")
}

// Start 开局请求
func (rm *RoomManager) Start(c *Client) {
	rm.withRoom(c, func(room *Room) {
		if err := room.start(); err != nil {
			c.pushError(reasonOf(err))
		}
	})
}

// Move 落子请求
func (rm *RoomManager) Move(c *Client, mv game.Move) {
	rm.withRoom(c, func(room *Room) {
		room.handleMove(c, mv)
	})
}

// Reset 重开请求
func (rm *RoomManager) Reset(c *Client) {
	rm.withRoom(c, func(room *Room) {
		room.reset(c)
	})
}

// Leave 主动离开房间
func (rm *RoomManager) Leave(c *Client) {
	rm.withRoom(c, func(room *Room) {
		rm.dropPlayer(room, c)
	})
}

// HandleDisconnect 连接断开时清理座位
func (rm *RoomManager) HandleDisconnect(c *Client) {
	code := c.room()
	if code == "" {
		return
	}
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if room, ok := rm.rooms[code]; ok {
		rm.dropPlayer(room, c)
	}
}

// dropPlayer 离座；空房删除，否则通知剩余座位
// 调用方必须已持有 rm.mu
func (rm *RoomManager) dropPlayer(room *Room, c *Client) {
	if room.removePlayer(c) {
		delete(rm.rooms, room.Code)
		rm.deleteSnapshot(room.Code)
		rm.log.Info().Str("room", room.Code).Msg("房间已清空")
		return
	}
	room.broadcastLobby()
	room.persist()
}

// withRoom 按客户端所在房间执行操作，不在房间时推送 not_in_room
func (rm *RoomManager) withRoom(c *Client, fn func(*Room)) {
	code := c.room()
	if code == "" {
		c.pushError(protocol.ErrNotInRoom)
		return
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	room, ok := rm.rooms[code]
	if !ok {
		c.pushError(protocol.ErrRoomNotFound)
		return
	}
	fn(room)
}

// generateCode 生成未占用的房间号
// 调用方必须已持有 rm.mu
func (rm *RoomManager) generateCode() string {
	for {
		code := make([]byte, roomCodeLength)
		for i := range code {
			code[i] = roomCodeChars[rand.IntN(len(roomCodeChars))]
		}
		if _, exists := rm.rooms[string(code)]; !exists {
			return string(code)
		}
	}
}

// cleanupLoop 定期清理超时的未开局房间
func (rm *RoomManager) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rm.cleanup()
	}
}

func (rm *RoomManager) cleanup() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	now := time.Now()
	for code, room := range rm.rooms {
		if room.match == nil && now.Sub(room.CreatedAt) > rm.timeout {
			for _, p := range room.players {
				p.Client.pushError(protocol.ErrRoomNotFound)
				p.Client.setRoom("")
			}
			delete(rm.rooms, code)
			rm.deleteSnapshot(code)
			rm.log.Info().Str("room", code).Msg("房间超时已清理")
		}
	}
}

func (rm *RoomManager) deleteSnapshot(code string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rm.server.store.DeleteRoom(ctx, code); err != nil {
		rm.log.Warn().Err(err).Str("room", code).Msg("房间快照删除失败")
	}
}

// reasonOf 把房间错误映射为推送原因
func reasonOf(err error) string {
	var roomErr *apperrors.RoomError
	if errors.As(err, &roomErr) {
		return roomErr.Reason
	}
	return protocol.ErrBadMessage
}
