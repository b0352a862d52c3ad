package server

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/palemoky/ultimate-tictactoe/internal/logger"
	"github.com/palemoky/ultimate-tictactoe/internal/protocol"
)

// Matcher 先到先得的匹配队列
// 内存队列是权威，Redis 镜像用于观测与重启后的排查
type Matcher struct {
	server *Server
	log    zerolog.Logger

	mu    sync.Mutex
	queue []*Client
}

// NewMatcher 创建匹配器
func NewMatcher(s *Server) *Matcher {
	return &Matcher{
		server: s,
		log:    logger.New("matcher"),
	}
}

// Enqueue 加入匹配队列，凑满两人立即建房开局
func (m *Matcher) Enqueue(c *Client) {
	if c.room() != "" {
		c.pushError(protocol.ErrBadMessage)
		return
	}

	m.mu.Lock()
	for _, queued := range m.queue {
		if queued == c {
			m.mu.Unlock()
			return // 已在队列中
		}
	}
	m.queue = append(m.queue, c)
	m.mirror(func(ctx context.Context) error {
		return m.server.store.EnqueueMatch(ctx, c.ID)
	})

	if len(m.queue) < 2 {
		m.mu.Unlock()
		m.log.Info().Str("player", c.ID).Msg("进入匹配队列")
		return
	}

	a, b := m.queue[0], m.queue[1]
	m.queue = m.queue[2:]
	m.mirror(func(ctx context.Context) error {
		_, err := m.server.store.PopMatchPair(ctx)
		return err
	})
	m.mu.Unlock()

	m.server.rooms.CreatePaired(a, b)
}

// Remove 离开匹配队列（断开或主动取消）
func (m *Matcher) Remove(c *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, queued := range m.queue {
		if queued == c {
			m.queue = append(m.queue[:i], m.queue[i+1:]...)
			m.mirror(func(ctx context.Context) error {
				return m.server.store.RemoveFromMatchQueue(ctx, c.ID)
			})
			return
		}
	}
}

// mirror 同步队列变更到 Redis，失败只记录
func (m *Matcher) mirror(op func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := op(ctx); err != nil {
		m.log.Warn().Err(err).Msg("匹配队列镜像失败")
	}
}
