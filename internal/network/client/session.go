// Package client 实现客户端到服务端的会话连接与房间状态同步。
package client

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/palemoky/ultimate-tictactoe/internal/apperrors"
	"github.com/palemoky/ultimate-tictactoe/internal/logger"
	"github.com/palemoky/ultimate-tictactoe/internal/protocol"
)

const (
	handshakeTimeout = 10 * time.Second
	authTimeout      = 10 * time.Second
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10

	sendBuffer = 64
)

// State 会话状态
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateAwaitingAuth
	StateReady
	StateClosing
)

// String 状态名（用于日志）
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateAwaitingAuth:
		return "awaiting_auth"
	case StateReady:
		return "ready"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// TokenProvider 提供连接时使用的凭证
// 每次连接都会重新取凭证，不跨重连缓存（凭证会过期）
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc 函数式 TokenProvider
type TokenFunc func(ctx context.Context) (string, error)

// Token 实现 TokenProvider
func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// StaticToken 返回固定凭证的 TokenProvider
func StaticToken(token string) TokenProvider {
	return TokenFunc(func(context.Context) (string, error) { return token, nil })
}

// SessionConn 一条会话连接
//
// 状态机：Disconnected → Connecting → AwaitingAuth → Ready；
// 任意状态遇到传输错误回到 Disconnected；Ready → Closing → Disconnected。
// 整个进程内一个逻辑会话只应持有一个实例，由启动会话的组件显式传递，
// 不设全局单例。
type SessionConn struct {
	url    string
	tokens TokenProvider
	log    zerolog.Logger

	// OnMessage 入站消息的唯一分发入口（readPump 逐条调用，保序）
	OnMessage func(*protocol.Message)
	// OnClose 连接断开回调（主动关闭不触发）
	OnClose func(error)

	mu        sync.Mutex
	state     State
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{} // 本次连接的生命周期信号
	doneOnce  *sync.Once    // done 可能由 Close 和读协程竞争关闭
	inflight  chan struct{} // 在途连接完成信号，并发 Connect/Send 共享等待
	connected error         // 在途连接的结果
	closeGen  uint64        // Close 计数，连接尝试据此识别期间发生过的关闭
}

// NewSessionConn 创建会话连接（不发起连接）
func NewSessionConn(url string, tokens TokenProvider) *SessionConn {
	return &SessionConn{
		url:    url,
		tokens: tokens,
		log:    logger.New("session"),
	}
}

// State 返回当前状态
func (c *SessionConn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect 建立连接并完成认证握手
//
// 已处于 Ready 时是幂等空操作；已有在途连接时共享等待，不会发起第二条
// 传输。凭证在连接时现取，取不到返回 ErrAuthRequired；服务端明确拒绝
// 凭证时返回 ErrAuthRejected 并回到 Disconnected。
func (c *SessionConn) Connect(ctx context.Context) error {
	c.mu.Lock()
	switch c.state {
	case StateReady:
		c.mu.Unlock()
		return nil
	case StateConnecting, StateAwaitingAuth:
		wait := c.inflight
		c.mu.Unlock()
		return c.awaitConnect(ctx, wait)
	case StateClosing:
		c.mu.Unlock()
		return apperrors.ErrSessionClosed
	}
	c.state = StateConnecting
	c.inflight = make(chan struct{})
	wait := c.inflight
	gen := c.closeGen
	c.mu.Unlock()

	err := c.dialAndAuth(ctx, gen)

	c.mu.Lock()
	c.connected = err
	close(wait)
	c.inflight = nil
	c.mu.Unlock()

	return err
}

// awaitConnect 等待在途连接完成
func (c *SessionConn) awaitConnect(ctx context.Context, wait chan struct{}) error {
	select {
	case <-wait:
	case <-ctx.Done():
		return ctx.Err()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateReady {
		return nil
	}
	if c.connected != nil {
		return c.connected
	}
	return apperrors.ErrNotConnected
}

// dialAndAuth 执行连接序列：取凭证 → 拨号 → hello → 等待 hello_ok
// gen 是尝试开始时的 Close 计数：每一步推进前核对，计数变化说明会话
// 在尝试期间被关闭过，本次尝试必须以 ErrSessionClosed 终止，不得复活会话
func (c *SessionConn) dialAndAuth(ctx context.Context, gen uint64) error {
	token, err := c.tokens.Token(ctx)
	if err != nil || token == "" {
		c.setState(StateDisconnected)
		c.log.Warn().Err(err).Msg("连接取消：没有可用凭证")
		return apperrors.ErrAuthRequired
	}

	c.mu.Lock()
	if c.closeGen != gen {
		c.mu.Unlock()
		return apperrors.ErrSessionClosed
	}
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		c.setState(StateDisconnected)
		return err
	}

	c.mu.Lock()
	if c.closeGen != gen {
		c.mu.Unlock()
		_ = conn.Close()
		return apperrors.ErrSessionClosed
	}
	c.conn = conn
	c.state = StateAwaitingAuth
	c.mu.Unlock()

	// 握手确认之前，hello 是唯一允许上线的帧
	data, err := protocol.Encode(protocol.NewHello(token))
	if err != nil {
		c.teardown(conn)
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		c.teardown(conn)
		return err
	}

	if err := c.awaitHelloOK(conn); err != nil {
		c.teardown(conn)
		return err
	}

	c.mu.Lock()
	if c.closeGen != gen {
		c.mu.Unlock()
		_ = conn.Close()
		return apperrors.ErrSessionClosed
	}
	c.send = make(chan []byte, sendBuffer)
	c.done = make(chan struct{})
	c.doneOnce = new(sync.Once)
	c.state = StateReady
	send, done, once := c.send, c.done, c.doneOnce
	c.mu.Unlock()

	go c.readPump(conn, done, once)
	go c.writePump(conn, send, done)

	c.log.Info().Str("url", c.url).Msg("会话就绪")
	return nil
}

// awaitHelloOK 同步读取握手结果
// 协议保证 hello_ok（或 auth_failed）是服务端的第一条消息
func (c *SessionConn) awaitHelloOK(conn *websocket.Conn) error {
	_ = conn.SetReadDeadline(time.Now().Add(authTimeout))
	defer conn.SetReadDeadline(time.Time{}) //nolint:errcheck

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			c.log.Warn().Err(err).Msg("握手阶段收到无法解析的消息，忽略")
			continue
		}
		switch msg.Type {
		case protocol.MsgHelloOK:
			return nil
		case protocol.MsgError:
			push, perr := protocol.Parse[protocol.ErrorPush](msg)
			if perr == nil && push.Error == protocol.ErrAuthFailed {
				c.log.Warn().Msg("服务端拒绝凭证")
				return apperrors.ErrAuthRejected
			}
			c.log.Warn().Str("reason", pushReason(push, perr)).Msg("握手阶段收到错误推送，忽略")
		default:
			// 向前兼容：握手阶段的未知消息记录后丢弃
			c.log.Debug().Str("type", string(msg.Type)).Msg("握手阶段收到未知消息，忽略")
		}
	}
}

func pushReason(push *protocol.ErrorPush, err error) string {
	if err != nil || push == nil {
		return "unparsed"
	}
	return push.Error
}

// Send 序列化并发送一条出站消息
//
// 仅在 Ready 状态发送；存在在途连接时透明等待其完成，而不是另起一条
// 连接。排队失败只影响本次调用。
func (c *SessionConn) Send(ctx context.Context, v any) error {
	for {
		c.mu.Lock()
		switch c.state {
		case StateReady:
			send, done := c.send, c.done
			c.mu.Unlock()
			return c.enqueue(send, done, v)
		case StateConnecting, StateAwaitingAuth:
			wait := c.inflight
			c.mu.Unlock()
			if err := c.awaitConnect(ctx, wait); err != nil {
				return err
			}
			// 连接完成后重新检查状态
		case StateClosing:
			c.mu.Unlock()
			return apperrors.ErrSessionClosed
		default:
			c.mu.Unlock()
			return apperrors.ErrNotConnected
		}
	}
}

// enqueue 把消息交给写协程；出站流量全部经由单一有序通道
func (c *SessionConn) enqueue(send chan []byte, done chan struct{}, v any) error {
	data, err := protocol.Encode(v)
	if err != nil {
		return err
	}
	select {
	case <-done:
		return apperrors.ErrSessionClosed
	case send <- data:
		return nil
	default:
		c.log.Warn().Msg("发送缓冲已满")
		return apperrors.ErrSendFailed
	}
}

// Close 主动关闭会话
// 释放传输资源并让所有等待方立即收到 ErrSessionClosed，不会无限阻塞
func (c *SessionConn) Close() {
	c.mu.Lock()
	if c.state == StateDisconnected || c.state == StateClosing {
		c.mu.Unlock()
		return
	}
	c.state = StateClosing
	c.closeGen++
	conn, done, once := c.conn, c.done, c.doneOnce
	c.connected = apperrors.ErrSessionClosed
	c.mu.Unlock()

	if done != nil && once != nil {
		once.Do(func() { close(done) })
	}
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		_ = conn.Close()
	}

	c.mu.Lock()
	c.state = StateDisconnected
	c.conn = nil
	c.send = nil
	c.done = nil
	c.mu.Unlock()

	c.log.Info().Msg("会话已关闭")
}

// setState 仅更新状态
func (c *SessionConn) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// teardown 握手失败时释放连接
func (c *SessionConn) teardown(conn *websocket.Conn) {
	_ = conn.Close()
	c.mu.Lock()
	c.conn = nil
	c.state = StateDisconnected
	c.mu.Unlock()
}
