package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/palemoky/ultimate-tictactoe/internal/logger"
	"github.com/palemoky/ultimate-tictactoe/internal/protocol"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 消息最大大小
	maxMessageSize = 4096

	// 发送缓冲区大小
	sendBuffer = 256
)

// Client 一条已升级的客户端连接
type Client struct {
	ID string

	server *Server
	conn   *websocket.Conn
	send   chan []byte
	log    zerolog.Logger

	mu       sync.Mutex
	closed   bool
	roomCode string
}

// newClient 创建客户端
func newClient(s *Server, conn *websocket.Conn) *Client {
	id := uuid.New().String()
	return &Client{
		ID:     id,
		server: s,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		log:    logger.New("client").With().Str("id", id).Logger(),
	}
}

// readPump 先完成认证，再循环读取业务消息
func (c *Client) readPump() {
	defer func() {
		c.handleDisconnect()
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// 认证完成前没有并发写入方，握手回执直接写连接
	if !c.authenticate() {
		return
	}
	go c.writePump()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("连接读取结束")
			}
			return
		}

		msg, err := protocol.Decode(data)
		if err != nil {
			c.log.Warn().Err(err).Msg("消息解析失败")
			c.push(protocol.NewErrorPush(protocol.ErrBadMessage))
			continue
		}
		c.server.handle(c, msg)
	}
}

// authenticate 校验第一帧
// 协议要求认证前客户端不得发送任何业务帧，所以非 hello 的第一帧
// 与凭证校验失败同样按 auth_failed 拒绝并关闭连接
func (c *Client) authenticate() bool {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return false
	}

	msg, err := protocol.Decode(data)
	if err != nil || msg.Type != protocol.MsgHello {
		c.rejectAuth()
		return false
	}
	hello, err := protocol.Parse[protocol.Hello](msg)
	if err != nil || !c.server.verifier.Verify(hello.Token) {
		c.rejectAuth()
		return false
	}

	reply, err := protocol.Encode(protocol.NewTag(protocol.MsgHelloOK))
	if err != nil {
		return false
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, reply); err != nil {
		return false
	}

	c.log.Info().Msg("客户端已认证")
	return true
}

// rejectAuth 推送 auth_failed 并立即关闭
func (c *Client) rejectAuth() {
	c.log.Warn().Msg("认证失败，关闭连接")
	if data, err := protocol.Encode(protocol.NewErrorPush(protocol.ErrAuthFailed)); err == nil {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.conn.WriteMessage(websocket.TextMessage, data)
	}
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "auth failed"),
		time.Now().Add(writeWait))
}

// writePump 独占写协程：业务消息与心跳 ping 串行写出
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// push 序列化并排队一条出站消息
// closed 判断与入队必须在同一临界区内，否则并发 Close 关闭通道会让入队 panic
func (c *Client) push(v any) {
	data, err := protocol.Encode(v)
	if err != nil {
		c.log.Error().Err(err).Msg("消息编码失败")
		return
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	select {
	case c.send <- data:
		c.mu.Unlock()
	default:
		c.mu.Unlock()
		// 发送缓冲区已满，视为客户端失联
		c.log.Warn().Msg("发送缓冲区已满，关闭连接")
		c.Close()
	}
}

// pushError 推送错误通知
func (c *Client) pushError(reason string) {
	c.push(protocol.NewErrorPush(reason))
}

// handleDisconnect 连接退出时的清理
func (c *Client) handleDisconnect() {
	c.server.matcher.Remove(c)
	c.server.rooms.HandleDisconnect(c)
	c.server.unregisterClient(c)
	c.Close()
}

// Close 关闭发送通道，写协程随之退出并关闭连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// setRoom 记录所在房间号
func (c *Client) setRoom(code string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roomCode = code
}

// room 返回所在房间号
func (c *Client) room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomCode
}
