package client

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/ultimate-tictactoe/internal/apperrors"
	"github.com/palemoky/ultimate-tictactoe/internal/protocol"
)

// readPump 读取并逐条分发入站消息
//
// 唯一的读协程：即使传输并发送达，消息也在这里排队逐条处理，
// 保持服务端的发送顺序，回调方不会看到并发的状态变更。
func (c *SessionConn) readPump(conn *websocket.Conn, done chan struct{}, once *sync.Once) {
	defer c.pumpClosed(conn, done, once)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := protocol.Decode(data)
		if err != nil {
			// 无法解析的入站消息不致命，记录后丢弃
			c.log.Warn().Err(err).Msg("入站消息解析失败，忽略")
			continue
		}
		if c.OnMessage != nil {
			c.OnMessage(msg)
		}
	}
}

// writePump 独占写线程，保证出站帧串行有序
func (c *SessionConn) writePump(conn *websocket.Conn, send chan []byte, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case data := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return // 读协程随之退出并触发 OnClose
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// pumpClosed 读协程退出时的清理
// 主动 Close 的场景由 Close 负责状态复位，这里只处理意外断开：
// 回到 Disconnected，但保留缓存供界面继续展示（陈旧但可用）
func (c *SessionConn) pumpClosed(conn *websocket.Conn, done chan struct{}, once *sync.Once) {
	_ = conn.Close()

	c.mu.Lock()
	deliberate := c.state == StateClosing || c.state == StateDisconnected
	if !deliberate {
		c.state = StateDisconnected
		c.conn = nil
	}
	c.mu.Unlock()

	once.Do(func() { close(done) })

	if !deliberate {
		c.log.Warn().Msg("连接意外断开")
		if c.OnClose != nil {
			c.OnClose(apperrors.ErrSessionClosed)
		}
	}
}
