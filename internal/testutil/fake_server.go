// Package testutil 提供测试用的假服务端与协议工具。
package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/ultimate-tictactoe/internal/protocol"
)

var upgrader = websocket.Upgrader{}

// Conn 假服务端侧的一条连接
type Conn struct {
	t  *testing.T
	ws *websocket.Conn
}

// Expect 读取下一帧并断言消息类型，返回解码后的消息
func (c *Conn) Expect(msgType protocol.MessageType) *protocol.Message {
	c.t.Helper()
	_ = c.ws.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		c.t.Fatalf("read frame: %v", err)
	}
	msg, err := protocol.Decode(data)
	if err != nil {
		c.t.Fatalf("decode frame: %v", err)
	}
	if msg.Type != msgType {
		c.t.Fatalf("expected %s, got %s", msgType, msg.Type)
	}
	return msg
}

// Push 向客户端发送一条消息
func (c *Conn) Push(v any) {
	c.t.Helper()
	data, err := protocol.Encode(v)
	if err != nil {
		c.t.Fatalf("encode push: %v", err)
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(3 * time.Second))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		c.t.Fatalf("write push: %v", err)
	}
}

// Close 关闭连接
func (c *Conn) Close() { _ = c.ws.Close() }

// FakeServer 脚本化的假游戏服务端
// 每来一条连接就运行一次脚本；脚本在独立协程上执行
type FakeServer struct {
	t        *testing.T
	server   *httptest.Server
	upgrades atomic.Int32
}

// NewFakeServer 启动假服务端
func NewFakeServer(t *testing.T, script func(*Conn)) *FakeServer {
	t.Helper()
	fs := &FakeServer{t: t}
	fs.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fs.upgrades.Add(1)
		script(&Conn{t: t, ws: ws})
	}))
	t.Cleanup(fs.server.Close)
	return fs
}

// URL 返回 ws:// 地址
func (fs *FakeServer) URL() string {
	return "ws" + strings.TrimPrefix(fs.server.URL, "http")
}

// Upgrades 返回已接受的连接数（用于断言共享连接）
func (fs *FakeServer) Upgrades() int {
	return int(fs.upgrades.Load())
}

// AcceptHello 校验 hello 凭证并回执 hello_ok
func (c *Conn) AcceptHello(wantToken string) {
	c.t.Helper()
	msg := c.Expect(protocol.MsgHello)
	hello, err := protocol.Parse[protocol.Hello](msg)
	if err != nil {
		c.t.Fatalf("parse hello: %v", err)
	}
	if wantToken != "" && hello.Token != wantToken {
		c.t.Fatalf("unexpected token %q", hello.Token)
	}
	c.Push(protocol.NewTag(protocol.MsgHelloOK))
}

// RejectHello 读取 hello 后推送 auth_failed 并关闭连接
func (c *Conn) RejectHello() {
	c.t.Helper()
	c.Expect(protocol.MsgHello)
	c.Push(protocol.NewErrorPush(protocol.ErrAuthFailed))
	c.Close()
}
