package server

import (
	"sync"
	"testing"

	"github.com/palemoky/ultimate-tictactoe/internal/protocol"
)

// push 与 Close 并发竞争时不得向已关闭的通道发送
func TestClientPushCloseRace(t *testing.T) {
	t.Parallel()

	c := newClient(nil, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				c.push(protocol.NewTag(protocol.MsgPong))
			}
		}()
	}
	c.Close()
	wg.Wait()
}

// 关闭后 push 直接丢弃消息
func TestClientPushAfterClose(t *testing.T) {
	t.Parallel()

	c := newClient(nil, nil)
	c.Close()
	c.push(protocol.NewTag(protocol.MsgPong))
}
