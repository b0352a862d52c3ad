package client

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/ultimate-tictactoe/internal/apperrors"
	"github.com/palemoky/ultimate-tictactoe/internal/protocol"
	"github.com/palemoky/ultimate-tictactoe/internal/testutil"
)

func TestSessionConnect(t *testing.T) {
	t.Parallel()

	fs := testutil.NewFakeServer(t, func(conn *testutil.Conn) {
		conn.AcceptHello("secret")
	})

	c := NewSessionConn(fs.URL(), StaticToken("secret"))
	defer c.Close()

	require.NoError(t, c.Connect(context.Background()))
	assert.Equal(t, StateReady, c.State())
}

func TestSessionConnectIdempotent(t *testing.T) {
	t.Parallel()

	fs := testutil.NewFakeServer(t, func(conn *testutil.Conn) {
		conn.AcceptHello("secret")
	})

	c := NewSessionConn(fs.URL(), StaticToken("secret"))
	defer c.Close()

	require.NoError(t, c.Connect(context.Background()))
	require.NoError(t, c.Connect(context.Background())) // 已就绪时应直接返回
	assert.Equal(t, 1, fs.Upgrades())
}

func TestSessionConnectWithoutToken(t *testing.T) {
	t.Parallel()

	fs := testutil.NewFakeServer(t, func(conn *testutil.Conn) {
		t.Error("没有凭证时不应发起连接")
	})

	c := NewSessionConn(fs.URL(), StaticToken(""))
	err := c.Connect(context.Background())

	require.ErrorIs(t, err, apperrors.ErrAuthRequired)
	assert.Equal(t, StateDisconnected, c.State())
	assert.Equal(t, 0, fs.Upgrades())
}

func TestSessionConnectAuthRejected(t *testing.T) {
	t.Parallel()

	fs := testutil.NewFakeServer(t, func(conn *testutil.Conn) {
		conn.RejectHello()
	})

	c := NewSessionConn(fs.URL(), StaticToken("expired"))
	err := c.Connect(context.Background())

	require.ErrorIs(t, err, apperrors.ErrAuthRejected)
	assert.Equal(t, StateDisconnected, c.State())
}

func TestSessionTokenFetchedPerAttempt(t *testing.T) {
	t.Parallel()

	fs := testutil.NewFakeServer(t, func(conn *testutil.Conn) {
		conn.RejectHello()
	})

	var mu sync.Mutex
	calls := 0
	tokens := TokenFunc(func(context.Context) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return "expired", nil
	})

	c := NewSessionConn(fs.URL(), tokens)
	require.ErrorIs(t, c.Connect(context.Background()), apperrors.ErrAuthRejected)
	require.ErrorIs(t, c.Connect(context.Background()), apperrors.ErrAuthRejected)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls, "每次连接尝试都应重新取凭证")
}

func TestSessionConcurrentConnectSharesTransport(t *testing.T) {
	t.Parallel()

	fs := testutil.NewFakeServer(t, func(conn *testutil.Conn) {
		conn.AcceptHello("secret")
	})

	c := NewSessionConn(fs.URL(), StaticToken("secret"))
	defer c.Close()

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = c.Connect(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, 1, fs.Upgrades(), "并发 Connect 应共享同一条在途连接")
}

func TestSessionSendDelivers(t *testing.T) {
	t.Parallel()

	got := make(chan *protocol.Message, 1)
	fs := testutil.NewFakeServer(t, func(conn *testutil.Conn) {
		conn.AcceptHello("secret")
		got <- conn.Expect(protocol.MsgMove)
	})

	c := NewSessionConn(fs.URL(), StaticToken("secret"))
	defer c.Close()

	require.NoError(t, c.Connect(context.Background()))
	require.NoError(t, c.Send(context.Background(), protocol.NewMoveRequest(4, 4)))

	select {
	case msg := <-got:
		mv, err := protocol.Parse[protocol.MoveRequest](msg)
		require.NoError(t, err)
		assert.Equal(t, 4, mv.BoardIndex)
		assert.Equal(t, 4, mv.CellIndex)
	case <-time.After(3 * time.Second):
		t.Fatal("落子请求未到达服务端")
	}
}

// 握手确认之前任何业务帧都不允许上线：服务端扣住 hello_ok，
// 并发的 Send 必须等待握手完成，且服务端收到的第一帧只能是 hello。
func TestSessionSendBlocksUntilHelloOK(t *testing.T) {
	t.Parallel()

	helloSeen := make(chan struct{})
	release := make(chan struct{})
	got := make(chan *protocol.Message, 1)
	fs := testutil.NewFakeServer(t, func(conn *testutil.Conn) {
		conn.Expect(protocol.MsgHello)
		close(helloSeen)
		<-release
		conn.Push(protocol.NewTag(protocol.MsgHelloOK))
		got <- conn.Expect(protocol.MsgMove)
	})

	c := NewSessionConn(fs.URL(), StaticToken("secret"))
	defer c.Close()

	connectDone := make(chan error, 1)
	go func() { connectDone <- c.Connect(context.Background()) }()

	select {
	case <-helloSeen:
	case <-time.After(3 * time.Second):
		t.Fatal("服务端未收到 hello")
	}

	sendDone := make(chan error, 1)
	go func() { sendDone <- c.Send(context.Background(), protocol.NewMoveRequest(4, 4)) }()

	// 握手尚未确认，Send 不应返回，也不应有业务帧上线
	select {
	case err := <-sendDone:
		t.Fatalf("Send 在握手确认前返回: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, StateAwaitingAuth, c.State())

	close(release)

	require.NoError(t, <-connectDone)
	require.NoError(t, <-sendDone)

	select {
	case msg := <-got:
		assert.Equal(t, protocol.MsgMove, msg.Type, "hello 之后的第一条业务帧应是落子请求")
	case <-time.After(3 * time.Second):
		t.Fatal("落子请求未到达服务端")
	}
}

func TestSessionSendWhenDisconnected(t *testing.T) {
	t.Parallel()

	c := NewSessionConn("ws://127.0.0.1:0", StaticToken("secret"))
	err := c.Send(context.Background(), protocol.NewTag(protocol.MsgFindMatch))

	require.ErrorIs(t, err, apperrors.ErrNotConnected)
}

func TestSessionClose(t *testing.T) {
	t.Parallel()

	fs := testutil.NewFakeServer(t, func(conn *testutil.Conn) {
		conn.AcceptHello("secret")
	})

	c := NewSessionConn(fs.URL(), StaticToken("secret"))
	require.NoError(t, c.Connect(context.Background()))

	c.Close()
	c.Close() // 幂等

	assert.Equal(t, StateDisconnected, c.State())
	require.ErrorIs(t, c.Send(context.Background(), protocol.NewTag(protocol.MsgFindMatch)),
		apperrors.ErrNotConnected)
}

func TestSessionCloseDuringConnect(t *testing.T) {
	t.Parallel()

	helloSeen := make(chan struct{})
	fs := testutil.NewFakeServer(t, func(conn *testutil.Conn) {
		conn.Expect(protocol.MsgHello)
		close(helloSeen)
		// 不回执，等待客户端主动关闭
	})

	c := NewSessionConn(fs.URL(), StaticToken("secret"))

	connectDone := make(chan error, 1)
	go func() { connectDone <- c.Connect(context.Background()) }()

	select {
	case <-helloSeen:
	case <-time.After(3 * time.Second):
		t.Fatal("服务端未收到 hello")
	}
	c.Close()

	select {
	case err := <-connectDone:
		require.Error(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Connect 未因关闭而返回")
	}
	assert.Equal(t, StateDisconnected, c.State())
}

// Close 发生在连接尝试的拨号前阶段时，该尝试不得继续完成握手复活会话
func TestSessionCloseAbortsDialingConnect(t *testing.T) {
	t.Parallel()

	fs := testutil.NewFakeServer(t, func(conn *testutil.Conn) {
		t.Error("已关闭的会话不应再发起连接")
	})

	gate := make(chan struct{})
	tokens := TokenFunc(func(context.Context) (string, error) {
		<-gate
		return "secret", nil
	})

	c := NewSessionConn(fs.URL(), tokens)

	connectDone := make(chan error, 1)
	go func() { connectDone <- c.Connect(context.Background()) }()

	require.Eventually(t, func() bool { return c.State() == StateConnecting },
		3*time.Second, 10*time.Millisecond, "Connect 未进入在途状态")

	c.Close()
	close(gate)

	select {
	case err := <-connectDone:
		require.ErrorIs(t, err, apperrors.ErrSessionClosed)
	case <-time.After(3 * time.Second):
		t.Fatal("Connect 未因关闭而返回")
	}
	assert.Equal(t, StateDisconnected, c.State())
	assert.Equal(t, 0, fs.Upgrades())
}

func TestSessionUnexpectedCloseNotifies(t *testing.T) {
	t.Parallel()

	fs := testutil.NewFakeServer(t, func(conn *testutil.Conn) {
		conn.AcceptHello("secret")
		conn.Close()
	})

	c := NewSessionConn(fs.URL(), StaticToken("secret"))
	defer c.Close()

	closed := make(chan error, 1)
	c.OnClose = func(err error) { closed <- err }

	require.NoError(t, c.Connect(context.Background()))

	select {
	case err := <-closed:
		require.ErrorIs(t, err, apperrors.ErrSessionClosed)
	case <-time.After(3 * time.Second):
		t.Fatal("意外断开未触发 OnClose")
	}
	assert.Equal(t, StateDisconnected, c.State())
}
