package client

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/palemoky/ultimate-tictactoe/internal/game"
	"github.com/palemoky/ultimate-tictactoe/internal/logger"
	"github.com/palemoky/ultimate-tictactoe/internal/protocol"
)

// Phase 房间阶段
type Phase string

const (
	PhaseIdle       Phase = "idle"        // 未进入任何房间
	PhaseQueued     Phase = "queued"      // 匹配队列中
	PhaseLobby      Phase = "lobby"       // 房间内等待开局
	PhaseInProgress Phase = "in_progress" // 对局进行中
	PhaseEnded      Phase = "ended"       // 对局已结束
)

// RoomView 房间视图：房间号、成员列表与所处阶段
// 会话启动时为空，由服务端推送填充，断开或主动离开时清空/标记
type RoomView struct {
	RoomCode string
	Members  []protocol.LobbyUser
	Phase    Phase
	LinkDown bool // 连接已断开，以下数据为断开前的缓存
}

// RoomClient 维护房间视图与最近一次权威对局快照
//
// 入站消息经 SessionConn 的单一分发入口逐条到达，每条消息的状态更新
// 是原子的：要么完整应用，要么完全不动。服务端是权威，快照整体替换，
// 不做字段级合并（game_over 的降级路径除外）。
type RoomClient struct {
	session *SessionConn
	log     zerolog.Logger

	mu    sync.Mutex
	view  RoomView
	state *game.MatchState // 最近一次权威快照（本地渲染以此为准）

	// OnUpdate 状态变化通知（在消息处理协程上调用，不要阻塞）
	OnUpdate func()
	// OnError 服务端错误推送（不改动任何本地状态）
	OnError func(reason string)
}

// roomHandler 入站消息处理函数
type roomHandler func(rc *RoomClient, msg *protocol.Message)

// roomHandlers 入站消息分发表
// 未注册的类型记录后丢弃，保证对服务端新增消息向前兼容
var roomHandlers = map[protocol.MessageType]roomHandler{
	protocol.MsgRoomCreated:  (*RoomClient).handleRoomCreated,
	protocol.MsgLobbyUpdate:  (*RoomClient).handleLobbyUpdate,
	protocol.MsgMatchStarted: (*RoomClient).handleMatchStarted,
	protocol.MsgState:        (*RoomClient).handleState,
	protocol.MsgGameOver:     (*RoomClient).handleGameOver,
	protocol.MsgError:        (*RoomClient).handleError,
	protocol.MsgHelloOK:      func(*RoomClient, *protocol.Message) {}, // 握手在会话层完成
	protocol.MsgPong:         func(*RoomClient, *protocol.Message) {},
}

// NewRoomClient 创建房间客户端并接管会话的消息分发
func NewRoomClient(session *SessionConn) *RoomClient {
	rc := &RoomClient{
		session: session,
		log:     logger.New("room"),
		view:    RoomView{Phase: PhaseIdle},
	}
	session.OnMessage = rc.dispatch
	session.OnClose = func(error) {
		rc.mu.Lock()
		rc.view.LinkDown = true // 缓存保留：界面不必立刻清空
		rc.mu.Unlock()
		rc.notify()
	}
	return rc
}

// Connect 建立会话
func (rc *RoomClient) Connect(ctx context.Context) error {
	if err := rc.session.Connect(ctx); err != nil {
		return err
	}
	rc.mu.Lock()
	rc.view.LinkDown = false
	rc.mu.Unlock()
	return nil
}

// Close 关闭会话
func (rc *RoomClient) Close() { rc.session.Close() }

// View 返回房间视图的拷贝
func (rc *RoomClient) View() RoomView {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	v := rc.view
	v.Members = append([]protocol.LobbyUser(nil), rc.view.Members...)
	return v
}

// MatchState 返回最近一次权威快照的拷贝，尚无快照时返回 nil
func (rc *RoomClient) MatchState() *game.MatchState {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.state == nil {
		return nil
	}
	return rc.state.Clone()
}

// dispatch 入站消息的唯一分发点
func (rc *RoomClient) dispatch(msg *protocol.Message) {
	handler, ok := roomHandlers[msg.Type]
	if !ok {
		rc.log.Debug().Str("type", string(msg.Type)).Msg("未知消息类型，忽略")
		return
	}
	handler(rc, msg)
}

func (rc *RoomClient) notify() {
	if rc.OnUpdate != nil {
		rc.OnUpdate()
	}
}

// handleRoomCreated 设置房间号并进入大厅
func (rc *RoomClient) handleRoomCreated(msg *protocol.Message) {
	payload, err := protocol.Parse[protocol.RoomCreated](msg)
	if err != nil {
		rc.log.Warn().Err(err).Msg("room_created 解析失败，忽略")
		return
	}
	rc.mu.Lock()
	rc.view.RoomCode = payload.Code
	rc.view.Phase = PhaseLobby
	rc.mu.Unlock()
	rc.notify()
}

// handleLobbyUpdate 整表替换成员列表，绝不触碰对局快照
func (rc *RoomClient) handleLobbyUpdate(msg *protocol.Message) {
	payload, err := protocol.Parse[protocol.LobbyUpdate](msg)
	if err != nil {
		rc.log.Warn().Err(err).Msg("lobby_update 解析失败，忽略")
		return
	}
	rc.mu.Lock()
	rc.view.Members = payload.Users
	if payload.Code != "" {
		rc.view.RoomCode = payload.Code
	}
	rc.mu.Unlock()
	rc.notify()
}

// handleMatchStarted 整体替换快照并进入对局
func (rc *RoomClient) handleMatchStarted(msg *protocol.Message) {
	payload, err := protocol.Parse[protocol.StatePush](msg)
	if err != nil || payload.Payload == nil {
		rc.log.Warn().Err(err).Msg("match_started 缺少快照，忽略")
		return
	}
	rc.mu.Lock()
	rc.state = payload.Payload
	rc.view.Phase = PhaseInProgress
	rc.mu.Unlock()
	rc.notify()
}

// handleState 权威状态推送：快照整体替换，不做字段级合并
func (rc *RoomClient) handleState(msg *protocol.Message) {
	payload, err := protocol.Parse[protocol.StatePush](msg)
	if err != nil || payload.Payload == nil {
		rc.log.Warn().Err(err).Msg("state 缺少快照，忽略")
		return
	}
	rc.mu.Lock()
	rc.state = payload.Payload
	if payload.Payload.Ended() {
		rc.view.Phase = PhaseEnded
	}
	rc.mu.Unlock()
	rc.notify()
}

// handleGameOver 降级的终局通知
// 没有完整快照可替换时，仅把胜负结果并入最近一次快照，保住落子历史；
// 服务端有完整快照时应优先走 state 推送
func (rc *RoomClient) handleGameOver(msg *protocol.Message) {
	payload, err := protocol.Parse[protocol.GameOver](msg)
	if err != nil {
		rc.log.Warn().Err(err).Msg("game_over 解析失败，忽略")
		return
	}
	rc.mu.Lock()
	rc.view.Phase = PhaseEnded
	if rc.state != nil && !rc.state.Ended() {
		if payload.Winner != game.MarkNone {
			rc.state.Result = game.WonBy(payload.Winner)
		} else {
			rc.state.Result = game.SubDrawn
		}
	}
	rc.mu.Unlock()
	rc.notify()
}

// handleError 错误推送只向上层通报，不改动任何本地状态
// auth_failed 例外：会话凭证已失效，关闭连接由调用方重新认证
func (rc *RoomClient) handleError(msg *protocol.Message) {
	payload, err := protocol.Parse[protocol.ErrorPush](msg)
	if err != nil {
		rc.log.Warn().Err(err).Msg("error 解析失败，忽略")
		return
	}
	rc.log.Warn().Str("reason", payload.Error).Msg("服务端错误推送")
	if rc.OnError != nil {
		rc.OnError(payload.Error)
	}
	if payload.Error == protocol.ErrAuthFailed {
		rc.session.Close()
	}
}
