package client

import (
	"context"

	"github.com/palemoky/ultimate-tictactoe/internal/game"
	"github.com/palemoky/ultimate-tictactoe/internal/protocol"
)

// 出站意图：序列化后经会话发送
// 合法性的权威校验在服务端（本地对局在引擎里），这里不做规则判断

// FindMatch 进入匹配队列
func (rc *RoomClient) FindMatch(ctx context.Context) error {
	if err := rc.session.Send(ctx, protocol.NewTag(protocol.MsgFindMatch)); err != nil {
		return err
	}
	rc.mu.Lock()
	rc.view.Phase = PhaseQueued
	rc.mu.Unlock()
	rc.notify()
	return nil
}

// CreateRoom 创建房间
func (rc *RoomClient) CreateRoom(ctx context.Context) error {
	return rc.session.Send(ctx, protocol.NewTag(protocol.MsgCreateRoom))
}

// JoinRoom 加入房间，房间号发送前归一化为大写
func (rc *RoomClient) JoinRoom(ctx context.Context, code string) error {
	return rc.session.Send(ctx, protocol.NewJoinRoom(code))
}

// StartGame 请求开局
func (rc *RoomClient) StartGame(ctx context.Context) error {
	return rc.session.Send(ctx, protocol.NewTag(protocol.MsgStartGame))
}

// SubmitMove 提交落子
// 本地已知终局时直接拒绝，省一次往返；这只是延迟优化，
// 权威合法性校验仍在服务端
func (rc *RoomClient) SubmitMove(ctx context.Context, boardIndex, cellIndex int) error {
	rc.mu.Lock()
	ended := rc.view.Phase == PhaseEnded
	rc.mu.Unlock()
	if ended {
		return game.ErrGameOver
	}
	return rc.session.Send(ctx, protocol.NewMoveRequest(boardIndex, cellIndex))
}

// RequestRematch 请求同房间重开一局
func (rc *RoomClient) RequestRematch(ctx context.Context) error {
	return rc.session.Send(ctx, protocol.NewTag(protocol.MsgReset))
}

// Leave 离开房间并清空房间视图
func (rc *RoomClient) Leave(ctx context.Context) error {
	err := rc.session.Send(ctx, protocol.NewTag(protocol.MsgLeaveRoom))
	rc.mu.Lock()
	rc.view = RoomView{Phase: PhaseIdle}
	rc.state = nil
	rc.mu.Unlock()
	rc.notify()
	return err
}
