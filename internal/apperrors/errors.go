// Package apperrors 定义会话与房间层共享的错误。
package apperrors

import (
	"errors"

	"github.com/palemoky/ultimate-tictactoe/internal/protocol"
)

// 会话级错误
// 认证类错误对当前连接是终态，调用方需要重新取得凭证后再连接；
// 发送失败只影响对应的那一次调用，不影响其他待发送方。
var (
	ErrAuthRequired  = errors.New("auth required: no credential available")
	ErrAuthRejected  = errors.New("auth rejected by server")
	ErrSendFailed    = errors.New("send failed")
	ErrSessionClosed = errors.New("session closed")
	ErrNotConnected  = errors.New("not connected")
)

// RoomError 房间/对局错误（服务端和客户端共享）
// Reason 对应 error 推送的原因标识
type RoomError struct {
	Reason string
}

func (e *RoomError) Error() string {
	if msg, ok := protocol.ErrorMessages[e.Reason]; ok {
		return msg
	}
	return e.Reason
}

// 预定义房间错误
var (
	ErrRoomNotFound = &RoomError{Reason: protocol.ErrRoomNotFound}
	ErrRoomFull     = &RoomError{Reason: protocol.ErrRoomFull}
	ErrNotInRoom    = &RoomError{Reason: protocol.ErrNotInRoom}
	ErrNotStarted   = &RoomError{Reason: protocol.ErrNotStarted}
	ErrNotYourTurn  = &RoomError{Reason: protocol.ErrNotYourTurn}
)
