package protocol

import (
	"strings"

	"github.com/palemoky/ultimate-tictactoe/internal/game"
)

// --- 客户端请求 ---

// Hello 认证握手请求
// Token 为外部身份源颁发的不透明凭证，每次连接时现取，不做缓存
type Hello struct {
	Type  MessageType `json:"type"`
	Token string      `json:"token"`
}

// NewHello 创建握手请求
func NewHello(token string) Hello {
	return Hello{Type: MsgHello, Token: token}
}

// Tag 无字段消息（find_match / create_room / start_game / reset / leave_room）
type Tag struct {
	Type MessageType `json:"type"`
}

// NewTag 创建无字段消息
func NewTag(t MessageType) Tag {
	return Tag{Type: t}
}

// JoinRoom 加入房间请求
type JoinRoom struct {
	Type MessageType `json:"type"`
	Code string      `json:"code"`
}

// NewJoinRoom 创建加入房间请求，房间号统一归一化为大写
func NewJoinRoom(code string) JoinRoom {
	return JoinRoom{Type: MsgJoinRoom, Code: NormalizeRoomCode(code)}
}

// MoveRequest 落子请求
type MoveRequest struct {
	Type       MessageType `json:"type"`
	BoardIndex int         `json:"boardIndex"`
	CellIndex  int         `json:"cellIndex"`
}

// NewMoveRequest 创建落子请求
func NewMoveRequest(boardIndex, cellIndex int) MoveRequest {
	return MoveRequest{Type: MsgMove, BoardIndex: boardIndex, CellIndex: cellIndex}
}

// Ping 心跳请求
type Ping struct {
	Type      MessageType `json:"type"`
	Timestamp int64       `json:"timestamp"` // 客户端时间戳（毫秒）
}

// NewPing 创建心跳请求
func NewPing(ts int64) Ping {
	return Ping{Type: MsgPing, Timestamp: ts}
}

// --- 服务端推送 ---

// LobbyUser 大厅成员
type LobbyUser struct {
	ID   string    `json:"id"`
	Role game.Mark `json:"role"`
	Name string    `json:"name,omitempty"`
}

// ErrorPush 错误通知
// Error 为机器可读的原因标识，见 errors.go
type ErrorPush struct {
	Type  MessageType `json:"type"`
	Error string      `json:"error"`
}

// NewErrorPush 创建错误通知
func NewErrorPush(reason string) ErrorPush {
	return ErrorPush{Type: MsgError, Error: reason}
}

// RoomCreated 房间创建成功
type RoomCreated struct {
	Type MessageType `json:"type"`
	Code string      `json:"code"`
}

// NewRoomCreated 创建房间通知
func NewRoomCreated(code string) RoomCreated {
	return RoomCreated{Type: MsgRoomCreated, Code: code}
}

// LobbyUpdate 大厅成员变更，整表替换
type LobbyUpdate struct {
	Type  MessageType `json:"type"`
	Code  string      `json:"code,omitempty"` // 房间号（如已在房间中）
	Users []LobbyUser `json:"users"`
}

// NewLobbyUpdate 创建大厅变更通知
func NewLobbyUpdate(code string, users []LobbyUser) LobbyUpdate {
	return LobbyUpdate{Type: MsgLobbyUpdate, Code: code, Users: users}
}

// StatePush 携带完整对局快照的推送（match_started / state 共用同一结构）
type StatePush struct {
	Type    MessageType      `json:"type"`
	Payload *game.MatchState `json:"payload"`
}

// NewMatchStarted 创建对局开始推送
func NewMatchStarted(state *game.MatchState) StatePush {
	return StatePush{Type: MsgMatchStarted, Payload: state}
}

// NewStatePush 创建权威状态推送
func NewStatePush(state *game.MatchState) StatePush {
	return StatePush{Type: MsgState, Payload: state}
}

// GameOver 对局结束通知
// 仅携带胜者的降级路径；有完整快照时应优先推送 state
type GameOver struct {
	Type   MessageType `json:"type"`
	Winner game.Mark   `json:"winner,omitempty"`
}

// NewGameOver 创建对局结束通知
func NewGameOver(winner game.Mark) GameOver {
	return GameOver{Type: MsgGameOver, Winner: winner}
}

// Pong 心跳响应
type Pong struct {
	Type      MessageType `json:"type"`
	Timestamp int64       `json:"timestamp"` // 回显客户端时间戳
}

// NewPong 创建心跳响应
func NewPong(ts int64) Pong {
	return Pong{Type: MsgPong, Timestamp: ts}
}

// NormalizeRoomCode 归一化房间号：去除首尾空白并转大写
// 客户端在发送与比较前都必须归一化
func NormalizeRoomCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
