package protocol

// 错误原因标识（error 推送的 error 字段）
const (
	ErrAuthFailed   = "auth_failed"   // 凭证校验失败，连接随即关闭
	ErrBadMessage   = "bad_message"   // 消息格式无效
	ErrRoomNotFound = "room_not_found"
	ErrRoomFull     = "room_full"
	ErrNotInRoom    = "not_in_room"
	ErrNotStarted   = "not_started"
	ErrNotYourTurn  = "not_your_turn"
	ErrIllegalMove  = "illegal_move"
)

// ErrorMessages 错误原因对应的展示文案
var ErrorMessages = map[string]string{
	ErrAuthFailed:   "认证失败，请重新登录",
	ErrBadMessage:   "无效的消息格式",
	ErrRoomNotFound: "房间不存在",
	ErrRoomFull:     "房间已满",
	ErrNotInRoom:    "您不在房间中",
	ErrNotStarted:   "对局尚未开始",
	ErrNotYourTurn:  "还没轮到您",
	ErrIllegalMove:  "此处不能落子",
}
