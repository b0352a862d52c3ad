// Package protocol 定义客户端与服务端之间的线上消息。
//
// 信封为扁平 JSON：{"type": "...", ...消息字段}；对局快照类消息
// （match_started / state）把完整快照放在 payload 字段。解码采用两段式：
// 先取 type 标签，再按封闭的变体集合解析，未知标签由调用方记录并丢弃。
package protocol

import (
	"encoding/json"
	"errors"
)

// MessageType 消息类型标签
type MessageType string

// 客户端 → 服务端 消息类型
const (
	MsgHello      MessageType = "hello"       // 认证握手，携带凭证
	MsgFindMatch  MessageType = "find_match"  // 快速匹配
	MsgCreateRoom MessageType = "create_room" // 创建房间
	MsgJoinRoom   MessageType = "join_room"   // 加入房间
	MsgStartGame  MessageType = "start_game"  // 开始对局
	MsgMove       MessageType = "move"        // 落子
	MsgReset      MessageType = "reset"       // 重开一局（同一房间）
	MsgLeaveRoom  MessageType = "leave_room"  // 离开房间
	MsgPing       MessageType = "ping"        // 心跳 ping
)

// 服务端 → 客户端 消息类型
const (
	MsgHelloOK      MessageType = "hello_ok"      // 握手确认，此后方可发送业务消息
	MsgError        MessageType = "error"         // 错误通知
	MsgRoomCreated  MessageType = "room_created"  // 房间创建成功
	MsgLobbyUpdate  MessageType = "lobby_update"  // 大厅成员变更
	MsgMatchStarted MessageType = "match_started" // 对局开始，附完整快照
	MsgState        MessageType = "state"         // 权威状态推送，附完整快照
	MsgGameOver     MessageType = "game_over"     // 对局结束（降级路径，无完整快照）
	MsgPong         MessageType = "pong"          // 心跳 pong
)

// ErrMissingType 消息缺少 type 标签
var ErrMissingType = errors.New("protocol: message missing type tag")

// Message 解码后的入站消息：类型标签 + 原始字节
// Raw 保留完整信封，按类型二次解析见 Parse
type Message struct {
	Type MessageType
	Raw  json.RawMessage
}

// Decode 解析入站消息的类型标签
func Decode(data []byte) (*Message, error) {
	var env struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	if env.Type == "" {
		return nil, ErrMissingType
	}
	return &Message{
		Type: env.Type,
		Raw:  append(json.RawMessage(nil), data...),
	}, nil
}

// Parse 将入站消息解析为指定的变体结构
func Parse[T any](msg *Message) (*T, error) {
	var v T
	if err := json.Unmarshal(msg.Raw, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Encode 将出站变体序列化为线上字节
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}
