package server

import (
	"github.com/palemoky/ultimate-tictactoe/internal/game"
	"github.com/palemoky/ultimate-tictactoe/internal/protocol"
)

// handle 分发已认证客户端的业务消息
func (s *Server) handle(c *Client, msg *protocol.Message) {
	switch msg.Type {
	case protocol.MsgPing:
		ping, err := protocol.Parse[protocol.Ping](msg)
		if err != nil {
			c.pushError(protocol.ErrBadMessage)
			return
		}
		c.push(protocol.NewPong(ping.Timestamp))

	case protocol.MsgFindMatch:
		s.matcher.Enqueue(c)

	case protocol.MsgCreateRoom:
		s.rooms.Create(c)

	case protocol.MsgJoinRoom:
		join, err := protocol.Parse[protocol.JoinRoom](msg)
		if err != nil {
			c.pushError(protocol.ErrBadMessage)
			return
		}
		s.rooms.Join(c, join.Code)

	case protocol.MsgStartGame:
		s.rooms.Start(c)

	case protocol.MsgMove:
		mv, err := protocol.Parse[protocol.MoveRequest](msg)
		if err != nil {
			c.pushError(protocol.ErrBadMessage)
			return
		}
		s.rooms.Move(c, game.Move{Board: mv.BoardIndex, Cell: mv.CellIndex})

	case protocol.MsgReset:
		s.rooms.Reset(c)

	case protocol.MsgLeaveRoom:
		s.rooms.Leave(c)

	default:
		s.log.Warn().Str("type", string(msg.Type)).Str("player", c.ID).Msg("未知消息类型")
		c.pushError(protocol.ErrBadMessage)
	}
}
