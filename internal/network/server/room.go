package server

import (
	"context"
	"time"

	"github.com/palemoky/ultimate-tictactoe/internal/apperrors"
	"github.com/palemoky/ultimate-tictactoe/internal/game"
	"github.com/palemoky/ultimate-tictactoe/internal/network/server/storage"
	"github.com/palemoky/ultimate-tictactoe/internal/protocol"
)

// Player 房间中的一个座位
type Player struct {
	Client *Client
	Mark   game.Mark
}

// Room 一个对局房间：两个座位，先进为 X，后进为 O
// 所有方法都要求调用方未持有 r.mu 之外的房间锁；对局判定由引擎完成，
// 房间只负责座位、回合归属与广播
type Room struct {
	Code      string
	CreatedAt time.Time

	manager *RoomManager

	// mu 由 RoomManager 统一管理调用（见 manager.go withRoom）
	players []*Player
	match   *game.MatchState
}

func newRoom(manager *RoomManager, code string) *Room {
	return &Room{
		Code:      code,
		CreatedAt: time.Now(),
		manager:   manager,
	}
}

// addPlayer 入座，第一位执 X，第二位执 O
func (r *Room) addPlayer(c *Client) error {
	if len(r.players) >= 2 {
		return apperrors.ErrRoomFull
	}
	mark := game.MarkX
	if len(r.players) == 1 {
		mark = game.MarkO
	}
	r.players = append(r.players, &Player{Client: c, Mark: mark})
	c.setRoom(r.Code)
	return nil
}

// removePlayer 离座，返回房间是否已空
func (r *Room) removePlayer(c *Client) bool {
	for i, p := range r.players {
		if p.Client == c {
			r.players = append(r.players[:i], r.players[i+1:]...)
			break
		}
	}
	c.setRoom("")
	return len(r.players) == 0
}

// playerOf 查找客户端对应的座位
func (r *Room) playerOf(c *Client) *Player {
	for _, p := range r.players {
		if p.Client == c {
			return p
		}
	}
	return nil
}

// broadcastLobby 向所有座位推送成员列表
func (r *Room) broadcastLobby() {
	users := make([]protocol.LobbyUser, len(r.players))
	for i, p := range r.players {
		users[i] = protocol.LobbyUser{ID: p.Client.ID, Role: p.Mark}
	}
	for _, p := range r.players {
		p.Client.push(protocol.NewLobbyUpdate(r.Code, users))
	}
}

// start 开局：满座后创建对局并向每个座位推送带角色标注的快照
func (r *Room) start() error {
	if len(r.players) < 2 {
		return apperrors.ErrNotStarted
	}
	if r.match != nil && !r.match.Ended() {
		return nil // 已在对局中，忽略重复请求
	}
	r.match = game.NewMatch()
	r.broadcastState(protocol.MsgMatchStarted)
	return nil
}

// handleMove 权威落子：回合归属 → 引擎校验与执行 → 状态广播
func (r *Room) handleMove(c *Client, mv game.Move) {
	p := r.playerOf(c)
	if p == nil {
		c.pushError(protocol.ErrNotInRoom)
		return
	}
	if r.match == nil {
		c.pushError(protocol.ErrNotStarted)
		return
	}
	if r.match.Turn != p.Mark {
		c.pushError(protocol.ErrNotYourTurn)
		return
	}
	if err := r.match.Apply(mv); err != nil {
		c.pushError(protocol.ErrIllegalMove)
		return
	}

	r.broadcastState(protocol.MsgState)
	if r.match.Ended() {
		winner, _ := r.match.Result.Winner()
		for _, p := range r.players {
			p.Client.push(protocol.NewGameOver(winner))
		}
	}
}

// reset 同房重开：角色互换，新开一局
func (r *Room) reset(c *Client) {
	if r.playerOf(c) == nil {
		c.pushError(protocol.ErrNotInRoom)
		return
	}
	if r.match == nil || !r.match.Ended() {
		c.pushError(protocol.ErrNotStarted)
		return
	}
	for _, p := range r.players {
		p.Mark = p.Mark.Other()
	}
	r.match = game.NewMatch()
	r.broadcastLobby()
	r.broadcastState(protocol.MsgMatchStarted)
}

// broadcastState 向每个座位推送当前快照，YouAre 按接收方填写
func (r *Room) broadcastState(kind protocol.MessageType) {
	for _, p := range r.players {
		snapshot := r.match.Clone()
		snapshot.YouAre = p.Mark
		p.Client.push(protocol.StatePush{Type: kind, Payload: snapshot})
	}
	r.persist()
}

// persist 把房间快照写入 Redis，失败只记录不中断对局
func (r *Room) persist() {
	data := &storage.RoomData{
		Code:      r.Code,
		Started:   r.match != nil,
		CreatedAt: r.CreatedAt.Unix(),
		State:     r.match,
	}
	for _, p := range r.players {
		data.Players = append(data.Players, storage.PlayerData{ID: p.Client.ID, Role: p.Mark})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.manager.server.store.SaveRoom(ctx, data); err != nil {
		r.manager.log.Warn().Err(err).Str("room", r.Code).Msg("房间快照保存失败")
	}
}
