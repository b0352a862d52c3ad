package game

// MatchState 一局对局的完整可变状态
// 引擎是唯一的写入方；调用方若需要历史记录，应自行 Clone 保存
//
// JSON 字段即线上协议里 match_started / state 推送的快照格式
type MatchState struct {
	Boards      [9]SubBoard  `json:"boards"`             // 9 个小棋盘，行优先
	SubResults  [9]SubResult `json:"winnerBoards"`       // 每个小棋盘的结算结果
	ActiveBoard *int         `json:"currentBoard"`       // 必须落子的小棋盘，nil 表示任选
	Turn        Mark         `json:"currentPlayer"`      // 当前行棋方
	Result      SubResult    `json:"result"`             // 整局结果
	YouAre      Mark         `json:"youAre,omitempty"`   // 服务端按接收方填写的角色提示
}

// Move 一次落子请求：boardIndex 指定小棋盘，cellIndex 指定盘内格子
type Move struct {
	Board int `json:"boardIndex"`
	Cell  int `json:"cellIndex"`
}

// NewMatch 创建空局：X 先手，任意小棋盘可落子
func NewMatch() *MatchState {
	return &MatchState{Turn: MarkX}
}

// Ended 对局是否已结束
func (s *MatchState) Ended() bool { return s.Result.Decided() }

// Clone 深拷贝当前状态（数组按值复制，仅指针字段需要另拷）
func (s *MatchState) Clone() *MatchState {
	c := *s
	if s.ActiveBoard != nil {
		i := *s.ActiveBoard
		c.ActiveBoard = &i
	}
	return &c
}

// activeBoardLocked 指定小棋盘是否仍然锁定落子范围
// 目标盘一旦结算（胜或平）或填满，锁即解除，行棋方可落在任意未结算棋盘
func (s *MatchState) activeBoardLocked() bool {
	if s.ActiveBoard == nil {
		return false
	}
	i := *s.ActiveBoard
	return s.SubResults[i] == SubUndecided && !s.Boards[i].Full()
}

// Check 校验落子是否合法，非法时返回带原因的 IllegalMoveError
// 越界下标按 WrongBoard 拒绝，不会 panic
func (s *MatchState) Check(mv Move) error {
	if s.Ended() {
		return ErrGameOver
	}
	if mv.Board < 0 || mv.Board > 8 || mv.Cell < 0 || mv.Cell > 8 {
		return ErrWrongBoard
	}
	if s.SubResults[mv.Board].Decided() {
		return ErrSubBoardDecided
	}
	if s.Boards[mv.Board][mv.Cell] != MarkNone {
		return ErrCellOccupied
	}
	if s.activeBoardLocked() && mv.Board != *s.ActiveBoard {
		return ErrWrongBoard
	}
	return nil
}

// IsLegal Check 的布尔版本
func (s *MatchState) IsLegal(mv Move) bool { return s.Check(mv) == nil }

// Apply 执行一次落子
// 校验通过后：落子 → 重算目标盘结果 → 重算整局结果 →
// 根据 cellIndex 指定对方的落子范围 → 交换行棋方（终局则冻结）
// 校验失败时状态不发生任何改变
func (s *MatchState) Apply(mv Move) error {
	if err := s.Check(mv); err != nil {
		return err
	}

	s.Boards[mv.Board][mv.Cell] = s.Turn
	s.SubResults[mv.Board] = s.Boards[mv.Board].Result()
	s.Result = OverallResult(s.SubResults)

	// 对方被指到的小棋盘若已结算，则解除限制
	if s.SubResults[mv.Cell] == SubUndecided {
		cell := mv.Cell
		s.ActiveBoard = &cell
	} else {
		s.ActiveBoard = nil
	}

	if !s.Ended() {
		s.Turn = s.Turn.Other()
	}
	return nil
}
