package game

// MoveReason 非法落子的原因
type MoveReason string

const (
	ReasonGameOver        MoveReason = "game_over"         // 对局已结束
	ReasonCellOccupied    MoveReason = "cell_occupied"     // 目标格已有棋子
	ReasonSubBoardDecided MoveReason = "sub_board_decided" // 目标小棋盘已结算
	ReasonWrongBoard      MoveReason = "wrong_board"       // 未在指定小棋盘落子
)

// IllegalMoveError 非法落子错误
// 仅用于诊断，规则违规在引擎内部消化，不会导致进程崩溃
type IllegalMoveError struct {
	Reason MoveReason
}

func (e *IllegalMoveError) Error() string {
	return "illegal move: " + string(e.Reason)
}

// 预定义错误
var (
	ErrGameOver        = &IllegalMoveError{Reason: ReasonGameOver}
	ErrCellOccupied    = &IllegalMoveError{Reason: ReasonCellOccupied}
	ErrSubBoardDecided = &IllegalMoveError{Reason: ReasonSubBoardDecided}
	ErrWrongBoard      = &IllegalMoveError{Reason: ReasonWrongBoard}
)
