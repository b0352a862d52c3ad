package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/ultimate-tictactoe/internal/game"
)

// gridCursor 9×9 大网格上的光标位置
type gridCursor struct {
	row, col int
}

// move 移动光标并夹在网格内
func (c gridCursor) move(drow, dcol int) gridCursor {
	c.row = clamp(c.row+drow, 0, 8)
	c.col = clamp(c.col+dcol, 0, 8)
	return c
}

// boardCell 把网格坐标换算为 (小棋盘, 格子) 下标
func (c gridCursor) boardCell() (int, int) {
	board := (c.row/3)*3 + c.col/3
	cell := (c.row%3)*3 + c.col%3
	return board, cell
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// renderBoard 把对局快照画成 3×3 的小棋盘阵列
// 必须落子的小棋盘边框高亮，已结算的小棋盘整体灰显；
// cur 为 nil 时不画光标
func renderBoard(s *game.MatchState, cur *gridCursor) string {
	var curBoard, curCell = -1, -1
	if cur != nil {
		curBoard, curCell = cur.boardCell()
	}

	rows := make([]string, 0, 3)
	for br := 0; br < 3; br++ {
		blocks := make([]string, 0, 3)
		for bc := 0; bc < 3; bc++ {
			b := br*3 + bc
			blocks = append(blocks, renderSubBoard(s, b, curBoard == b, curCell))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, blocks...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// renderSubBoard 画一个小棋盘
func renderSubBoard(s *game.MatchState, b int, hasCursor bool, curCell int) string {
	decided := s.SubResults[b].Decided()
	active := playableBoard(s, b)

	lines := make([]string, 0, 3)
	for r := 0; r < 3; r++ {
		cells := make([]string, 0, 3)
		for c := 0; c < 3; c++ {
			i := r*3 + c
			cells = append(cells, renderCell(s.Boards[b][i], decided, hasCursor && curCell == i))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells[0], " ", cells[1], " ", cells[2]))
	}

	border := dimGridStyle
	switch {
	case decided:
		border = wonGridStyle
	case active:
		border = activeGridStyle
	}
	return lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(border.GetForeground()).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderCell 画一个格子
func renderCell(m game.Mark, dimmed, underCursor bool) string {
	glyph := "·"
	style := emptyStyle
	switch m {
	case game.MarkX:
		glyph = "X"
		style = xStyle
	case game.MarkO:
		glyph = "O"
		style = oStyle
	}
	if dimmed {
		style = emptyStyle
	}
	if underCursor {
		style = cursorStyle
	}
	return style.Render(glyph)
}

// playableBoard 当前回合是否允许在 b 号小棋盘落子
func playableBoard(s *game.MatchState, b int) bool {
	if s.Ended() || s.SubResults[b].Decided() {
		return false
	}
	if s.ActiveBoard == nil {
		return true
	}
	if s.SubResults[*s.ActiveBoard].Decided() || s.Boards[*s.ActiveBoard].Full() {
		return true // 指定盘已无法落子，约束解除
	}
	return b == *s.ActiveBoard
}

// renderStatus 对局状态行
func renderStatus(s *game.MatchState, youAre game.Mark) string {
	if s.Ended() {
		if winner, ok := s.Result.Winner(); ok {
			if youAre != game.MarkNone {
				if winner == youAre {
					return statusStyle.Render("🎉 你赢了！")
				}
				return errorStyle.Render(fmt.Sprintf("对方（%s）获胜", winner))
			}
			return statusStyle.Render(fmt.Sprintf("%s 获胜！", winner))
		}
		return statusStyle.Render("平局")
	}

	turn := fmt.Sprintf("轮到 %s", s.Turn)
	if youAre != game.MarkNone {
		if s.Turn == youAre {
			turn = fmt.Sprintf("你的回合（你执 %s）", youAre)
		} else {
			turn = fmt.Sprintf("等待对方落子（你执 %s）", youAre)
		}
	}
	if s.ActiveBoard != nil {
		return statusStyle.Render(turn) + hintStyle.Render(fmt.Sprintf("  必须落在 %d 号盘", *s.ActiveBoard))
	}
	return statusStyle.Render(turn) + hintStyle.Render("  任意未结算棋盘可落子")
}
