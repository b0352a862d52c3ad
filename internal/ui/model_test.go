package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/palemoky/ultimate-tictactoe/internal/game"
)

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestGridCursorConversion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		row, col  int
		wantBoard int
		wantCell  int
	}{
		{"左上角", 0, 0, 0, 0},
		{"正中心", 4, 4, 4, 4},
		{"右下角", 8, 8, 8, 8},
		{"0号盘右下格", 2, 2, 0, 8},
		{"2号盘左上格", 0, 6, 2, 0},
		{"7号盘中心格", 7, 4, 7, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			board, cell := gridCursor{row: tt.row, col: tt.col}.boardCell()
			assert.Equal(t, tt.wantBoard, board)
			assert.Equal(t, tt.wantCell, cell)
		})
	}
}

func TestGridCursorClamps(t *testing.T) {
	t.Parallel()

	c := gridCursor{row: 0, col: 0}
	c = c.move(-1, -1)
	assert.Equal(t, gridCursor{row: 0, col: 0}, c)

	c = gridCursor{row: 8, col: 8}
	c = c.move(1, 1)
	assert.Equal(t, gridCursor{row: 8, col: 8}, c)
}

func TestLocalModelPlacesMark(t *testing.T) {
	t.Parallel()

	m := NewLocalModel()
	// 光标初始在正中心 (4,4)
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	state := m.Match()
	assert.Equal(t, game.MarkX, state.Boards[4][4])
	assert.Equal(t, game.MarkO, state.Turn)
	require.NotNil(t, state.ActiveBoard)
	assert.Equal(t, 4, *state.ActiveBoard)
}

func TestLocalModelRejectsOccupiedCell(t *testing.T) {
	t.Parallel()

	m := NewLocalModel()
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter}) // 同一格再落一次

	state := m.Match()
	assert.Equal(t, game.MarkX, state.Boards[4][4], "原有棋子不被覆盖")
	assert.Equal(t, game.MarkO, state.Turn, "回合不前进")
	assert.Contains(t, m.View(), "已有棋子")
}

func TestLocalModelCursorMovement(t *testing.T) {
	t.Parallel()

	m := NewLocalModel()
	m.Update(keyRune('k'))
	m.Update(keyRune('h'))
	assert.Equal(t, gridCursor{row: 3, col: 3}, m.cursor)

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, gridCursor{row: 4, col: 4}, m.cursor)
}

func TestLocalModelRestartAfterEnd(t *testing.T) {
	t.Parallel()

	m := NewLocalModel()
	m.match.Result = game.WonBy(game.MarkX)

	m.Update(keyRune('r'))
	assert.False(t, m.Match().Ended())
	assert.Equal(t, game.MarkX, m.Match().Turn)
}

func TestLocalModelRestartIgnoredMidGame(t *testing.T) {
	t.Parallel()

	m := NewLocalModel()
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m.Update(keyRune('r'))

	assert.Equal(t, game.MarkX, m.Match().Boards[4][4], "对局进行中 r 不应清盘")
}

func TestRenderBoardShowsMarks(t *testing.T) {
	t.Parallel()

	state := game.NewMatch()
	require.NoError(t, state.Apply(game.Move{Board: 4, Cell: 0}))

	out := renderBoard(state, nil)
	assert.Contains(t, out, "X")
	assert.Contains(t, out, "·")
}

func TestRenderStatus(t *testing.T) {
	t.Parallel()

	state := game.NewMatch()
	assert.Contains(t, renderStatus(state, game.MarkNone), "轮到 X")
	assert.Contains(t, renderStatus(state, game.MarkX), "你的回合")
	assert.Contains(t, renderStatus(state, game.MarkO), "等待对方")

	require.NoError(t, state.Apply(game.Move{Board: 4, Cell: 4}))
	assert.Contains(t, renderStatus(state, game.MarkNone), "4 号盘")

	state.Result = game.WonBy(game.MarkO)
	assert.Contains(t, renderStatus(state, game.MarkO), "你赢了")
	assert.Contains(t, renderStatus(state, game.MarkX), "获胜")

	state.Result = game.SubDrawn
	assert.Contains(t, renderStatus(state, game.MarkNone), "平局")
}

func TestLocalViewHints(t *testing.T) {
	t.Parallel()

	m := NewLocalModel()
	assert.Contains(t, m.View(), "回车落子")

	m.match.Result = game.WonBy(game.MarkX)
	assert.Contains(t, m.View(), "重新开始")
}
