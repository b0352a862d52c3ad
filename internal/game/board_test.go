package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubBoard_Result(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		board SubBoard
		want  SubResult
	}{
		{
			name:  "empty board undecided",
			board: SubBoard{},
			want:  SubUndecided,
		},
		{
			name:  "top row X",
			board: SubBoard{MarkX, MarkX, MarkX},
			want:  WonBy(MarkX),
		},
		{
			name:  "middle column O",
			board: SubBoard{MarkNone, MarkO, MarkNone, MarkNone, MarkO, MarkNone, MarkNone, MarkO, MarkNone},
			want:  WonBy(MarkO),
		},
		{
			name:  "anti diagonal X",
			board: SubBoard{MarkNone, MarkNone, MarkX, MarkNone, MarkX, MarkNone, MarkX, MarkNone, MarkNone},
			want:  WonBy(MarkX),
		},
		{
			name:  "partially filled undecided",
			board: SubBoard{MarkX, MarkO, MarkX, MarkO, MarkNone, MarkNone, MarkNone, MarkNone, MarkNone},
			want:  SubUndecided,
		},
		{
			name: "full board no line drawn",
			// X O X / X O O / O X X
			board: SubBoard{MarkX, MarkO, MarkX, MarkX, MarkO, MarkO, MarkO, MarkX, MarkX},
			want:  SubDrawn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.board.Result())
		})
	}
}

// Result 是纯函数：同一棋盘重复计算结果一致，且不改动棋盘
func TestSubBoard_ResultPure(t *testing.T) {
	t.Parallel()

	board := SubBoard{MarkX, MarkX, MarkX, MarkO, MarkO}
	snapshot := board

	first := board.Result()
	second := board.Result()

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, board)
}

func TestOverallResult(t *testing.T) {
	t.Parallel()

	t.Run("undecided while boards open", func(t *testing.T) {
		t.Parallel()
		var results [9]SubResult
		results[0] = WonBy(MarkX)
		results[4] = WonBy(MarkO)
		assert.Equal(t, SubUndecided, OverallResult(results))
	})

	t.Run("left column wins for X", func(t *testing.T) {
		t.Parallel()
		var results [9]SubResult
		results[0] = WonBy(MarkX)
		results[3] = WonBy(MarkX)
		results[6] = WonBy(MarkX)
		assert.Equal(t, WonBy(MarkX), OverallResult(results))
	})

	t.Run("drawn sub boards do not form lines", func(t *testing.T) {
		t.Parallel()
		var results [9]SubResult
		results[0] = SubDrawn
		results[1] = SubDrawn
		results[2] = SubDrawn
		assert.Equal(t, SubUndecided, OverallResult(results))
	})

	t.Run("all decided without line is a draw", func(t *testing.T) {
		t.Parallel()
		// X X - / O O - / 平 平 平 （无三连）
		results := [9]SubResult{
			WonBy(MarkX), WonBy(MarkX), SubDrawn,
			WonBy(MarkO), WonBy(MarkO), SubDrawn,
			SubDrawn, SubDrawn, SubDrawn,
		}
		assert.Equal(t, SubDrawn, OverallResult(results))
	})

	t.Run("meta win beats full board draw", func(t *testing.T) {
		t.Parallel()
		// 9 盘全部结算且底行三连：胜负判定优先于平局
		results := [9]SubResult{
			WonBy(MarkO), WonBy(MarkX), SubDrawn,
			SubDrawn, WonBy(MarkO), WonBy(MarkX),
			WonBy(MarkX), WonBy(MarkX), WonBy(MarkX),
		}
		assert.Equal(t, WonBy(MarkX), OverallResult(results))
	})
}

func TestMark_Other(t *testing.T) {
	t.Parallel()

	assert.Equal(t, MarkO, MarkX.Other())
	assert.Equal(t, MarkX, MarkO.Other())
}

func TestSubResult_Winner(t *testing.T) {
	t.Parallel()

	m, ok := WonBy(MarkX).Winner()
	assert.True(t, ok)
	assert.Equal(t, MarkX, m)

	_, ok = SubDrawn.Winner()
	assert.False(t, ok)

	_, ok = SubUndecided.Winner()
	assert.False(t, ok)
}
