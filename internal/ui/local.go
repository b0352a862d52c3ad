package ui

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/ultimate-tictactoe/internal/game"
)

// LocalModel 本地双人对局：两名玩家共用一个键盘，轮流操作光标落子
type LocalModel struct {
	match  *game.MatchState
	cursor gridCursor
	notice string

	width  int
	height int
}

// NewLocalModel 创建本地对局模型
func NewLocalModel() *LocalModel {
	return &LocalModel{
		match:  game.NewMatch(),
		cursor: gridCursor{row: 4, col: 4},
	}
}

// Match 返回当前对局状态（供测试检查）
func (m *LocalModel) Match() *game.MatchState { return m.match.Clone() }

func (m *LocalModel) Init() tea.Cmd { return nil }

// Update 处理按键
func (m *LocalModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			m.cursor = m.cursor.move(-1, 0)
		case "down", "j":
			m.cursor = m.cursor.move(1, 0)
		case "left", "h":
			m.cursor = m.cursor.move(0, -1)
		case "right", "l":
			m.cursor = m.cursor.move(0, 1)
		case "enter", " ":
			m.place()
		case "r":
			if m.match.Ended() {
				m.match = game.NewMatch()
				m.cursor = gridCursor{row: 4, col: 4}
				m.notice = ""
			}
		}
	}
	return m, nil
}

// place 在光标处落子
func (m *LocalModel) place() {
	board, cell := m.cursor.boardCell()
	err := m.match.Apply(game.Move{Board: board, Cell: cell})
	if err == nil {
		m.notice = ""
		return
	}

	var illegal *game.IllegalMoveError
	if errors.As(err, &illegal) {
		m.notice = illegalMoveText(illegal)
	}
}

// illegalMoveText 非法落子的提示文案
func illegalMoveText(err *game.IllegalMoveError) string {
	switch err.Reason {
	case game.ReasonGameOver:
		return "对局已结束"
	case game.ReasonCellOccupied:
		return "这个格子已有棋子"
	case game.ReasonSubBoardDecided:
		return "这个小棋盘已结算"
	case game.ReasonWrongBoard:
		return "必须落在指定的小棋盘"
	default:
		return "此处不能落子"
	}
}

// View 渲染本地对局
func (m *LocalModel) View() string {
	sections := []string{
		titleStyle.Render("终极井字棋 · 本地对局"),
		"",
		renderBoard(m.match, &m.cursor),
		"",
		renderStatus(m.match, game.MarkNone),
	}
	if m.notice != "" {
		sections = append(sections, errorStyle.Render(m.notice))
	}
	if m.match.Ended() {
		sections = append(sections, hintStyle.Render("r 重新开始 · q 退出"))
	} else {
		sections = append(sections, hintStyle.Render("方向键移动 · 回车落子 · q 退出"))
	}
	return docStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}
