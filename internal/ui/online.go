package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/palemoky/ultimate-tictactoe/internal/game"
	netclient "github.com/palemoky/ultimate-tictactoe/internal/network/client"
	"github.com/palemoky/ultimate-tictactoe/internal/protocol"
)

// screen 在线模式的界面
type screen int

const (
	screenConnecting screen = iota
	screenMenu
	screenJoinInput
	screenRoom // 大厅/对局界面跟随 RoomClient 的阶段
)

// 由 RoomClient 回调转成的 tea 消息
type (
	connectedMsg  struct{}
	connErrMsg    struct{ err error }
	roomUpdateMsg struct{}
	serverErrMsg  struct{ reason string }
)

// OnlineModel 在线对局模型
// 房间与对局状态的权威副本在 RoomClient 里，模型只保存界面状态，
// 每次渲染时现取快照
type OnlineModel struct {
	client  *netclient.RoomClient
	updates chan tea.Msg

	screen  screen
	input   textinput.Model
	cursor  gridCursor
	notice  string
	connErr string

	width  int
	height int
}

// NewOnlineModel 创建在线对局模型
func NewOnlineModel(serverURL string, tokens netclient.TokenProvider) *OnlineModel {
	ti := textinput.New()
	ti.Placeholder = "房间号（如 AB12）"
	ti.CharLimit = 8
	ti.Width = 16

	m := &OnlineModel{
		client:  netclient.NewRoomClient(netclient.NewSessionConn(serverURL, tokens)),
		updates: make(chan tea.Msg, 16),
		screen:  screenConnecting,
		input:   ti,
		cursor:  gridCursor{row: 4, col: 4},
	}

	// 回调在消息处理协程上触发，经通道转给 tea 事件循环
	m.client.OnUpdate = func() {
		select {
		case m.updates <- roomUpdateMsg{}:
		default:
		}
	}
	m.client.OnError = func(reason string) {
		select {
		case m.updates <- serverErrMsg{reason: reason}:
		default:
		}
	}
	return m
}

func (m *OnlineModel) Init() tea.Cmd {
	return tea.Batch(m.connect(), m.listen(), textinput.Blink)
}

func (m *OnlineModel) connect() tea.Cmd {
	return func() tea.Msg {
		if err := m.client.Connect(context.Background()); err != nil {
			return connErrMsg{err: err}
		}
		return connectedMsg{}
	}
}

func (m *OnlineModel) listen() tea.Cmd {
	return func() tea.Msg { return <-m.updates }
}

// Update 处理事件
func (m *OnlineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case connectedMsg:
		m.screen = screenMenu
		m.connErr = ""

	case connErrMsg:
		m.connErr = msg.err.Error()

	case roomUpdateMsg:
		if m.client.View().Phase != netclient.PhaseIdle {
			m.screen = screenRoom
		}
		return m, m.listen()

	case serverErrMsg:
		if text, ok := protocol.ErrorMessages[msg.reason]; ok {
			m.notice = text
		} else {
			m.notice = msg.reason
		}
		// 入房失败（房间不存在/已满）时退回主菜单展示错误
		if m.screen == screenRoom && m.client.View().Phase == netclient.PhaseIdle {
			m.screen = screenMenu
		}
		return m, m.listen()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *OnlineModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.client.Close()
		return m, tea.Quit
	}

	switch m.screen {
	case screenConnecting:
		if msg.String() == "q" || msg.String() == "esc" {
			return m, tea.Quit
		}

	case screenMenu:
		switch msg.String() {
		case "q", "esc":
			m.client.Close()
			return m, tea.Quit
		case "1":
			m.notice = ""
			_ = m.client.FindMatch(context.Background())
		case "2":
			m.notice = ""
			_ = m.client.CreateRoom(context.Background())
		case "3":
			m.notice = ""
			m.screen = screenJoinInput
			m.input.Reset()
			m.input.Focus()
		}

	case screenJoinInput:
		switch msg.String() {
		case "esc":
			m.screen = screenMenu
		case "enter":
			if m.input.Value() != "" {
				_ = m.client.JoinRoom(context.Background(), m.input.Value())
				m.screen = screenRoom
			}
		default:
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}

	case screenRoom:
		return m.handleRoomKey(msg)
	}
	return m, nil
}

// handleRoomKey 大厅与对局中的按键
func (m *OnlineModel) handleRoomKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	view := m.client.View()

	switch view.Phase {
	case netclient.PhaseQueued, netclient.PhaseLobby:
		switch msg.String() {
		case "s":
			_ = m.client.StartGame(context.Background())
		case "esc", "q":
			m.leaveToMenu()
		}

	case netclient.PhaseInProgress:
		switch msg.String() {
		case "up", "k":
			m.cursor = m.cursor.move(-1, 0)
		case "down", "j":
			m.cursor = m.cursor.move(1, 0)
		case "left", "h":
			m.cursor = m.cursor.move(0, -1)
		case "right", "l":
			m.cursor = m.cursor.move(0, 1)
		case "enter", " ":
			m.submitAtCursor()
		case "esc":
			m.leaveToMenu()
		}

	case netclient.PhaseEnded:
		switch msg.String() {
		case "r":
			m.notice = ""
			_ = m.client.RequestRematch(context.Background())
		case "esc", "q":
			m.leaveToMenu()
		}
	}
	return m, nil
}

// submitAtCursor 在光标处提交落子
// 终局校验在服务端，这里只拦住明显不是自己回合的操作
func (m *OnlineModel) submitAtCursor() {
	state := m.client.MatchState()
	if state == nil {
		return
	}
	if state.YouAre != game.MarkNone && state.Turn != state.YouAre {
		m.notice = "还没轮到你"
		return
	}

	board, cell := m.cursor.boardCell()
	if err := m.client.SubmitMove(context.Background(), board, cell); err != nil {
		m.notice = "落子发送失败"
		return
	}
	m.notice = ""
}

func (m *OnlineModel) leaveToMenu() {
	_ = m.client.Leave(context.Background())
	m.screen = screenMenu
	m.notice = ""
}

// View 渲染在线界面
func (m *OnlineModel) View() string {
	var content string
	switch m.screen {
	case screenConnecting:
		content = m.connectingView()
	case screenMenu:
		content = m.menuView()
	case screenJoinInput:
		content = m.joinView()
	case screenRoom:
		content = m.roomView()
	}
	return docStyle.Render(content)
}

func (m *OnlineModel) connectingView() string {
	if m.connErr != "" {
		return errorStyle.Render(fmt.Sprintf("无法连接到服务器: %s", m.connErr)) +
			"\n\n" + hintStyle.Render("q 退出")
	}
	return "正在连接服务器..."
}

func (m *OnlineModel) menuView() string {
	sections := []string{
		titleStyle.Render("终极井字棋 · 在线对局"),
		"",
		"1. 快速匹配",
		"2. 创建房间",
		"3. 加入房间",
		"",
		hintStyle.Render("q 退出"),
	}
	if m.notice != "" {
		sections = append(sections, "", errorStyle.Render(m.notice))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *OnlineModel) joinView() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("加入房间"),
		"",
		m.input.View(),
		"",
		hintStyle.Render("回车确认 · esc 返回"),
	)
}

func (m *OnlineModel) roomView() string {
	view := m.client.View()

	switch view.Phase {
	case netclient.PhaseQueued:
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("快速匹配"),
			"",
			"🔍 正在匹配对手...",
			"",
			hintStyle.Render("esc 取消"),
		)

	case netclient.PhaseLobby:
		sections := []string{
			titleStyle.Render("房间 " + view.RoomCode),
			"",
			fmt.Sprintf("当前人数: %d/2", len(view.Members)),
		}
		if len(view.Members) < 2 {
			sections = append(sections, "等待对手加入，把房间号告诉朋友吧")
		} else {
			sections = append(sections, "", hintStyle.Render("s 开始对局"))
		}
		sections = append(sections, "", hintStyle.Render("esc 离开房间"))
		if m.notice != "" {
			sections = append(sections, "", errorStyle.Render(m.notice))
		}
		return lipgloss.JoinVertical(lipgloss.Left, sections...)

	case netclient.PhaseInProgress, netclient.PhaseEnded:
		return m.matchView(view)
	}

	return "..."
}

func (m *OnlineModel) matchView(view netclient.RoomView) string {
	state := m.client.MatchState()
	if state == nil {
		return "等待服务端快照..."
	}

	var cur *gridCursor
	if view.Phase == netclient.PhaseInProgress {
		cur = &m.cursor
	}

	sections := []string{
		titleStyle.Render("房间 " + view.RoomCode),
		"",
		renderBoard(state, cur),
		"",
		renderStatus(state, state.YouAre),
	}
	if view.LinkDown {
		sections = append(sections, errorStyle.Render("⚠ 连接已断开，显示的是最后收到的状态"))
	}
	if m.notice != "" {
		sections = append(sections, errorStyle.Render(m.notice))
	}
	if view.Phase == netclient.PhaseEnded {
		sections = append(sections, hintStyle.Render("r 再来一局 · esc 离开房间"))
	} else {
		sections = append(sections, hintStyle.Render("方向键移动 · 回车落子 · esc 离开"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
