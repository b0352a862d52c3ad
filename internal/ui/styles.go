// Package ui 终端界面：本地双人对局与在线对局两套 bubbletea 模型。
package ui

import "github.com/charmbracelet/lipgloss"

// Lipgloss 样式，本地与在线模式共用
var (
	docStyle    = lipgloss.NewStyle().Margin(1, 2)
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("228")).Bold(true)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)

	xStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	oStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("75")).Bold(true)
	emptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("228")).Bold(true)

	// 当前必须落子的小棋盘边框高亮，其余小棋盘灰显
	activeGridStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("228"))
	dimGridStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	wonGridStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)
