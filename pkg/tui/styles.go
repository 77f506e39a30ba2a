package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	queryStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	cursorStyle  = lipgloss.NewStyle().Reverse(true)
	dirStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FAFFF")).Bold(true)
	checkedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	partialStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAF00"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFAF00"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
)
