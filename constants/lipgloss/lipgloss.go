package lipgloss

import "github.com/charmbracelet/lipgloss"

var (
	Red     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	Green   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ECB71"))
	Yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F5C542"))
	BlueSky = lipgloss.NewStyle().Foreground(lipgloss.Color("#6FC3DF"))
	Info    = lipgloss.NewStyle().Foreground(lipgloss.Color("#A78BFA")).Bold(true)
	Gray    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8A8A8A"))

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6FC3DF")).
			Padding(0, 1)
)
