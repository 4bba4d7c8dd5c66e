package tui

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha.
const (
	colourBlue     = lipgloss.Color("#89b4fa")
	colourRed      = lipgloss.Color("#f38ba8")
	colourText     = lipgloss.Color("#cdd6f4")
	colourSubtext  = lipgloss.Color("#a6adc8")
	colourSurface0 = lipgloss.Color("#313244")
	colourSurface1 = lipgloss.Color("#45475a")
	colourBase     = lipgloss.Color("#1e1e2e")
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colourText)

	buttonStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colourBase).
			Background(colourBlue).
			Padding(0, 2)

	messageStyle = lipgloss.NewStyle().Bold(true).Foreground(colourText)

	rowStyle = lipgloss.NewStyle().Foreground(colourSubtext).Bold(true)

	selectedRowStyle = rowStyle.Foreground(colourText).Background(colourSurface1)

	labelStyle = lipgloss.NewStyle().Foreground(colourSubtext).Bold(true)

	valueStyle = lipgloss.NewStyle().Foreground(colourText)

	errorStyle = lipgloss.NewStyle().Foreground(colourRed)

	helpStyle = lipgloss.NewStyle().Foreground(colourSubtext)

	formStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colourBlue).
			Padding(1, 3).
			Width(64)
)
