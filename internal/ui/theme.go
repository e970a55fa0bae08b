package ui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#1E6FD9")

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Padding(1, 0)

	TextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#828282"))

	KeyStyle = lipgloss.NewStyle().
			Foreground(accent).
			Bold(true)

	BadgeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#32CD32")).
			Bold(true).
			Padding(0, 1)
)
