package pick

import "github.com/charmbracelet/lipgloss"

// Shared TUI styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			PaddingLeft(2)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	HelpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			PaddingLeft(2)

	CheckedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	DateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))

	SentStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#04B5FF"))
)
