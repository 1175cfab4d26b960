package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	urlStyle     = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("12"))
	codeStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

const separator = "────────────────────────────────────────────────────────────\n"

// Title renders a heading.
func Title(s string) string { return titleStyle.Render(s) }

// Muted renders secondary text.
func Muted(s string) string { return mutedStyle.Render(s) }

// Warn renders a warning.
func Warn(s string) string { return warnStyle.Render(s) }

// Error renders an error.
func Error(s string) string { return errorStyle.Render(s) }

// Success renders a success message.
func Success(s string) string { return successStyle.Render(s) }

// Emphasis renders a command name or other highlighted token.
func Emphasis(s string) string { return codeStyle.Render(s) }
