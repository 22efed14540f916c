package cli

import "github.com/charmbracelet/lipgloss"

// Theme holds the lipgloss styles shared by the CLI commands. Dark palette
// only; terminals that cannot render it degrade gracefully.
type Theme struct {
	Text   lipgloss.Color
	Muted  lipgloss.Color
	Accent lipgloss.Color
	Error  lipgloss.Color

	Title        lipgloss.Style
	Subtle       lipgloss.Style
	Highlight    lipgloss.Style
	ErrorStyle   lipgloss.Style
	SuccessStyle lipgloss.Style
	Badge        lipgloss.Style
}

// NewTheme builds the default dark theme.
func NewTheme() *Theme {
	t := &Theme{
		Text:   lipgloss.Color("#ffffff"),
		Muted:  lipgloss.Color("#909090"),
		Accent: lipgloss.Color("#4ade80"),
		Error:  lipgloss.Color("#ef4444"),
	}

	t.Title = lipgloss.NewStyle().Foreground(t.Text).Bold(true)
	t.Subtle = lipgloss.NewStyle().Foreground(t.Muted)
	t.Highlight = lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	t.ErrorStyle = lipgloss.NewStyle().Foreground(t.Error)
	t.SuccessStyle = lipgloss.NewStyle().Foreground(t.Accent)
	t.Badge = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#0a0a0b")).
		Background(t.Accent).
		Padding(0, 1)

	return t
}
