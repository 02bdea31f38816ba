package tui

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	focusStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))

	overdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true) // Red
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))             // Green
	emptyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(1)

	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))  // Blue
	actionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))  // Green
	bulletStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")) // Gray

	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("196")).
			Padding(1, 3).
			Bold(true)
)

type binding struct {
	key, action string
}

func footer(bindings ...binding) string {
	out := ""
	for i, b := range bindings {
		if i > 0 {
			out += bulletStyle.Render(" • ")
		}
		out += keyStyle.Render(b.key) + ": " + actionStyle.Render(b.action)
	}
	return out
}
