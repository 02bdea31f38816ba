package tui

import (
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tazhate/reminders/internal/service"
)

const emptyText = "No reminders. Create a new one!"

type listModel struct {
	table table.Model
	rows  []service.Row
}

func newListModel() listModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "", Width: 3},
			{Title: "Reminder", Width: 32},
			{Title: "When", Width: 40},
		}),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color("86"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return listModel{table: t}
}

func (l *listModel) resize(height int) {
	h := height - 6
	if h < 5 {
		h = 5
	}
	l.table.SetHeight(h)
}

func (l *listModel) setRows(rows []service.Row) {
	l.rows = rows

	out := make([]table.Row, 0, len(rows))
	for _, row := range rows {
		check := "[ ]"
		if row.Reminder.Done {
			check = doneStyle.Render("[x]")
		}
		when := row.When()
		if row.Overdue {
			when = overdueStyle.Render(when)
		}
		out = append(out, table.Row{check, row.Reminder.Title, when})
	}
	l.table.SetRows(out)

	if c := l.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		l.table.SetCursor(len(rows) - 1)
	}
}

func (l listModel) selected() (service.Row, bool) {
	c := l.table.Cursor()
	if c < 0 || c >= len(l.rows) {
		return service.Row{}, false
	}
	return l.rows[c], true
}

func (l *listModel) update(msg tea.Msg) {
	l.table, _ = l.table.Update(msg)
}

func (l listModel) view() string {
	header := headerStyle.Render("🔔 Reminders")

	content := emptyStyle.Render(emptyText)
	if len(l.rows) > 0 {
		content = l.table.View()
	}

	keys := footer(
		binding{"↑↓", "navigate"},
		binding{"enter", "edit"},
		binding{"space", "done"},
		binding{"n", "new"},
		binding{"q", "quit"},
	)

	return lipgloss.JoinVertical(lipgloss.Top, header, "", content, "", keys)
}
