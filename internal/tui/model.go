// Package tui is the terminal rendition of the two reminder screens: the
// list and the edit/create form.
package tui

import (
	"context"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tazhate/reminders/internal/domain"
	"github.com/tazhate/reminders/internal/service"
)

// Reminders is the part of the service the screens use.
type Reminders interface {
	Rows(ctx context.Context) ([]service.Row, error)
	Save(ctx context.Context, p domain.Params) (*domain.Reminder, error)
	Delete(ctx context.Context, p domain.Params) error
	SetDone(ctx context.Context, index int, id string, done bool) error
	Now() time.Time
}

type screen int

const (
	listScreen screen = iota
	editScreen
)

// Messages produced by commands.
type (
	rowsLoadedMsg struct {
		rows []service.Row
		err  error
	}
	savedMsg   struct{ err error }
	deletedMsg struct{ err error }
	toggledMsg struct{ err error }
	firedMsg   service.Notification
)

// Model switches between the list and the edit screen. The list reloads
// every time it becomes visible.
type Model struct {
	ctx       context.Context
	reminders Reminders
	screen    screen
	list      listModel
	edit      editModel
	banner    string
	width     int
	height    int
}

func New(ctx context.Context, reminders Reminders) Model {
	return Model{
		ctx:       ctx,
		reminders: reminders,
		screen:    listScreen,
		list:      newListModel(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.loadRows()
}

func (m Model) loadRows() tea.Cmd {
	return func() tea.Msg {
		rows, err := m.reminders.Rows(m.ctx)
		return rowsLoadedMsg{rows: rows, err: err}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.resize(msg.Height)
		return m, nil

	case rowsLoadedMsg:
		if msg.err != nil {
			log.Printf("Error loading reminders: %v", msg.err)
			m.list.setRows(nil)
			return m, nil
		}
		m.list.setRows(msg.rows)
		return m, nil

	case savedMsg:
		if msg.err != nil {
			if service.IsValidation(msg.err) {
				m.edit.alert = msg.err.Error()
				return m, nil
			}
			log.Printf("Error saving reminder: %v", msg.err)
		}
		return m.showList()

	case deletedMsg:
		if msg.err != nil {
			log.Printf("Error deleting reminder: %v", msg.err)
		}
		return m.showList()

	case firedMsg:
		m.banner = "🔔 " + msg.Title
		if msg.Message != "" {
			m.banner += ": " + msg.Message
		}
		if m.screen == listScreen {
			return m, m.loadRows()
		}
		return m, nil

	case toggledMsg:
		if msg.err != nil {
			log.Printf("Error updating reminder: %v", msg.err)
		}
		return m, m.loadRows()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.screen == editScreen {
			return m.updateEdit(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m Model) showList() (tea.Model, tea.Cmd) {
	m.screen = listScreen
	return m, m.loadRows()
}

func (m Model) openEdit(p domain.Params) (tea.Model, tea.Cmd) {
	m.screen = editScreen
	m.edit = newEditModel(p, m.reminders.Now().Location())
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc":
		m.banner = ""
	case "n", "a":
		return m.openEdit(domain.NewParams(m.reminders.Now()))
	case "r":
		return m, m.loadRows()
	case "enter", "e":
		if row, ok := m.list.selected(); ok {
			return m.openEdit(domain.ParamsFor(row.Index, row.Reminder))
		}
	case " ", "x":
		if row, ok := m.list.selected(); ok {
			r := row.Reminder
			return m, func() tea.Msg {
				return toggledMsg{err: m.reminders.SetDone(m.ctx, row.Index, r.ID, !r.Done)}
			}
		}
	default:
		m.list.update(msg)
	}
	return m, nil
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.edit.alert != "" {
		// алерт блокирует форму до нажатия клавиши
		m.edit.alert = ""
		return m, nil
	}

	switch msg.String() {
	case "esc":
		return m.showList()
	case "ctrl+s":
		p, err := m.edit.params(m.reminders.Now().Location())
		if err != nil {
			m.edit.alert = formAlerts[err]
			return m, nil
		}
		return m, func() tea.Msg {
			_, err := m.reminders.Save(m.ctx, p)
			return savedMsg{err: err}
		}
	case "ctrl+d":
		if m.edit.draft.IsNew() {
			return m, nil
		}
		p := m.edit.draft
		return m, func() tea.Msg {
			return deletedMsg{err: m.reminders.Delete(m.ctx, p)}
		}
	}

	cmd := m.edit.update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.screen == editScreen {
		return m.edit.view()
	}
	if m.banner != "" {
		return alertStyle.Render(m.banner) + "\n" + m.list.view()
	}
	return m.list.view()
}

func NewProgram(ctx context.Context, reminders Reminders) *tea.Program {
	return tea.NewProgram(New(ctx, reminders), tea.WithAltScreen(), tea.WithContext(ctx))
}

// ProgramSender shows fired reminders as a banner above the list.
type ProgramSender struct {
	Program *tea.Program
}

func (s ProgramSender) Notify(_ context.Context, n service.Notification) error {
	s.Program.Send(firedMsg(n))
	return nil
}
