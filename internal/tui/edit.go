package tui

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tazhate/reminders/internal/domain"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

var (
	errBadDate    = errors.New("malformed date")
	errBadTime    = errors.New("malformed time")
	errBadMinutes = errors.New("malformed minutes")
)

var formAlerts = map[error]string{
	errBadDate:    "Please enter the date as YYYY-MM-DD.",
	errBadTime:    "Please enter the time as HH:MM.",
	errBadMinutes: "Please enter a positive interval.",
}

type field int

const (
	fieldTitle field = iota
	fieldDate
	fieldTime
	fieldRepeat
	fieldMinutes
	fieldSpeak
	fieldMessage
	fieldCount
)

// editModel is the create/edit form. draft keeps the navigation params so
// index, id and the old handle survive until save.
type editModel struct {
	draft   domain.Params
	inputs  map[field]*textinput.Model
	repeat  int
	speak   bool
	focused field
	alert   string
}

func newInput(value, placeholder string, limit int) *textinput.Model {
	in := textinput.New()
	in.SetValue(value)
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Cursor.SetMode(cursor.CursorStatic)
	return &in
}

func newEditModel(p domain.Params, loc *time.Location) editModel {
	local := p.Date.In(loc)
	minutes := ""
	if p.Minutes > 0 {
		minutes = strconv.Itoa(p.Minutes)
	}

	repeat := 0
	for i, r := range domain.Repeats {
		if r == p.Repeat {
			repeat = i
		}
	}

	e := editModel{
		draft: p,
		inputs: map[field]*textinput.Model{
			fieldTitle:   newInput(p.Title, "Title", 100),
			fieldDate:    newInput(local.Format(dateLayout), "YYYY-MM-DD", 10),
			fieldTime:    newInput(local.Format(timeLayout), "HH:MM", 5),
			fieldMinutes: newInput(minutes, "Minutes", 5),
			fieldMessage: newInput(p.Message, "Message", 200),
		},
		repeat: repeat,
		speak:  p.ShouldSpeak,
	}
	e.focus(fieldTitle)
	return e
}

func (e editModel) currentRepeat() domain.Repeat {
	return domain.Repeats[e.repeat]
}

// visible reports whether f is shown for the current draft.
func (e editModel) visible(f field) bool {
	switch f {
	case fieldMinutes:
		return e.currentRepeat() == domain.RepeatByMinute
	case fieldMessage:
		return e.speak
	}
	return true
}

func (e *editModel) focus(f field) {
	for k, in := range e.inputs {
		if k == f {
			in.Focus()
		} else {
			in.Blur()
		}
	}
	e.focused = f
}

func (e *editModel) move(step int) {
	f := e.focused
	for i := 0; i < int(fieldCount); i++ {
		f = (f + field(step) + fieldCount) % fieldCount
		if e.visible(f) {
			e.focus(f)
			return
		}
	}
}

func (e *editModel) update(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		e.move(1)
		return nil
	case "shift+tab", "up":
		e.move(-1)
		return nil
	}

	switch e.focused {
	case fieldRepeat:
		switch msg.String() {
		case "right", "l", " ":
			e.repeat = (e.repeat + 1) % len(domain.Repeats)
		case "left", "h":
			e.repeat = (e.repeat - 1 + len(domain.Repeats)) % len(domain.Repeats)
		}
		return nil
	case fieldSpeak:
		switch msg.String() {
		case " ", "enter", "left", "right":
			e.speak = !e.speak
		}
		return nil
	}

	if in, ok := e.inputs[e.focused]; ok {
		var cmd tea.Cmd
		*in, cmd = in.Update(msg)
		return cmd
	}
	return nil
}

// params builds the draft to save. Date and time are entered separately and
// merged on the chosen day.
func (e editModel) params(loc *time.Location) (domain.Params, error) {
	p := e.draft

	day, err := time.ParseInLocation(dateLayout, strings.TrimSpace(e.inputs[fieldDate].Value()), loc)
	if err != nil {
		return p, errBadDate
	}
	clock, err := time.ParseInLocation(timeLayout, strings.TrimSpace(e.inputs[fieldTime].Value()), loc)
	if err != nil {
		return p, errBadTime
	}

	p.Title = e.inputs[fieldTitle].Value()
	p.Date = domain.MergeDateTime(day, clock)
	p.Repeat = e.currentRepeat()
	p.ShouldSpeak = e.speak
	p.Message = e.inputs[fieldMessage].Value()
	p.Minutes = 0

	if p.Repeat == domain.RepeatByMinute {
		raw := strings.TrimSpace(e.inputs[fieldMinutes].Value())
		if raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return p, errBadMinutes
			}
			p.Minutes = n
		}
	}
	return p, nil
}

func (e editModel) label(f field, text string) string {
	if e.focused == f {
		return focusStyle.Render(text)
	}
	return labelStyle.Render(text)
}

func (e editModel) view() string {
	title := "✏️ Edit Reminder"
	if e.draft.IsNew() {
		title = "✏️ New Reminder"
	}

	fields := []string{
		e.label(fieldTitle, "Title:") + "\n" + e.inputs[fieldTitle].View(),
		e.label(fieldDate, "Date:") + "\n" + e.inputs[fieldDate].View(),
		e.label(fieldTime, "Time:") + "\n" + e.inputs[fieldTime].View(),
		e.label(fieldRepeat, "Repeat:") + "\n< " + string(e.currentRepeat()) + " >",
	}
	if e.visible(fieldMinutes) {
		fields = append(fields, e.label(fieldMinutes, "Every N minutes:")+"\n"+e.inputs[fieldMinutes].View())
	}
	speak := "[ ]"
	if e.speak {
		speak = "[x]"
	}
	fields = append(fields, e.label(fieldSpeak, "Speak:")+"\n"+speak)
	if e.visible(fieldMessage) {
		fields = append(fields, e.label(fieldMessage, "Message:")+"\n"+e.inputs[fieldMessage].View())
	}

	bindings := []binding{
		{"tab", "next field"},
		{"ctrl+s", "save"},
	}
	if !e.draft.IsNew() {
		bindings = append(bindings, binding{"ctrl+d", "delete"})
	}
	bindings = append(bindings, binding{"esc", "back"})

	parts := []string{
		headerStyle.Render(title),
		"",
		lipgloss.JoinVertical(lipgloss.Top, fields...),
		"",
	}
	if e.alert != "" {
		parts = append(parts, alertStyle.Render(e.alert+"\n\npress any key"), "")
	}
	parts = append(parts, footer(bindings...))

	return lipgloss.JoinVertical(lipgloss.Top, parts...)
}
