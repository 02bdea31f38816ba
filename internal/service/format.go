package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/tazhate/reminders/internal/domain"
)

// FormatDate is the list's day label: "Today", "Tomorrow", "Mar 5" or
// "Mar 5, 2027" when the year is not the current one.
func FormatDate(t, now time.Time) string {
	t = t.In(now.Location())
	y, m, d := t.Date()
	ny, nm, nd := now.Date()
	if y == ny && m == nm && d == nd {
		return "Today"
	}

	ty, tm, td := now.AddDate(0, 0, 1).Date()
	if y == ty && m == tm && d == td {
		return "Tomorrow"
	}

	label := t.Format("Jan 2")
	if y != ny {
		label += ", " + strconv.Itoa(y)
	}
	return label
}

// FormatTime renders a 12-hour clock, "12:05 AM".
func FormatTime(t time.Time) string {
	return t.Format("3:04 PM")
}

func FormatRepeat(repeat domain.Repeat, minutes int) string {
	switch repeat {
	case "", domain.RepeatNever:
		return ""
	case domain.RepeatByMinute:
		if minutes == 1 {
			return "  |  Every Minute"
		}
		return fmt.Sprintf("  |  Every %d Minutes", minutes)
	default:
		return "  |  " + string(repeat)
	}
}

// Row is one rendered line of the reminder list.
type Row struct {
	Index       int
	Reminder    domain.Reminder
	DateLabel   string
	TimeLabel   string
	RepeatLabel string
	Overdue     bool
}

// When joins the labels the way the list shows them under the title.
func (r Row) When() string {
	return r.DateLabel + "  |  " + r.TimeLabel + r.RepeatLabel
}

func Rows(list []domain.Reminder, now time.Time) []Row {
	rows := make([]Row, 0, len(list))
	for i, rem := range list {
		local := rem.Date.In(now.Location())
		rows = append(rows, Row{
			Index:       i,
			Reminder:    rem,
			DateLabel:   FormatDate(local, now),
			TimeLabel:   FormatTime(local),
			RepeatLabel: FormatRepeat(rem.Repeat, rem.Minutes),
			Overdue:     rem.IsOverdue(now),
		})
	}
	return rows
}
