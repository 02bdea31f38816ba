package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Repeat string

const (
	RepeatNever    Repeat = "Never"
	RepeatByMinute Repeat = "By the Minute"
	RepeatHourly   Repeat = "Hourly"
	RepeatDaily    Repeat = "Daily"
	RepeatWeekly   Repeat = "Weekly"
	RepeatMonthly  Repeat = "Monthly"
	RepeatYearly   Repeat = "Yearly"
)

// Repeats is the fixed set offered by the edit screen, in display order.
var Repeats = []Repeat{
	RepeatNever,
	RepeatByMinute,
	RepeatHourly,
	RepeatDaily,
	RepeatWeekly,
	RepeatMonthly,
	RepeatYearly,
}

func ParseRepeat(s string) (Repeat, error) {
	if s == "" {
		return RepeatNever, nil
	}
	for _, r := range Repeats {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("unknown repeat: %q", s)
}

// Reminder is one entry of the stored sequence.
type Reminder struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Date        time.Time `json:"date"`
	NotifID     string    `json:"notifID"`
	ShouldSpeak bool      `json:"shouldSpeak"`
	Message     string    `json:"message"`
	Repeat      Repeat    `json:"repeat"`
	Minutes     int       `json:"minutes"` // only for RepeatByMinute
	Done        bool      `json:"done"`
}

func (r *Reminder) IsOverdue(now time.Time) bool {
	return r.Date.Before(now)
}

func (r *Reminder) IsRepeating() bool {
	return r.Repeat != "" && r.Repeat != RepeatNever
}

// Params is what the list screen hands to the edit screen.
// A nil Index means create mode.
type Params struct {
	Index       *int
	ID          string
	Title       string
	Date        time.Time
	NotifID     string
	ShouldSpeak bool
	Message     string
	Repeat      Repeat
	Minutes     int
}

func (p Params) IsNew() bool {
	return p.Index == nil
}

// ParamsFor builds edit-screen params for the reminder at index.
func ParamsFor(index int, r Reminder) Params {
	return Params{
		Index:       &index,
		ID:          r.ID,
		Title:       r.Title,
		Date:        r.Date,
		NotifID:     r.NotifID,
		ShouldSpeak: r.ShouldSpeak,
		Message:     r.Message,
		Repeat:      r.Repeat,
		Minutes:     r.Minutes,
	}
}

// NewParams returns create-mode defaults: an hour from now on a whole minute.
func NewParams(now time.Time) Params {
	return Params{
		Date:    now.Add(time.Hour).Truncate(time.Minute),
		Repeat:  RepeatNever,
		Minutes: 1,
	}
}

// Reminder converts the draft into a record carrying the given handle.
func (p Params) Reminder(notifID string) Reminder {
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	repeat := p.Repeat
	if repeat == "" {
		repeat = RepeatNever
	}
	minutes := p.Minutes
	if repeat != RepeatByMinute {
		minutes = 0
	}
	return Reminder{
		ID:          id,
		Title:       p.Title,
		Date:        p.Date,
		NotifID:     notifID,
		ShouldSpeak: p.ShouldSpeak,
		Message:     p.Message,
		Repeat:      repeat,
		Minutes:     minutes,
	}
}

// MergeDateTime keeps the calendar day of day and the hour and minute of clock.
func MergeDateTime(day, clock time.Time) time.Time {
	clock = clock.In(day.Location())
	y, m, d := day.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, day.Location())
}
