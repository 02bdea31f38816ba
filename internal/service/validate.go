package service

import (
	"errors"
	"strings"
	"time"

	"github.com/tazhate/reminders/internal/domain"
)

var (
	ErrEmptyTitle    = errors.New("empty title")
	ErrPastDate      = errors.New("date not in the future")
	ErrEmptyMessage  = errors.New("empty spoken message")
	ErrBadInterval   = errors.New("interval must be positive")
	ErrUnknownRepeat = errors.New("unknown repeat")
)

var alerts = map[error]string{
	ErrEmptyTitle:    "Please enter a title.",
	ErrPastDate:      "Please choose a date in the future.",
	ErrEmptyMessage:  "Please enter a message.",
	ErrBadInterval:   "Please enter a positive interval.",
	ErrUnknownRepeat: "Please choose how often to repeat.",
}

// ValidationError blocks a save. Error returns the alert shown to the user.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	if alert, ok := alerts[e.Err]; ok {
		return alert
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// AlertError rebuilds a *ValidationError from an alert text that came back
// over the API.
func AlertError(alert string) error {
	for err, text := range alerts {
		if text == alert {
			return &ValidationError{Err: err}
		}
	}
	return &ValidationError{Err: errors.New(alert)}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks a draft in the order the edit screen reports problems.
func Validate(p domain.Params, now time.Time) error {
	if strings.TrimSpace(p.Title) == "" {
		return &ValidationError{Err: ErrEmptyTitle}
	}
	if !p.Date.After(now) {
		return &ValidationError{Err: ErrPastDate}
	}
	if p.ShouldSpeak && strings.TrimSpace(p.Message) == "" {
		return &ValidationError{Err: ErrEmptyMessage}
	}
	if _, err := domain.ParseRepeat(string(p.Repeat)); err != nil {
		return &ValidationError{Err: ErrUnknownRepeat}
	}
	if p.Repeat == domain.RepeatByMinute && p.Minutes < 1 {
		return &ValidationError{Err: ErrBadInterval}
	}
	return nil
}
