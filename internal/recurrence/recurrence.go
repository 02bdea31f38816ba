// Package recurrence turns a reminder's repeat kind into an RFC 5545 rule.
package recurrence

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/tazhate/reminders/internal/domain"
)

// Option returns the rule options for r anchored at r.Date.
// ok is false for reminders that do not repeat.
func Option(r domain.Reminder) (opt rrule.ROption, ok bool, err error) {
	opt = rrule.ROption{
		Interval: 1,
		Dtstart:  r.Date,
	}

	switch r.Repeat {
	case "", domain.RepeatNever:
		return opt, false, nil
	case domain.RepeatByMinute:
		if r.Minutes < 1 {
			return opt, false, fmt.Errorf("interval must be positive, got %d", r.Minutes)
		}
		opt.Freq = rrule.MINUTELY
		opt.Interval = r.Minutes
	case domain.RepeatHourly:
		opt.Freq = rrule.HOURLY
	case domain.RepeatDaily:
		opt.Freq = rrule.DAILY
	case domain.RepeatWeekly:
		opt.Freq = rrule.WEEKLY
	case domain.RepeatMonthly:
		opt.Freq = rrule.MONTHLY
	case domain.RepeatYearly:
		opt.Freq = rrule.YEARLY
	default:
		return opt, false, fmt.Errorf("unknown repeat: %q", r.Repeat)
	}
	return opt, true, nil
}

// Next is the first occurrence strictly after after. ok is false when r
// does not repeat.
func Next(r domain.Reminder, after time.Time) (time.Time, bool, error) {
	opt, ok, err := Option(r)
	if err != nil || !ok {
		return time.Time{}, false, err
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("build rule: %w", err)
	}

	next := rule.After(after, false)
	if next.IsZero() {
		return time.Time{}, false, nil
	}
	return next, true, nil
}

// RRule is the RRULE property value for r ("FREQ=DAILY;INTERVAL=1"), or ""
// when r does not repeat.
func RRule(r domain.Reminder) string {
	opt, ok, err := Option(r)
	if err != nil || !ok {
		return ""
	}
	opt.Dtstart = time.Time{}
	return opt.RRuleString()
}
