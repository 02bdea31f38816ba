package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tazhate/reminders/internal/domain"
)

func TestNextDaily(t *testing.T) {
	start := time.Date(2026, 3, 5, 9, 30, 0, 0, time.UTC)
	r := domain.Reminder{Date: start, Repeat: domain.RepeatDaily}

	next, ok, err := Next(r, start.Add(time.Minute))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, start.AddDate(0, 0, 1), next)
}

func TestNextSkipsMissedOccurrences(t *testing.T) {
	start := time.Date(2026, 3, 5, 9, 30, 0, 0, time.UTC)
	r := domain.Reminder{Date: start, Repeat: domain.RepeatWeekly}

	next, ok, err := Next(r, start.AddDate(0, 0, 20))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, start.AddDate(0, 0, 21), next)
}

func TestNextByMinute(t *testing.T) {
	start := time.Date(2026, 3, 5, 9, 30, 0, 0, time.UTC)
	r := domain.Reminder{Date: start, Repeat: domain.RepeatByMinute, Minutes: 15}

	next, ok, err := Next(r, start)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, start.Add(15*time.Minute), next)
}

func TestNextNever(t *testing.T) {
	r := domain.Reminder{Date: time.Now(), Repeat: domain.RepeatNever}

	_, ok, err := Next(r, time.Now())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestNextRejectsZeroInterval(t *testing.T) {
	r := domain.Reminder{Date: time.Now(), Repeat: domain.RepeatByMinute}

	_, _, err := Next(r, time.Now())
	require.Error(t, err)
}

func TestRRule(t *testing.T) {
	require.Equal(t, "", RRule(domain.Reminder{Repeat: domain.RepeatNever}))
	require.Contains(t, RRule(domain.Reminder{Repeat: domain.RepeatMonthly}), "FREQ=MONTHLY")

	rule := RRule(domain.Reminder{Repeat: domain.RepeatByMinute, Minutes: 5})
	require.Contains(t, rule, "FREQ=MINUTELY")
	require.Contains(t, rule, "INTERVAL=5")
	require.NotContains(t, rule, "DTSTART")
}
