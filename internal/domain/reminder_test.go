package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseRepeat(t *testing.T) {
	for _, r := range Repeats {
		got, err := ParseRepeat(string(r))
		require.NoError(t, err)
		require.Equal(t, r, got)
	}

	got, err := ParseRepeat("")
	require.NoError(t, err)
	require.Equal(t, RepeatNever, got)

	_, err = ParseRepeat("daily")
	require.Error(t, err)
}

func TestMergeDateTime(t *testing.T) {
	day := time.Date(2026, 7, 14, 23, 59, 59, 0, time.UTC)
	clock := time.Date(2001, 1, 1, 6, 45, 30, 0, time.UTC)

	require.Equal(t, time.Date(2026, 7, 14, 6, 45, 0, 0, time.UTC), MergeDateTime(day, clock))
}

func TestParamsReminder(t *testing.T) {
	at := time.Date(2026, 7, 14, 6, 45, 0, 0, time.UTC)
	p := Params{Title: "Run", Date: at, Repeat: RepeatDaily, Minutes: 10}

	r := p.Reminder("h-1")
	require.NotEmpty(t, r.ID)
	require.Equal(t, "h-1", r.NotifID)
	require.Equal(t, 0, r.Minutes)

	p.ID = r.ID
	require.Equal(t, r.ID, p.Reminder("h-2").ID)

	p.Repeat = RepeatByMinute
	require.Equal(t, 10, p.Reminder("").Minutes)
}

func TestParamsFor(t *testing.T) {
	r := Reminder{ID: "x", Title: "Run", NotifID: "h", Repeat: RepeatHourly}

	p := ParamsFor(3, r)
	require.False(t, p.IsNew())
	require.Equal(t, 3, *p.Index)
	require.Equal(t, "x", p.ID)
	require.Equal(t, "h", p.NotifID)

	require.True(t, NewParams(time.Now()).IsNew())
}

func TestNewParams(t *testing.T) {
	now := time.Date(2026, 7, 14, 6, 45, 31, 0, time.UTC)
	p := NewParams(now)
	require.Equal(t, time.Date(2026, 7, 14, 7, 45, 0, 0, time.UTC), p.Date)
	require.Equal(t, RepeatNever, p.Repeat)
}
