package caldav

import "time"

// Calendar represents a calendar collection on the server
type Calendar struct {
	ID          string // Calendar path
	DisplayName string
}

// Event is the VEVENT a reminder is mirrored as
type Event struct {
	UID          string // reminder id
	Summary      string
	Description  string
	StartTime    time.Time
	RRule        string // e.g. "FREQ=WEEKLY;INTERVAL=1"
	AlarmMessage string // VALARM description; empty means no alarm
}
