package caldav

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"

	"github.com/tazhate/reminders/internal/domain"
	"github.com/tazhate/reminders/internal/recurrence"
)

const (
	// Apple iCloud CalDAV endpoint
	DefaultiCloudURL = "https://caldav.icloud.com"

	productID = "-//Reminders//CalDAV//EN"
)

// Client mirrors reminders into a CalDAV calendar
type Client struct {
	baseURL    string
	username   string
	password   string
	calendarID string

	mu     sync.Mutex
	client *caldav.Client
}

// NewClient creates a new CalDAV client
func NewClient(baseURL, username, password string) *Client {
	if baseURL == "" {
		baseURL = DefaultiCloudURL
	}
	return &Client{
		baseURL:  baseURL,
		username: username,
		password: password,
	}
}

// IsConfigured returns true if the client has credentials
func (c *Client) IsConfigured() bool {
	return c.username != "" && c.password != ""
}

// SetCalendarID sets the calendar reminders are written to
func (c *Client) SetCalendarID(id string) {
	c.calendarID = id
}

func (c *Client) connect() (*caldav.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client != nil {
		return c.client, nil
	}

	httpClient := &http.Client{
		Transport: &basicAuthTransport{
			username: c.username,
			password: c.password,
		},
		Timeout: 30 * time.Second,
	}

	client, err := caldav.NewClient(httpClient, c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to CalDAV: %w", err)
	}

	c.client = client
	return client, nil
}

// basicAuthTransport adds Basic Auth to HTTP requests
type basicAuthTransport struct {
	username string
	password string
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.SetBasicAuth(t.username, t.password)
	return http.DefaultTransport.RoundTrip(req)
}

// DiscoverCalendars returns all calendars for the user
func (c *Client) DiscoverCalendars(ctx context.Context) ([]Calendar, error) {
	client, err := c.connect()
	if err != nil {
		return nil, err
	}

	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return nil, fmt.Errorf("find principal: %w", err)
	}

	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return nil, fmt.Errorf("find home set: %w", err)
	}

	cals, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return nil, fmt.Errorf("find calendars: %w", err)
	}

	var result []Calendar
	for _, cal := range cals {
		result = append(result, Calendar{
			ID:          cal.Path,
			DisplayName: cal.Name,
		})
	}

	return result, nil
}

// Upsert writes the reminder as an event. PUT replaces an existing one.
func (c *Client) Upsert(ctx context.Context, r domain.Reminder) error {
	client, err := c.connect()
	if err != nil {
		return err
	}

	path, err := c.eventPath(r.ID)
	if err != nil {
		return err
	}

	if _, err := client.PutCalendarObject(ctx, path, eventToICS(ReminderEvent(r))); err != nil {
		return fmt.Errorf("put event: %w", err)
	}
	return nil
}

// Remove deletes the reminder's event
func (c *Client) Remove(ctx context.Context, r domain.Reminder) error {
	client, err := c.connect()
	if err != nil {
		return err
	}

	path, err := c.eventPath(r.ID)
	if err != nil {
		return err
	}

	if err := client.RemoveAll(ctx, path); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}

func (c *Client) eventPath(uid string) (string, error) {
	if c.calendarID == "" {
		return "", fmt.Errorf("calendar path not specified")
	}
	if uid == "" {
		return "", fmt.Errorf("reminder has no id")
	}

	path := c.calendarID
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	return path + uid + ".ics", nil
}

// ReminderEvent maps a reminder onto a calendar event
func ReminderEvent(r domain.Reminder) *Event {
	e := &Event{
		UID:       r.ID,
		Summary:   r.Title,
		StartTime: r.Date,
		RRule:     recurrence.RRule(r),
	}
	if r.ShouldSpeak {
		e.Description = r.Message
	}
	e.AlarmMessage = r.Title
	if e.Description != "" {
		e.AlarmMessage = e.Description
	}
	return e
}

// eventToICS converts an Event to iCalendar format
func eventToICS(event *Event) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	vevent := ical.NewEvent()
	vevent.Props.SetText(ical.PropUID, event.UID)
	vevent.Props.SetText(ical.PropSummary, event.Summary)

	if event.Description != "" {
		vevent.Props.SetText(ical.PropDescription, event.Description)
	}

	// UTC with Z suffix, no VTIMEZONE needed
	vevent.Props.SetDateTime(ical.PropDateTimeStart, event.StartTime.UTC())
	vevent.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())

	if event.RRule != "" {
		// raw value: SetText would escape the semicolons
		prop := ical.NewProp(ical.PropRecurrenceRule)
		prop.Value = event.RRule
		vevent.Props.Set(prop)
	}

	if event.AlarmMessage != "" {
		alarm := ical.NewComponent(ical.CompAlarm)
		alarm.Props.SetText(ical.PropAction, "DISPLAY")
		alarm.Props.SetText(ical.PropDescription, event.AlarmMessage)
		trigger := ical.NewProp(ical.PropTrigger)
		trigger.Value = "PT0S"
		alarm.Props.Set(trigger)
		vevent.Children = append(vevent.Children, alarm)
	}

	cal.Children = append(cal.Children, vevent.Component)
	return cal
}

// SerializeCalendar converts calendar to string (for debugging)
func SerializeCalendar(cal *ical.Calendar) string {
	var buf bytes.Buffer
	enc := ical.NewEncoder(&buf)
	_ = enc.Encode(cal)
	return buf.String()
}
