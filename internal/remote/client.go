// Package remote talks to a running daemon's REST API. `remind` uses it
// when the daemon owns the store, so scheduling stays in one process.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tazhate/reminders/internal/bot"
	"github.com/tazhate/reminders/internal/domain"
	"github.com/tazhate/reminders/internal/service"
	"github.com/tazhate/reminders/internal/storage"
)

type Client struct {
	baseURL  string
	username string
	password string
	loc      *time.Location
	client   *http.Client
}

func New(baseURL, username, password string, loc *time.Location) *Client {
	if loc == nil {
		loc = time.Local
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		loc:      loc,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *Client) List(ctx context.Context) ([]domain.Reminder, error) {
	var resp []bot.ReminderResponse
	if err := c.do(ctx, http.MethodGet, "/api/reminders", nil, &resp); err != nil {
		return nil, err
	}

	list := make([]domain.Reminder, 0, len(resp))
	for _, r := range resp {
		rem, err := toReminder(r)
		if err != nil {
			return nil, err
		}
		list = append(list, rem)
	}
	return list, nil
}

func (c *Client) Rows(ctx context.Context) ([]service.Row, error) {
	list, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	return service.Rows(list, c.Now()), nil
}

// Save creates or updates through the daemon. Validation runs here first so
// the alert is the same as for a local save; the daemon checks again.
func (c *Client) Save(ctx context.Context, p domain.Params) (*domain.Reminder, error) {
	if err := service.Validate(p, time.Now()); err != nil {
		return nil, err
	}

	date := p.Date.Format(time.RFC3339)
	repeat := string(p.Repeat)
	req := bot.ReminderRequest{
		ID:          p.ID,
		Title:       &p.Title,
		Date:        &date,
		ShouldSpeak: &p.ShouldSpeak,
		Message:     &p.Message,
		Repeat:      &repeat,
		Minutes:     &p.Minutes,
	}

	method, path := http.MethodPost, "/api/reminders"
	if !p.IsNew() {
		method, path = http.MethodPut, fmt.Sprintf("/api/reminder/%d", *p.Index)
	}

	var resp bot.ReminderResponse
	if err := c.do(ctx, method, path, req, &resp); err != nil {
		return nil, err
	}
	rem, err := toReminder(resp)
	if err != nil {
		return nil, err
	}
	return &rem, nil
}

func (c *Client) Delete(ctx context.Context, p domain.Params) error {
	if p.IsNew() {
		return fmt.Errorf("delete: %w", storage.ErrIndexOutOfRange)
	}
	path := fmt.Sprintf("/api/reminder/%d", *p.Index)
	if p.ID != "" {
		path += "?id=" + url.QueryEscape(p.ID)
	}
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) SetDone(ctx context.Context, index int, id string, done bool) error {
	req := bot.ReminderRequest{ID: id, Done: &done}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/reminder/%d", index), req, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.username, c.password)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("reach daemon: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var apiResp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return fmt.Errorf("daemon API %s %s: %s", method, path, strings.TrimSpace(string(respBody)))
	}

	if !apiResp.Success {
		switch resp.StatusCode {
		case http.StatusBadRequest:
			return service.AlertError(apiResp.Error)
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", apiResp.Error, storage.ErrReminderGone)
		default:
			return fmt.Errorf("daemon API %s %s: %s", method, path, apiResp.Error)
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(apiResp.Data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func toReminder(r bot.ReminderResponse) (domain.Reminder, error) {
	at, err := time.Parse(time.RFC3339, r.Date)
	if err != nil {
		return domain.Reminder{}, fmt.Errorf("decode reminder %s date: %w", r.ID, err)
	}
	return domain.Reminder{
		ID:          r.ID,
		Title:       r.Title,
		Date:        at,
		NotifID:     r.NotifID,
		ShouldSpeak: r.ShouldSpeak,
		Message:     r.Message,
		Repeat:      domain.Repeat(r.Repeat),
		Minutes:     r.Minutes,
		Done:        r.Done,
	}, nil
}
