package bot

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tazhate/reminders/internal/domain"
	"github.com/tazhate/reminders/internal/service"
	"github.com/tazhate/reminders/internal/storage"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type ReminderResponse struct {
	Index       int    `json:"index"`
	ID          string `json:"id"`
	Title       string `json:"title"`
	Date        string `json:"date"`
	NotifID     string `json:"notif_id"`
	ShouldSpeak bool   `json:"should_speak"`
	Message     string `json:"message,omitempty"`
	Repeat      string `json:"repeat"`
	Minutes     int    `json:"minutes,omitempty"`
	Done        bool   `json:"done"`
	DateLabel   string `json:"date_label"`
	TimeLabel   string `json:"time_label"`
	RepeatLabel string `json:"repeat_label,omitempty"`
	Overdue     bool   `json:"overdue"`
}

// ReminderRequest is the body of create and update calls. On update only the
// fields present are changed.
type ReminderRequest struct {
	ID          string  `json:"id,omitempty"`
	Title       *string `json:"title"`
	Date        *string `json:"date"`
	ShouldSpeak *bool   `json:"should_speak"`
	Message     *string `json:"message"`
	Repeat      *string `json:"repeat"`
	Minutes     *int    `json:"minutes"`
	Done        *bool   `json:"done"`
}

func (req ReminderRequest) edits() bool {
	return req.Title != nil || req.Date != nil || req.ShouldSpeak != nil ||
		req.Message != nil || req.Repeat != nil || req.Minutes != nil
}

func rowToResponse(row service.Row) ReminderResponse {
	r := row.Reminder
	return ReminderResponse{
		Index:       row.Index,
		ID:          r.ID,
		Title:       r.Title,
		Date:        r.Date.Format(time.RFC3339),
		NotifID:     r.NotifID,
		ShouldSpeak: r.ShouldSpeak,
		Message:     r.Message,
		Repeat:      string(r.Repeat),
		Minutes:     r.Minutes,
		Done:        r.Done,
		DateLabel:   row.DateLabel,
		TimeLabel:   row.TimeLabel,
		RepeatLabel: row.RepeatLabel,
		Overdue:     row.Overdue,
	}
}

func (b *Bot) SetupAPI() {
	if !b.cfg.APIEnabled() {
		return // API disabled if no credentials
	}

	b.mux.HandleFunc("/api/reminders", b.basicAuth(b.apiReminders))
	b.mux.HandleFunc("/api/reminder/", b.basicAuth(b.apiReminder))
}

func (b *Bot) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username, password, ok := r.BasicAuth()
		if !ok || username != b.cfg.APIUsername || password != b.cfg.APIPassword {
			w.Header().Set("WWW-Authenticate", `Basic realm="Reminders API"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (b *Bot) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(APIResponse{Success: true, Data: data})
}

func (b *Bot) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(APIResponse{Success: false, Error: message})
}

// serviceError maps service failures onto status codes.
func (b *Bot) serviceError(w http.ResponseWriter, err error) {
	switch {
	case service.IsValidation(err):
		b.jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, storage.ErrIndexOutOfRange), errors.Is(err, storage.ErrReminderGone):
		b.jsonError(w, "Reminder not found", http.StatusNotFound)
	default:
		log.Printf("Error in reminders API: %v", err)
		b.jsonError(w, "Internal error", http.StatusInternalServerError)
	}
}

// GET /api/reminders, POST /api/reminders
func (b *Bot) apiReminders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rows, err := b.reminderService.Rows(r.Context())
		if err != nil {
			b.serviceError(w, err)
			return
		}
		resp := make([]ReminderResponse, 0, len(rows))
		for _, row := range rows {
			resp = append(resp, rowToResponse(row))
		}
		b.jsonResponse(w, resp)

	case http.MethodPost:
		var req ReminderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			b.jsonError(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		p := domain.NewParams(b.reminderService.Now())
		if err := b.applyRequest(&p, req); err != nil {
			b.jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}

		rem, err := b.reminderService.Save(r.Context(), p)
		if err != nil {
			b.serviceError(w, err)
			return
		}

		b.respondReminder(w, r, rem.ID)

	default:
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// PUT /api/reminder/{index}, DELETE /api/reminder/{index}[?id=]
func (b *Bot) apiReminder(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/reminder/")
	index, err := strconv.Atoi(path)
	if err != nil || index < 0 {
		b.jsonError(w, "Invalid reminder index", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	switch r.Method {
	case http.MethodPut:
		var req ReminderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			b.jsonError(w, "Invalid JSON", http.StatusBadRequest)
			return
		}

		list, err := b.reminderService.List(ctx)
		if err != nil {
			b.serviceError(w, err)
			return
		}
		i, err := storage.Resolve(list, index, req.ID)
		if err != nil {
			b.serviceError(w, err)
			return
		}
		current := list[i]

		if req.edits() {
			p := domain.ParamsFor(i, current)
			if err := b.applyRequest(&p, req); err != nil {
				b.jsonError(w, err.Error(), http.StatusBadRequest)
				return
			}
			if _, err := b.reminderService.Save(ctx, p); err != nil {
				b.serviceError(w, err)
				return
			}
		}

		if req.Done != nil {
			if err := b.reminderService.SetDone(ctx, i, current.ID, *req.Done); err != nil {
				b.serviceError(w, err)
				return
			}
		}

		b.respondReminder(w, r, current.ID)

	case http.MethodDelete:
		list, err := b.reminderService.List(ctx)
		if err != nil {
			b.serviceError(w, err)
			return
		}
		// ?id= guards against a list that changed since the caller read it
		i, err := storage.Resolve(list, index, r.URL.Query().Get("id"))
		if err != nil {
			b.serviceError(w, err)
			return
		}

		if err := b.reminderService.Delete(ctx, domain.ParamsFor(i, list[i])); err != nil {
			b.serviceError(w, err)
			return
		}
		b.jsonResponse(w, map[string]string{"status": "deleted"})

	default:
		b.jsonError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (b *Bot) respondReminder(w http.ResponseWriter, r *http.Request, id string) {
	rows, err := b.reminderService.Rows(r.Context())
	if err != nil {
		b.serviceError(w, err)
		return
	}
	for _, row := range rows {
		if row.Reminder.ID == id {
			b.jsonResponse(w, rowToResponse(row))
			return
		}
	}
	b.jsonError(w, "Reminder not found", http.StatusNotFound)
}

func (b *Bot) applyRequest(p *domain.Params, req ReminderRequest) error {
	if req.Title != nil {
		p.Title = *req.Title
	}
	if req.Date != nil {
		at, err := parseAPIDate(*req.Date, b.reminderService.Location())
		if err != nil {
			return err
		}
		p.Date = at
	}
	if req.ShouldSpeak != nil {
		p.ShouldSpeak = *req.ShouldSpeak
	}
	if req.Message != nil {
		p.Message = *req.Message
	}
	if req.Repeat != nil {
		p.Repeat = domain.Repeat(*req.Repeat)
	}
	if req.Minutes != nil {
		p.Minutes = *req.Minutes
	}
	return nil
}

// parseAPIDate accepts RFC 3339 or "YYYY-MM-DD HH:MM" in loc.
func parseAPIDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, errors.New("date must be RFC 3339 or YYYY-MM-DD HH:MM")
}
