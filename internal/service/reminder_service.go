package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tazhate/reminders/internal/domain"
	"github.com/tazhate/reminders/internal/metrics"
	"github.com/tazhate/reminders/internal/recurrence"
	"github.com/tazhate/reminders/internal/storage"
)

// Notifier arms and disarms one-shot alerts.
type Notifier interface {
	Schedule(ctx context.Context, title string, at time.Time) (string, error)
	Cancel(ctx context.Context, handle string) error
}

// Notification is what gets delivered when an alert fires.
type Notification struct {
	Title   string
	Message string // set only for reminders that should speak
	At      time.Time
}

type Sender interface {
	Notify(ctx context.Context, n Notification) error
}

// Mirror receives a copy of every saved reminder, e.g. a calendar.
type Mirror interface {
	Upsert(ctx context.Context, r domain.Reminder) error
	Remove(ctx context.Context, r domain.Reminder) error
}

type ReminderService struct {
	store    *storage.Reminders
	notifier Notifier
	sender   Sender
	mirror   Mirror
	timezone *time.Location
	now      func() time.Time

	// serializes load-mutate-save; re-arm runs on the scheduler goroutine
	mu sync.Mutex
}

func NewReminderService(store *storage.Reminders, notifier Notifier, tz *time.Location) *ReminderService {
	if tz == nil {
		tz = time.Local
	}
	return &ReminderService{
		store:    store,
		notifier: notifier,
		timezone: tz,
		now:      time.Now,
	}
}

func (s *ReminderService) SetSender(sender Sender) {
	s.sender = sender
}

func (s *ReminderService) SetMirror(m Mirror) {
	s.mirror = m
}

func (s *ReminderService) Now() time.Time {
	return s.now().In(s.timezone)
}

func (s *ReminderService) Location() *time.Location {
	return s.timezone
}

func (s *ReminderService) List(ctx context.Context) ([]domain.Reminder, error) {
	list, err := s.store.Load(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("load").Inc()
		return nil, fmt.Errorf("load reminders: %w", err)
	}
	return list, nil
}

// Rows is the list screen: every reminder with its labels.
func (s *ReminderService) Rows(ctx context.Context) ([]Row, error) {
	list, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return Rows(list, s.Now()), nil
}

// Save validates the draft, re-arms its notification and writes it back at
// its index (or appends it in create mode). A *ValidationError means nothing
// was touched.
func (s *ReminderService) Save(ctx context.Context, p domain.Params) (*domain.Reminder, error) {
	if err := Validate(p, s.now()); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.notifier.Cancel(ctx, p.NotifID); err != nil {
		log.Printf("Error cancelling notification %s: %v", p.NotifID, err)
	}

	handle, err := s.notifier.Schedule(ctx, p.Title, p.Date)
	if err != nil {
		log.Printf("Error scheduling notification for %q: %v", p.Title, err)
		handle = ""
	}

	rem := p.Reminder(handle)

	list, err := s.store.Load(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("load").Inc()
		s.dropHandle(ctx, handle)
		return nil, fmt.Errorf("load reminders: %w", err)
	}

	var stale string
	if p.IsNew() {
		list = append(list, rem)
	} else {
		i, err := storage.Resolve(list, *p.Index, p.ID)
		if err != nil {
			s.dropHandle(ctx, handle)
			return nil, fmt.Errorf("resolve reminder: %w", err)
		}
		rem.Done = list[i].Done
		if stored := list[i].NotifID; stored != p.NotifID {
			// re-armed after the screen loaded it
			stale = stored
		}
		list[i] = rem
	}

	if err := s.store.Save(ctx, list); err != nil {
		metrics.StoreErrors.WithLabelValues("save").Inc()
		s.dropHandle(ctx, handle)
		return nil, fmt.Errorf("save reminders: %w", err)
	}
	if stale != "" {
		s.dropHandle(ctx, stale)
	}

	s.mirrorUpsert(ctx, rem)
	return &rem, nil
}

// Delete cancels the reminder's notification and removes it from the store.
func (s *ReminderService) Delete(ctx context.Context, p domain.Params) error {
	if p.IsNew() {
		return fmt.Errorf("delete: %w", storage.ErrIndexOutOfRange)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.notifier.Cancel(ctx, p.NotifID); err != nil {
		log.Printf("Error cancelling notification %s: %v", p.NotifID, err)
	}

	list, err := s.store.Load(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("load").Inc()
		return fmt.Errorf("load reminders: %w", err)
	}

	i, err := storage.Resolve(list, *p.Index, p.ID)
	if err != nil {
		return fmt.Errorf("resolve reminder: %w", err)
	}
	removed := list[i]

	list, err = storage.RemoveAt(list, i)
	if err != nil {
		return fmt.Errorf("remove reminder: %w", err)
	}

	if err := s.store.Save(ctx, list); err != nil {
		metrics.StoreErrors.WithLabelValues("save").Inc()
		return fmt.Errorf("save reminders: %w", err)
	}

	if removed.NotifID != p.NotifID {
		// the stored handle moved on since the screen loaded it
		if err := s.notifier.Cancel(ctx, removed.NotifID); err != nil {
			log.Printf("Error cancelling notification %s: %v", removed.NotifID, err)
		}
	}

	if s.mirror != nil {
		if err := s.mirror.Remove(ctx, removed); err != nil {
			log.Printf("Error removing reminder %s from mirror: %v", removed.ID, err)
		}
	}
	return nil
}

// SetDone persists the list checkbox.
func (s *ReminderService) SetDone(ctx context.Context, index int, id string, done bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.store.Load(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("load").Inc()
		return fmt.Errorf("load reminders: %w", err)
	}

	i, err := storage.Resolve(list, index, id)
	if err != nil {
		return fmt.Errorf("resolve reminder: %w", err)
	}
	list[i].Done = done

	if err := s.store.Save(ctx, list); err != nil {
		metrics.StoreErrors.WithLabelValues("save").Inc()
		return fmt.Errorf("save reminders: %w", err)
	}
	return nil
}

// Fire delivers a notification that reached its trigger time and moves a
// repeating reminder to its next occurrence. A handle no stored reminder
// carries any more is dropped.
func (s *ReminderService) Fire(ctx context.Context, handle, title string) {
	n := Notification{Title: title}

	rem, found, err := s.findByHandle(ctx, handle)
	if err != nil {
		// store unreadable: deliver the bare title
		log.Printf("Error looking up fired reminder %q: %v", title, err)
		s.deliver(ctx, n)
		return
	}
	if !found {
		log.Printf("Dropping notification %s for %q: no reminder owns it", handle, title)
		metrics.Delivered.WithLabelValues("orphan").Inc()
		return
	}

	n.At = rem.Date
	if rem.ShouldSpeak {
		n.Message = rem.Message
	}
	s.deliver(ctx, n)

	if rem.IsRepeating() {
		if err := s.rearm(ctx, rem.ID, handle); err != nil {
			log.Printf("Error re-arming reminder %s: %v", rem.ID, err)
		}
	}
}

// Restore arms a notification for every stored reminder. Handles from an
// earlier process are meaningless, so all of them are replaced; repeating
// reminders that were missed roll forward, past one-shots are left unarmed.
func (s *ReminderService) Restore(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.store.Load(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("load").Inc()
		return fmt.Errorf("load reminders: %w", err)
	}

	now := s.now()
	armed := 0
	for i := range list {
		r := &list[i]
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if err := s.notifier.Cancel(ctx, r.NotifID); err != nil {
			log.Printf("Error cancelling notification %s: %v", r.NotifID, err)
		}
		r.NotifID = ""

		if !r.Date.After(now) {
			next, ok, err := recurrence.Next(*r, now)
			if err != nil {
				log.Printf("Error computing next run for %s: %v", r.ID, err)
				continue
			}
			if !ok {
				continue
			}
			r.Date = next
		}

		handle, err := s.notifier.Schedule(ctx, r.Title, r.Date)
		if err != nil {
			log.Printf("Error scheduling notification for %q: %v", r.Title, err)
			continue
		}
		r.NotifID = handle
		armed++
	}

	if err := s.store.Save(ctx, list); err != nil {
		metrics.StoreErrors.WithLabelValues("save").Inc()
		return fmt.Errorf("save reminders: %w", err)
	}

	log.Printf("Restored %d of %d reminders", armed, len(list))
	return nil
}

func (s *ReminderService) findByHandle(ctx context.Context, handle string) (domain.Reminder, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.store.Load(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("load").Inc()
		return domain.Reminder{}, false, err
	}
	for _, r := range list {
		if handle != "" && r.NotifID == handle {
			return r, true, nil
		}
	}
	return domain.Reminder{}, false, nil
}

func (s *ReminderService) deliver(ctx context.Context, n Notification) {
	if s.sender == nil {
		log.Printf("Reminder: %s", n.Title)
		metrics.Delivered.WithLabelValues("log").Inc()
		return
	}
	if err := s.sender.Notify(ctx, n); err != nil {
		log.Printf("Error delivering reminder %q: %v", n.Title, err)
		metrics.Delivered.WithLabelValues("error").Inc()
		return
	}
	metrics.Delivered.WithLabelValues("ok").Inc()
}

func (s *ReminderService) rearm(ctx context.Context, id, firedHandle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.store.Load(ctx)
	if err != nil {
		metrics.StoreErrors.WithLabelValues("load").Inc()
		return fmt.Errorf("load reminders: %w", err)
	}

	i := storage.IndexOf(list, id)
	if i < 0 || list[i].NotifID != firedHandle {
		// deleted or edited after it fired
		return nil
	}

	next, ok, err := recurrence.Next(list[i], s.now())
	if err != nil {
		return fmt.Errorf("next occurrence: %w", err)
	}
	if !ok {
		return nil
	}

	handle, err := s.notifier.Schedule(ctx, list[i].Title, next)
	if err != nil {
		return fmt.Errorf("schedule next: %w", err)
	}

	list[i].Date = next
	list[i].NotifID = handle
	list[i].Done = false

	if err := s.store.Save(ctx, list); err != nil {
		metrics.StoreErrors.WithLabelValues("save").Inc()
		s.dropHandle(ctx, handle)
		return fmt.Errorf("save reminders: %w", err)
	}

	metrics.Rearmed.Inc()
	return nil
}

func (s *ReminderService) dropHandle(ctx context.Context, handle string) {
	if err := s.notifier.Cancel(ctx, handle); err != nil {
		log.Printf("Error cancelling notification %s: %v", handle, err)
	}
}

func (s *ReminderService) mirrorUpsert(ctx context.Context, r domain.Reminder) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.Upsert(ctx, r); err != nil {
		log.Printf("Error mirroring reminder %s: %v", r.ID, err)
	}
}
