package scheduler

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/tazhate/reminders/internal/metrics"
)

var ErrPastTrigger = errors.New("trigger time is not in the future")

// FireFunc receives a notification when its trigger time is reached.
type FireFunc func(ctx context.Context, handle, title string)

// Scheduler hands out one-shot notifications on top of a cron runner.
// Handles are opaque and never reused, also across restarts.
type Scheduler struct {
	cron    *cron.Cron
	mu      sync.Mutex
	entries map[string]cron.EntryID
	onFire  FireFunc
	ctx     context.Context
	now     func() time.Time
}

func New(location *time.Location) *Scheduler {
	if location == nil {
		location = time.Local
	}

	c := cron.New(
		cron.WithLocation(location),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)

	return &Scheduler{
		cron:    c,
		entries: make(map[string]cron.EntryID),
		ctx:     context.Background(),
		now:     time.Now,
	}
}

func (s *Scheduler) SetHandler(fn FireFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFire = fn
}

// Start runs the cron loop until ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	log.Printf("Scheduler started (TZ: %s, pending: %d)", s.cron.Location(), s.Pending())

	<-ctx.Done()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}

// Schedule arms a single notification for title at at and returns its handle.
func (s *Scheduler) Schedule(_ context.Context, title string, at time.Time) (string, error) {
	if !at.After(s.now()) {
		return "", ErrPastTrigger
	}

	handle := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.cron.Schedule(&once{at: at}, cron.FuncJob(func() {
		s.fire(handle, title)
	}))
	s.entries[handle] = id

	metrics.Scheduled.Inc()
	return handle, nil
}

// Cancel disarms handle. Empty and unknown handles are ignored.
func (s *Scheduler) Cancel(_ context.Context, handle string) error {
	if handle == "" {
		return nil
	}

	s.mu.Lock()
	id, ok := s.entries[handle]
	delete(s.entries, handle)
	s.mu.Unlock()

	if !ok {
		return nil
	}

	s.cron.Remove(id)
	metrics.Cancelled.Inc()
	return nil
}

// Pending is the number of armed, not yet fired notifications.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Scheduler) fire(handle, title string) {
	s.mu.Lock()
	id, ok := s.entries[handle]
	delete(s.entries, handle)
	fn := s.onFire
	ctx := s.ctx
	s.mu.Unlock()

	if !ok {
		// отменено, пока job уже был запущен
		return
	}
	s.cron.Remove(id)

	if fn == nil {
		log.Printf("Reminder %q fired with no handler", title)
		return
	}
	fn(ctx, handle, title)
}

// once fires at a single instant. cron asks for Next once when the entry is
// added and again after each run; the second answer is zero, which cron
// never runs. A trigger that passed while being added runs right away.
type once struct {
	at   time.Time
	used bool
}

func (o *once) Next(t time.Time) time.Time {
	if o.used {
		return time.Time{}
	}
	o.used = true
	if t.Before(o.at) {
		return o.at
	}
	return t
}
