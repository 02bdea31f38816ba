package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tazhate/reminders/internal/storage"
)

type scheduled struct {
	Title string
	At    time.Time
}

type fakeNotifier struct {
	mu        sync.Mutex
	seq       int
	armed     map[string]scheduled
	cancelled []string
	calls     int
	failNext  bool
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{armed: make(map[string]scheduled)}
}

func (f *fakeNotifier) Schedule(_ context.Context, title string, at time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.failNext {
		f.failNext = false
		return "", fmt.Errorf("scheduler unavailable")
	}
	f.seq++
	h := fmt.Sprintf("notif-%d", f.seq)
	f.armed[h] = scheduled{Title: title, At: at}
	return h, nil
}

func (f *fakeNotifier) Cancel(_ context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if handle == "" {
		return nil
	}
	f.cancelled = append(f.cancelled, handle)
	delete(f.armed, handle)
	return nil
}

func (f *fakeNotifier) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSender struct {
	mu   sync.Mutex
	sent []Notification
}

func (f *fakeSender) Notify(_ context.Context, n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return nil
}

type failingKV struct {
	storage.KV
}

func (failingKV) Save(context.Context, string, []byte) error {
	return fmt.Errorf("disk full")
}
