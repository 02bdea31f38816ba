package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type firedLog struct {
	mu     sync.Mutex
	titles []string
	handle []string
}

func (f *firedLog) record(_ context.Context, handle, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.titles = append(f.titles, title)
	f.handle = append(f.handle, handle)
}

func (f *firedLog) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.titles)
}

func startScheduler(t *testing.T) (*Scheduler, *firedLog) {
	t.Helper()
	s := New(time.UTC)
	fired := &firedLog{}
	s.SetHandler(fired.record)

	ctx, cancel := context.WithCancel(context.Background())
	go s.Start(ctx)
	t.Cleanup(func() {
		cancel()
		s.Stop()
	})
	return s, fired
}

func TestScheduleFiresOnce(t *testing.T) {
	s, fired := startScheduler(t)

	handle, err := s.Schedule(context.Background(), "stretch", time.Now().Add(150*time.Millisecond))
	require.NoError(t, err)
	require.NotEmpty(t, handle)
	require.Equal(t, 1, s.Pending())

	require.Eventually(t, func() bool { return fired.count() == 1 }, 3*time.Second, 20*time.Millisecond)

	fired.mu.Lock()
	require.Equal(t, []string{"stretch"}, fired.titles)
	require.Equal(t, []string{handle}, fired.handle)
	fired.mu.Unlock()
	require.Equal(t, 0, s.Pending())
}

func TestCancelPreventsFiring(t *testing.T) {
	s, fired := startScheduler(t)

	handle, err := s.Schedule(context.Background(), "tea", time.Now().Add(300*time.Millisecond))
	require.NoError(t, err)
	require.NoError(t, s.Cancel(context.Background(), handle))
	require.Equal(t, 0, s.Pending())

	time.Sleep(600 * time.Millisecond)
	require.Equal(t, 0, fired.count())
}

func TestCancelUnknownHandle(t *testing.T) {
	s := New(time.UTC)

	require.NoError(t, s.Cancel(context.Background(), ""))
	require.NoError(t, s.Cancel(context.Background(), "no-such-handle"))
}

func TestScheduleRejectsPast(t *testing.T) {
	s := New(time.UTC)

	_, err := s.Schedule(context.Background(), "late", time.Now().Add(-time.Minute))
	require.ErrorIs(t, err, ErrPastTrigger)
	require.Equal(t, 0, s.Pending())
}

func TestHandlesAreUnique(t *testing.T) {
	s := New(time.UTC)
	at := time.Now().Add(time.Hour)

	a, err := s.Schedule(context.Background(), "a", at)
	require.NoError(t, err)
	b, err := s.Schedule(context.Background(), "a", at)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestOnceNext(t *testing.T) {
	at := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	o := &once{at: at}
	require.Equal(t, at, o.Next(at.Add(-time.Second)))
	require.True(t, o.Next(at).IsZero())
	require.True(t, o.Next(at.Add(time.Second)).IsZero())

	late := &once{at: at}
	now := at.Add(time.Millisecond)
	require.Equal(t, now, late.Next(now))
	require.True(t, late.Next(now.Add(time.Second)).IsZero())
}

func TestTriggerPassedWhileAddingStillFires(t *testing.T) {
	s, fired := startScheduler(t)

	// the past check sees a clock a minute behind the cron runner's
	at := time.Now().Add(-time.Second)
	s.now = func() time.Time { return at.Add(-time.Minute) }

	handle, err := s.Schedule(context.Background(), "late", at)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return fired.count() == 1 }, 3*time.Second, 20*time.Millisecond)
	fired.mu.Lock()
	require.Equal(t, []string{handle}, fired.handle)
	fired.mu.Unlock()
	require.Equal(t, 0, s.Pending())
}
