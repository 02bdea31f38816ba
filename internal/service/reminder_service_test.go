package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tazhate/reminders/internal/domain"
	"github.com/tazhate/reminders/internal/storage"
)

var testNow = time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*ReminderService, *storage.Reminders, *fakeNotifier) {
	t.Helper()
	store := storage.NewReminders(storage.NewMemory())
	notifier := newFakeNotifier()
	svc := NewReminderService(store, notifier, time.UTC)
	svc.now = func() time.Time { return testNow }
	return svc, store, notifier
}

func draft(title string, at time.Time) domain.Params {
	return domain.Params{Title: title, Date: at, Repeat: domain.RepeatNever}
}

func TestSaveCreatesReminder(t *testing.T) {
	ctx := context.Background()
	svc, store, notifier := newTestService(t)

	p := draft("Water plants", testNow.Add(2*time.Hour))
	p.ShouldSpeak = true
	p.Message = "the ferns too"
	p.Repeat = domain.RepeatDaily

	saved, err := svc.Save(ctx, p)
	require.NoError(t, err)

	list, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got := list[0]
	require.Equal(t, "Water plants", got.Title)
	require.True(t, got.Date.Equal(p.Date))
	require.True(t, got.ShouldSpeak)
	require.Equal(t, "the ferns too", got.Message)
	require.Equal(t, domain.RepeatDaily, got.Repeat)
	require.NotEmpty(t, got.ID)
	require.NotEmpty(t, got.NotifID)
	require.Equal(t, saved.NotifID, got.NotifID)
	require.Equal(t, scheduled{Title: "Water plants", At: p.Date}, notifier.armed[got.NotifID])
}

func TestSaveExistingReplacesHandle(t *testing.T) {
	ctx := context.Background()
	svc, store, notifier := newTestService(t)

	first, err := svc.Save(ctx, draft("Call mom", testNow.Add(time.Hour)))
	require.NoError(t, err)

	list, err := store.Load(ctx)
	require.NoError(t, err)
	p := domain.ParamsFor(0, list[0])
	p.Title = "Call mom back"
	p.Date = testNow.Add(3 * time.Hour)

	second, err := svc.Save(ctx, p)
	require.NoError(t, err)
	require.NotEqual(t, first.NotifID, second.NotifID)
	require.Equal(t, first.ID, second.ID)
	require.Contains(t, notifier.cancelled, first.NotifID)
	require.NotContains(t, notifier.armed, first.NotifID)

	list, err = store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Call mom back", list[0].Title)
	require.Equal(t, second.NotifID, list[0].NotifID)
}

func TestSaveValidationTouchesNothing(t *testing.T) {
	cases := []struct {
		name string
		p    domain.Params
		want error
	}{
		{"empty title", draft("", testNow.Add(time.Hour)), ErrEmptyTitle},
		{"blank title", draft("   ", testNow.Add(time.Hour)), ErrEmptyTitle},
		{"past date", draft("Late", testNow.Add(-time.Minute)), ErrPastDate},
		{"now is not future", draft("Now", testNow), ErrPastDate},
		{"speak without message", domain.Params{Title: "Speak", Date: testNow.Add(time.Hour), ShouldSpeak: true}, ErrEmptyMessage},
		{"zero interval", domain.Params{Title: "Tick", Date: testNow.Add(time.Hour), Repeat: domain.RepeatByMinute}, ErrBadInterval},
		{"unknown repeat", domain.Params{Title: "Odd", Date: testNow.Add(time.Hour), Repeat: "Fortnightly"}, ErrUnknownRepeat},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			svc, store, notifier := newTestService(t)

			existing := domain.Reminder{ID: "keep", Title: "Existing", Date: testNow.Add(time.Hour), NotifID: "old", Repeat: domain.RepeatNever}
			require.NoError(t, store.Save(ctx, []domain.Reminder{existing}))

			p := tc.p
			idx := 0
			p.Index = &idx
			p.ID = "keep"
			p.NotifID = "old"

			_, err := svc.Save(ctx, p)
			require.ErrorIs(t, err, tc.want)
			require.True(t, IsValidation(err))
			require.Equal(t, 0, notifier.callCount())

			list, err := store.Load(ctx)
			require.NoError(t, err)
			require.Equal(t, []domain.Reminder{existing}, list)
		})
	}
}

func TestValidationAlertText(t *testing.T) {
	err := Validate(draft("", testNow.Add(time.Hour)), testNow)
	require.EqualError(t, err, "Please enter a title.")

	err = Validate(draft("x", testNow.Add(-time.Hour)), testNow)
	require.EqualError(t, err, "Please choose a date in the future.")
}

func TestSaveKeepsDraftWhenStoreFails(t *testing.T) {
	ctx := context.Background()
	notifier := newFakeNotifier()
	svc := NewReminderService(storage.NewReminders(failingKV{storage.NewMemory()}), notifier, time.UTC)
	svc.now = func() time.Time { return testNow }

	_, err := svc.Save(ctx, draft("Pay rent", testNow.Add(time.Hour)))
	require.Error(t, err)
	require.False(t, IsValidation(err))
	require.Empty(t, notifier.armed)
}

func TestSaveWithSchedulerFailureStillStores(t *testing.T) {
	ctx := context.Background()
	svc, store, notifier := newTestService(t)
	notifier.failNext = true

	saved, err := svc.Save(ctx, draft("Offline", testNow.Add(time.Hour)))
	require.NoError(t, err)
	require.Empty(t, saved.NotifID)

	list, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestSaveResolvesMovedReminderByID(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	a := domain.Reminder{ID: "a", Title: "A", Date: testNow.Add(time.Hour), Repeat: domain.RepeatNever}
	b := domain.Reminder{ID: "b", Title: "B", Date: testNow.Add(time.Hour), Repeat: domain.RepeatNever}
	require.NoError(t, store.Save(ctx, []domain.Reminder{a, b}))

	p := domain.ParamsFor(1, b)

	// someone removed A after the screen loaded, B is now at 0
	require.NoError(t, store.Delete(ctx, 0))

	p.Title = "B edited"
	_, err := svc.Save(ctx, p)
	require.NoError(t, err)

	list, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "B edited", list[0].Title)
}

func TestSaveGoneReminder(t *testing.T) {
	ctx := context.Background()
	svc, store, notifier := newTestService(t)
	require.NoError(t, store.Save(ctx, []domain.Reminder{{ID: "other", Title: "Other", Date: testNow.Add(time.Hour)}}))

	idx := 0
	p := draft("Ghost", testNow.Add(time.Hour))
	p.Index = &idx
	p.ID = "ghost"

	_, err := svc.Save(ctx, p)
	require.ErrorIs(t, err, storage.ErrReminderGone)
	require.Empty(t, notifier.armed)

	list, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "Other", list[0].Title)
}

func TestDeleteRemovesOneKeepsOrder(t *testing.T) {
	ctx := context.Background()
	svc, store, notifier := newTestService(t)

	var list []domain.Reminder
	for _, title := range []string{"one", "two", "three", "four"} {
		r, err := svc.Save(ctx, draft(title, testNow.Add(time.Hour)))
		require.NoError(t, err)
		list = append(list, *r)
	}

	require.NoError(t, svc.Delete(ctx, domain.ParamsFor(1, list[1])))
	require.Contains(t, notifier.cancelled, list[1].NotifID)

	got, err := store.Load(ctx)
	require.NoError(t, err)
	var titles []string
	for _, r := range got {
		titles = append(titles, r.Title)
	}
	require.Equal(t, []string{"one", "three", "four"}, titles)
}

func TestDeleteNewDraft(t *testing.T) {
	svc, _, _ := newTestService(t)
	require.ErrorIs(t, svc.Delete(context.Background(), draft("x", testNow)), storage.ErrIndexOutOfRange)
}

func TestSetDone(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	r, err := svc.Save(ctx, draft("Stretch", testNow.Add(time.Hour)))
	require.NoError(t, err)
	require.NoError(t, svc.SetDone(ctx, 0, r.ID, true))

	got, err := store.Get(ctx, 0)
	require.NoError(t, err)
	require.True(t, got.Done)

	// editing keeps the checkbox
	p := domain.ParamsFor(0, *got)
	p.Title = "Stretch more"
	_, err = svc.Save(ctx, p)
	require.NoError(t, err)

	got, err = store.Get(ctx, 0)
	require.NoError(t, err)
	require.True(t, got.Done)
}

func TestFireDeliversAndRearmsDaily(t *testing.T) {
	ctx := context.Background()
	svc, store, notifier := newTestService(t)
	sender := &fakeSender{}
	svc.SetSender(sender)

	p := draft("Vitamins", testNow.Add(time.Hour))
	p.Repeat = domain.RepeatDaily
	p.ShouldSpeak = true
	p.Message = "with breakfast"
	r, err := svc.Save(ctx, p)
	require.NoError(t, err)

	fired := testNow.Add(time.Hour)
	svc.now = func() time.Time { return fired }
	delete(notifier.armed, r.NotifID)
	svc.Fire(ctx, r.NotifID, r.Title)

	require.Len(t, sender.sent, 1)
	require.Equal(t, "Vitamins", sender.sent[0].Title)
	require.Equal(t, "with breakfast", sender.sent[0].Message)

	got, err := store.Get(ctx, 0)
	require.NoError(t, err)
	require.True(t, got.Date.Equal(r.Date.AddDate(0, 0, 1)))
	require.NotEqual(t, r.NotifID, got.NotifID)
	require.Contains(t, notifier.armed, got.NotifID)
}

func TestFireNeverLeavesRecord(t *testing.T) {
	ctx := context.Background()
	svc, store, notifier := newTestService(t)
	sender := &fakeSender{}
	svc.SetSender(sender)

	r, err := svc.Save(ctx, draft("Dentist", testNow.Add(time.Hour)))
	require.NoError(t, err)

	svc.now = func() time.Time { return testNow.Add(time.Hour) }
	before := notifier.callCount()
	svc.Fire(ctx, r.NotifID, r.Title)

	require.Len(t, sender.sent, 1)
	require.Empty(t, sender.sent[0].Message)
	require.Equal(t, before, notifier.callCount())

	got, err := store.Get(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, *r, *got)
}

func TestFireAfterEditDoesNotRearm(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newTestService(t)

	p := draft("Standup", testNow.Add(time.Hour))
	p.Repeat = domain.RepeatHourly
	r, err := svc.Save(ctx, p)
	require.NoError(t, err)

	edited := domain.ParamsFor(0, *r)
	edited.Date = testNow.Add(5 * time.Hour)
	e, err := svc.Save(ctx, edited)
	require.NoError(t, err)

	// the old handle fires late; it no longer belongs to any reminder
	svc.Fire(ctx, r.NotifID, r.Title)

	got, err := store.Get(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, e.NotifID, got.NotifID)
	require.True(t, got.Date.Equal(e.Date))
}

func TestSaveStaleDraftAfterRearm(t *testing.T) {
	ctx := context.Background()
	svc, store, notifier := newTestService(t)
	sender := &fakeSender{}
	svc.SetSender(sender)

	p := draft("Vitamins", testNow.Add(time.Hour))
	p.Repeat = domain.RepeatDaily
	r, err := svc.Save(ctx, p)
	require.NoError(t, err)

	// the edit screen is opened before the reminder fires
	stale := domain.ParamsFor(0, *r)

	fired := testNow.Add(time.Hour)
	svc.now = func() time.Time { return fired }
	delete(notifier.armed, r.NotifID)
	svc.Fire(ctx, r.NotifID, r.Title)
	require.Len(t, sender.sent, 1)

	rearmed, err := store.Get(ctx, 0)
	require.NoError(t, err)
	require.Contains(t, notifier.armed, rearmed.NotifID)

	stale.Title = "Vitamin D"
	stale.Date = fired.Add(2 * time.Hour)
	e, err := svc.Save(ctx, stale)
	require.NoError(t, err)

	require.NotContains(t, notifier.armed, rearmed.NotifID)
	require.Contains(t, notifier.armed, e.NotifID)
	require.Len(t, notifier.armed, 1)

	// a late fire of the re-armed handle finds no owner
	svc.Fire(ctx, rearmed.NotifID, rearmed.Title)
	require.Len(t, sender.sent, 1)

	got, err := store.Get(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, e.NotifID, got.NotifID)
	require.Equal(t, "Vitamin D", got.Title)
}

func TestFireOrphanHandleIsDropped(t *testing.T) {
	ctx := context.Background()
	svc, _, notifier := newTestService(t)
	sender := &fakeSender{}
	svc.SetSender(sender)

	r, err := svc.Save(ctx, draft("Dentist", testNow.Add(time.Hour)))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, domain.ParamsFor(0, *r)))

	before := notifier.callCount()
	svc.Fire(ctx, r.NotifID, r.Title)

	require.Empty(t, sender.sent)
	require.Equal(t, before, notifier.callCount())
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	svc, store, notifier := newTestService(t)

	future := domain.Reminder{Title: "future", Date: testNow.Add(time.Hour), NotifID: "stale-1", Repeat: domain.RepeatNever}
	pastOnce := domain.Reminder{ID: "p1", Title: "past once", Date: testNow.Add(-time.Hour), NotifID: "stale-2", Repeat: domain.RepeatNever}
	pastDaily := domain.Reminder{ID: "p2", Title: "past daily", Date: testNow.Add(-30 * time.Hour), NotifID: "stale-3", Repeat: domain.RepeatDaily}
	require.NoError(t, store.Save(ctx, []domain.Reminder{future, pastOnce, pastDaily}))

	require.NoError(t, svc.Restore(ctx))

	list, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)

	require.NotEmpty(t, list[0].ID)
	require.NotEmpty(t, list[0].NotifID)
	require.NotEqual(t, "stale-1", list[0].NotifID)
	require.Contains(t, notifier.armed, list[0].NotifID)

	require.Empty(t, list[1].NotifID)
	require.True(t, list[1].Date.Equal(pastOnce.Date))

	require.True(t, list[2].Date.After(testNow))
	require.True(t, list[2].Date.Equal(pastDaily.Date.AddDate(0, 0, 2)))
	require.Contains(t, notifier.armed, list[2].NotifID)
}
