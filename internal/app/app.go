// Package app wires the store, scheduler and service from a config. Both
// binaries start from here.
package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/tazhate/reminders/config"
	"github.com/tazhate/reminders/internal/clients/caldav"
	"github.com/tazhate/reminders/internal/scheduler"
	"github.com/tazhate/reminders/internal/service"
	"github.com/tazhate/reminders/internal/storage"
)

const (
	leaseTTL   = time.Minute
	leaseRenew = 20 * time.Second
)

type App struct {
	Config    *config.Config
	KV        storage.KV
	Store     *storage.Reminders
	Scheduler *scheduler.Scheduler
	Reminders *service.ReminderService
	Lease     *storage.Lease

	closer    io.Closer
	owns      bool
	stopLease context.CancelFunc
}

// OpenKV returns the backend named by storage_backend. The closer may be nil.
func OpenKV(ctx context.Context, cfg *config.Config) (storage.KV, io.Closer, error) {
	switch cfg.StorageBackend {
	case "sqlite", "":
		db, err := storage.New(cfg.DatabasePath)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	case "s3":
		kv, err := storage.NewS3(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			Prefix:    cfg.S3Prefix,
			PathStyle: cfg.S3PathStyle,
		})
		if err != nil {
			return nil, nil, err
		}
		return kv, nil, nil
	case "memory":
		return storage.NewMemory(), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend: %s", cfg.StorageBackend)
	}
}

// Open builds everything except delivery; callers attach a sender and then
// call Start.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	kv, closer, err := OpenKV(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	store := storage.NewReminders(kv)
	sched := scheduler.New(cfg.Timezone)
	svc := service.NewReminderService(store, sched, cfg.Timezone)
	sched.SetHandler(svc.Fire)

	if cfg.CalDAVEnabled() {
		client := caldav.NewClient(cfg.CalDAVURL, cfg.CalDAVUsername, cfg.CalDAVPassword)
		calendar := cfg.CalDAVCalendar
		if calendar == "" {
			dctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			calendar, err = firstCalendar(dctx, client)
			cancel()
			if err != nil {
				log.Printf("Error discovering CalDAV calendars, mirror disabled: %v", err)
			}
		}
		if calendar != "" {
			client.SetCalendarID(calendar)
			svc.SetMirror(client)
			log.Printf("CalDAV mirror enabled (calendar %s)", calendar)
		}
	}

	name := fmt.Sprintf("%s[%d]", filepath.Base(os.Args[0]), os.Getpid())

	return &App{
		Config:    cfg,
		KV:        kv,
		Store:     store,
		Scheduler: sched,
		Reminders: svc,
		Lease:     storage.NewLease(kv, name, leaseTTL),
		closer:    closer,
	}, nil
}

type calendarFinder interface {
	DiscoverCalendars(ctx context.Context) ([]caldav.Calendar, error)
}

// firstCalendar picks the mirror calendar when caldav_calendar is unset.
func firstCalendar(ctx context.Context, f calendarFinder) (string, error) {
	cals, err := f.DiscoverCalendars(ctx)
	if err != nil {
		return "", err
	}
	if len(cals) == 0 {
		return "", fmt.Errorf("no calendars on the server")
	}
	log.Printf("caldav_calendar not set, using %q (%s)", cals[0].DisplayName, cals[0].ID)
	return cals[0].ID, nil
}

// Owner is the process currently arming notifications for the store, if any.
func (a *App) Owner(ctx context.Context) (storage.Owner, bool, error) {
	o, err := storage.CurrentOwner(ctx, a.KV)
	if err != nil {
		return storage.Owner{}, false, err
	}
	return o, o.Live(time.Now()) && o.ID != a.Lease.ID(), nil
}

// Start claims the store, re-arms stored reminders and runs the scheduler
// in the background until ctx is done. It fails with storage.ErrOwned while
// another process schedules for the same store.
func (a *App) Start(ctx context.Context) error {
	if err := a.Lease.Acquire(ctx); err != nil {
		return fmt.Errorf("claim store: %w", err)
	}
	a.owns = true

	if err := a.Reminders.Restore(ctx); err != nil {
		return fmt.Errorf("restore reminders: %w", err)
	}

	go func() {
		if err := a.Scheduler.Start(ctx); err != nil {
			log.Printf("Scheduler error: %v", err)
		}
	}()
	leaseCtx, stop := context.WithCancel(ctx)
	a.stopLease = stop
	go a.keepLease(leaseCtx)
	return nil
}

func (a *App) keepLease(ctx context.Context) {
	ticker := time.NewTicker(leaseRenew)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.Lease.Acquire(ctx); err != nil && ctx.Err() == nil {
				log.Printf("Error renewing scheduler lease: %v", err)
			}
		}
	}
}

func (a *App) Close() error {
	a.Scheduler.Stop()
	if a.stopLease != nil {
		a.stopLease()
	}
	if a.owns {
		if err := a.Lease.Release(context.Background()); err != nil {
			log.Printf("Error releasing scheduler lease: %v", err)
		}
	}
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}
