package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OwnerKey holds the scheduler lease next to the reminders.
const OwnerKey = "scheduler_owner"

var ErrOwned = errors.New("reminders are scheduled by another process")

// Owner is the process that arms notifications for the store. Only one may
// at a time: handles live in its memory and nobody else can cancel them.
type Owner struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	APIURL  string    `json:"api_url,omitempty"` // where the owner takes writes; empty if it serves no API
	Expires time.Time `json:"expires"`
}

func (o Owner) Live(now time.Time) bool {
	return o.ID != "" && now.Before(o.Expires)
}

// OwnedError carries the live owner that blocked an Acquire.
type OwnedError struct {
	Owner Owner
}

func (e *OwnedError) Error() string {
	return fmt.Sprintf("reminders are scheduled by %s until %s", e.Owner.Name, e.Owner.Expires.Format(time.RFC3339))
}

func (e *OwnedError) Is(target error) bool {
	return target == ErrOwned
}

// CurrentOwner reads the lease record. A store that was never owned yields
// the zero Owner.
func CurrentOwner(ctx context.Context, kv KV) (Owner, error) {
	data, err := kv.Load(ctx, OwnerKey)
	if errors.Is(err, ErrNotFound) {
		return Owner{}, nil
	}
	if err != nil {
		return Owner{}, fmt.Errorf("load owner: %w", err)
	}

	var o Owner
	if err := json.Unmarshal(data, &o); err != nil {
		return Owner{}, fmt.Errorf("decode owner: %w", err)
	}
	return o, nil
}

// Lease claims the store for one process. It expires unless renewed, so a
// crashed owner frees the store after ttl.
type Lease struct {
	kv   KV
	self Owner
	ttl  time.Duration
	now  func() time.Time
}

func NewLease(kv KV, name string, ttl time.Duration) *Lease {
	return &Lease{
		kv:   kv,
		self: Owner{ID: uuid.NewString(), Name: name},
		ttl:  ttl,
		now:  time.Now,
	}
}

// SetAPIURL advertises where other processes should send their writes.
func (l *Lease) SetAPIURL(u string) {
	l.self.APIURL = u
}

func (l *Lease) ID() string {
	return l.self.ID
}

// Acquire takes or renews the lease. It fails with an *OwnedError while
// another live owner holds it.
func (l *Lease) Acquire(ctx context.Context) error {
	cur, err := CurrentOwner(ctx, l.kv)
	if err != nil {
		return err
	}

	now := l.now()
	if cur.ID != l.self.ID && cur.Live(now) {
		return &OwnedError{Owner: cur}
	}

	rec := l.self
	rec.Expires = now.Add(l.ttl)
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode owner: %w", err)
	}
	if err := l.kv.Save(ctx, OwnerKey, data); err != nil {
		return fmt.Errorf("save owner: %w", err)
	}

	// two claimants may both have seen a free lease; the last write wins
	got, err := CurrentOwner(ctx, l.kv)
	if err != nil {
		return err
	}
	if got.ID != l.self.ID {
		return &OwnedError{Owner: got}
	}
	return nil
}

// Release frees the lease if this process still holds it.
func (l *Lease) Release(ctx context.Context) error {
	cur, err := CurrentOwner(ctx, l.kv)
	if err != nil {
		return err
	}
	if cur.ID != l.self.ID {
		return nil
	}
	if err := l.kv.Save(ctx, OwnerKey, []byte("{}")); err != nil {
		return fmt.Errorf("save owner: %w", err)
	}
	return nil
}
