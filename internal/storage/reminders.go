package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tazhate/reminders/internal/domain"
)

// RemindersKey is the single key the whole reminder sequence lives under.
const RemindersKey = "reminders"

var (
	ErrIndexOutOfRange = errors.New("reminder index out of range")
	ErrReminderGone    = errors.New("reminder no longer stored")
)

// Reminders is the ordered reminder sequence, read and written wholesale.
// There is no locking: of two callers that Load, mutate and Save, the later
// Save wins for the whole sequence.
type Reminders struct {
	kv  KV
	key string
}

func NewReminders(kv KV) *Reminders {
	return &Reminders{kv: kv, key: RemindersKey}
}

// Load returns the full sequence. A missing key is an empty sequence.
func (r *Reminders) Load(ctx context.Context) ([]domain.Reminder, error) {
	data, err := r.kv.Load(ctx, r.key)
	if errors.Is(err, ErrNotFound) {
		return []domain.Reminder{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", r.key, err)
	}

	var list []domain.Reminder
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.key, err)
	}
	if list == nil {
		list = []domain.Reminder{}
	}
	return list, nil
}

func (r *Reminders) Save(ctx context.Context, list []domain.Reminder) error {
	if list == nil {
		list = []domain.Reminder{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.key, err)
	}
	if err := r.kv.Save(ctx, r.key, data); err != nil {
		return fmt.Errorf("save %s: %w", r.key, err)
	}
	return nil
}

func (r *Reminders) Get(ctx context.Context, index int) (*domain.Reminder, error) {
	list, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(list) {
		return nil, ErrIndexOutOfRange
	}
	rem := list[index]
	return &rem, nil
}

func (r *Reminders) Put(ctx context.Context, index int, rem domain.Reminder) error {
	list, err := r.Load(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= len(list) {
		return ErrIndexOutOfRange
	}
	list[index] = rem
	return r.Save(ctx, list)
}

// Append adds rem at the end and returns its index.
func (r *Reminders) Append(ctx context.Context, rem domain.Reminder) (int, error) {
	list, err := r.Load(ctx)
	if err != nil {
		return -1, err
	}
	list = append(list, rem)
	if err := r.Save(ctx, list); err != nil {
		return -1, err
	}
	return len(list) - 1, nil
}

func (r *Reminders) Delete(ctx context.Context, index int) error {
	list, err := r.Load(ctx)
	if err != nil {
		return err
	}
	list, err = RemoveAt(list, index)
	if err != nil {
		return err
	}
	return r.Save(ctx, list)
}

// IndexOf finds the position of the reminder with the given id, or -1.
func IndexOf(list []domain.Reminder, id string) int {
	if id == "" {
		return -1
	}
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

// Resolve maps a (possibly stale) index to the current position. Records
// with an id are found by id; index is only trusted for records without one.
func Resolve(list []domain.Reminder, index int, id string) (int, error) {
	if id != "" {
		if i := IndexOf(list, id); i >= 0 {
			return i, nil
		}
		return -1, ErrReminderGone
	}
	if index < 0 || index >= len(list) {
		return -1, ErrIndexOutOfRange
	}
	return index, nil
}

// RemoveAt drops the entry at index keeping the order of the rest.
func RemoveAt(list []domain.Reminder, index int) ([]domain.Reminder, error) {
	if index < 0 || index >= len(list) {
		return list, ErrIndexOutOfRange
	}
	out := make([]domain.Reminder, 0, len(list)-1)
	out = append(out, list[:index]...)
	return append(out, list[index+1:]...), nil
}
