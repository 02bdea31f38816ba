package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by KV.Load when nothing is stored under the key.
var ErrNotFound = errors.New("key not found")

// KV persists opaque blobs under string keys.
type KV interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
}
