package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLeaseSingleOwner(t *testing.T) {
	for name, kv := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			owner, err := CurrentOwner(ctx, kv)
			require.NoError(t, err)
			require.False(t, owner.Live(time.Now()))

			daemon := NewLease(kv, "daemon", time.Minute)
			daemon.SetAPIURL("http://localhost:8080")
			require.NoError(t, daemon.Acquire(ctx))

			owner, err = CurrentOwner(ctx, kv)
			require.NoError(t, err)
			require.Equal(t, daemon.ID(), owner.ID)
			require.Equal(t, "http://localhost:8080", owner.APIURL)
			require.True(t, owner.Live(time.Now()))

			tui := NewLease(kv, "tui", time.Minute)
			err = tui.Acquire(ctx)
			require.ErrorIs(t, err, ErrOwned)
			var owned *OwnedError
			require.True(t, errors.As(err, &owned))
			require.Equal(t, "daemon", owned.Owner.Name)

			// renewing is fine for the holder
			require.NoError(t, daemon.Acquire(ctx))

			// a release by a non-holder changes nothing
			require.NoError(t, tui.Release(ctx))
			require.ErrorIs(t, tui.Acquire(ctx), ErrOwned)

			require.NoError(t, daemon.Release(ctx))
			require.NoError(t, tui.Acquire(ctx))
			require.ErrorIs(t, daemon.Acquire(ctx), ErrOwned)
		})
	}
}

func TestLeaseExpires(t *testing.T) {
	ctx := context.Background()
	kv := NewMemory()

	crashed := NewLease(kv, "daemon", time.Minute)
	require.NoError(t, crashed.Acquire(ctx))

	next := NewLease(kv, "daemon", time.Minute)
	require.ErrorIs(t, next.Acquire(ctx), ErrOwned)

	next.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	require.NoError(t, next.Acquire(ctx))

	owner, err := CurrentOwner(ctx, kv)
	require.NoError(t, err)
	require.Equal(t, next.ID(), owner.ID)
}
