package remote_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/daysync/internal/tracker/infrastructure/remote"

	"github.com/felixgeelhaar/daysync/internal/tracker/domain/task"
)

// failingStore always errors, simulating a dead network.
type failingStore struct {
	remote.Store
	err   error
	calls int
}

func (f *failingStore) List(context.Context) ([]task.Task, error) {
	f.calls++
	return nil, f.err
}

func (f *failingStore) Delete(context.Context, task.ID) error {
	f.calls++
	return f.err
}

func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	ctx := context.Background()
	inner := &failingStore{err: assert.AnError}
	store := remote.WithBreaker(inner, remote.BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 3,
	}, nil)

	for i := 0; i < 3; i++ {
		_, err := store.List(ctx)
		assert.ErrorIs(t, err, assert.AnError)
	}
	assert.Equal(t, 3, inner.calls)

	// Open: calls are rejected without reaching the inner store.
	_, err := store.List(ctx)
	require.Error(t, err)
	assert.NotErrorIs(t, err, assert.AnError)
	assert.Equal(t, 3, inner.calls)
}

func TestBreaker_NotFoundDoesNotTrip(t *testing.T) {
	ctx := context.Background()
	inner := &failingStore{err: remote.ErrNotFound}
	store := remote.WithBreaker(inner, remote.BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	}, nil)

	for i := 0; i < 10; i++ {
		err := store.Delete(ctx, task.RemoteID("gone"))
		assert.ErrorIs(t, err, remote.ErrNotFound)
	}
	assert.Equal(t, 10, inner.calls)
}

func TestBreaker_PassesResultsThrough(t *testing.T) {
	ctx := context.Background()
	store := remote.WithBreaker(remote.NewMemoryStore(), remote.DefaultBreakerConfig(), nil)

	id, err := store.Create(ctx, task.Task{Title: "x", StartDate: "2026-09-01", EndDate: "2026-09-01"})
	require.NoError(t, err)
	assert.False(t, id.IsLocal())

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "x", all[0].Title)

	got, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "x", got.Title)
}
