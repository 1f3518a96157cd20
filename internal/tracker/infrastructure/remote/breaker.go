package remote

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/felixgeelhaar/daysync/internal/tracker/domain/task"
)

// BreakerConfig tunes the circuit breaker guarding the remote store.
type BreakerConfig struct {
	// MaxRequests allowed through in half-open state.
	MaxRequests uint32
	// Interval is the cyclic period of the closed state.
	Interval time.Duration
	// Timeout is the period of the open state.
	Timeout time.Duration
	// FailureThreshold is the consecutive-failure count that trips the breaker.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns sensible defaults for a flaky network.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerStore wraps a Store so that a run of remote failures short-circuits
// further calls for a while. Rejected calls surface as ordinary transient
// errors; the pending queue retries them on a later pass.
type BreakerStore struct {
	inner   Store
	breaker *gobreaker.CircuitBreaker[any]
}

// WithBreaker wraps the given store with a circuit breaker.
func WithBreaker(inner Store, config BreakerConfig, logger *slog.Logger) *BreakerStore {
	if logger == nil {
		logger = slog.Default()
	}
	settings := gobreaker.Settings{
		Name:        "remote-store",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"name", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
		IsSuccessful: func(err error) bool {
			// Not-found is a domain answer, not a transport failure.
			return err == nil || err == ErrNotFound
		},
	}
	return &BreakerStore{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[any](settings),
	}
}

func (b *BreakerStore) List(ctx context.Context) ([]task.Task, error) {
	out, err := b.breaker.Execute(func() (any, error) {
		return b.inner.List(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out.([]task.Task), nil
}

func (b *BreakerStore) Query(ctx context.Context, q Query) ([]task.Task, error) {
	out, err := b.breaker.Execute(func() (any, error) {
		return b.inner.Query(ctx, q)
	})
	if err != nil {
		return nil, err
	}
	return out.([]task.Task), nil
}

func (b *BreakerStore) Get(ctx context.Context, id task.ID) (*task.Task, error) {
	out, err := b.breaker.Execute(func() (any, error) {
		return b.inner.Get(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return out.(*task.Task), nil
}

func (b *BreakerStore) Create(ctx context.Context, t task.Task) (task.ID, error) {
	out, err := b.breaker.Execute(func() (any, error) {
		return b.inner.Create(ctx, t)
	})
	if err != nil {
		return task.ID{}, err
	}
	return out.(task.ID), nil
}

func (b *BreakerStore) Update(ctx context.Context, id task.ID, patch task.Patch) error {
	_, err := b.breaker.Execute(func() (any, error) {
		return nil, b.inner.Update(ctx, id, patch)
	})
	return err
}

func (b *BreakerStore) Delete(ctx context.Context, id task.ID) error {
	_, err := b.breaker.Execute(func() (any, error) {
		return nil, b.inner.Delete(ctx, id)
	})
	return err
}
