package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/daysync/internal/shared/infrastructure/storage"
	"github.com/felixgeelhaar/daysync/internal/tracker/domain/datekey"
	"github.com/felixgeelhaar/daysync/internal/tracker/infrastructure/cache"
)

// Reason explains why a refresh was required. Reasons are reported for
// observability; callers branch only on NeedRefresh.
type Reason string

const (
	ReasonLogin       Reason = "login"
	ReasonDataChanged Reason = "dataChanged"
	ReasonDayRollover Reason = "date"
	ReasonCacheEmpty  Reason = "empty"
)

// Decision is the outcome of a refresh check.
type Decision struct {
	NeedRefresh bool
	Reasons     []Reason
}

const lastActiveDateKey = "last_active_date"

// RefreshCoordinator tracks the process-wide staleness flags every page
// consults on activation before deciding cache-only versus forced refetch.
// The flags are transient; only the last-active-date marker is persisted.
type RefreshCoordinator struct {
	store  storage.Store
	cache  *cache.Cache
	logger *slog.Logger
	now    func() time.Time

	mu                  sync.Mutex
	loginRefreshPending bool
	dataChangedPending  bool
}

// NewRefreshCoordinator creates a coordinator.
func NewRefreshCoordinator(store storage.Store, c *cache.Cache, logger *slog.Logger) *RefreshCoordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshCoordinator{store: store, cache: c, logger: logger, now: time.Now}
}

// SetNow overrides the clock. Tests only.
func (r *RefreshCoordinator) SetNow(now func() time.Time) { r.now = now }

// MarkLoginRefresh flags that a new identity was established.
func (r *RefreshCoordinator) MarkLoginRefresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loginRefreshPending = true
	r.logger.Debug("login refresh pending")
}

// ClearLoginRefresh resets the login flag after the refresh happened.
func (r *RefreshCoordinator) ClearLoginRefresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loginRefreshPending = false
}

// MarkDataChanged flags that a confirmed remote mutation happened elsewhere.
// It also unconditionally clears the bounded cache so no page serves the
// superseded snapshot.
func (r *RefreshCoordinator) MarkDataChanged(ctx context.Context) {
	r.mu.Lock()
	r.dataChangedPending = true
	r.mu.Unlock()

	if err := r.cache.Clear(ctx); err != nil {
		r.logger.Warn("failed to clear cache on data change", "error", err)
	}
	r.logger.Debug("data changed, cache cleared")
}

// ClearDataChanged resets the data-changed flag after the refresh happened.
func (r *RefreshCoordinator) ClearDataChanged() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dataChangedPending = false
}

// CheckRefreshNeeded reports whether the caller must refetch instead of
// serving the cache. Login, data-changed and day-rollover each force a
// refresh; with none of those, an empty cache alone also does.
//
// The rollover check writes today's marker as a side effect, so this is not
// idempotent: call it exactly once per page activation.
func (r *RefreshCoordinator) CheckRefreshNeeded(ctx context.Context) Decision {
	var reasons []Reason

	r.mu.Lock()
	if r.loginRefreshPending {
		reasons = append(reasons, ReasonLogin)
	}
	if r.dataChangedPending {
		reasons = append(reasons, ReasonDataChanged)
	}
	r.mu.Unlock()

	if r.dayRolledOver(ctx) {
		reasons = append(reasons, ReasonDayRollover)
	}

	if len(reasons) == 0 && r.cacheEmpty(ctx) {
		reasons = append(reasons, ReasonCacheEmpty)
	}

	decision := Decision{NeedRefresh: len(reasons) > 0, Reasons: reasons}
	if decision.NeedRefresh {
		r.logger.Info("refresh needed", "reasons", reasonStrings(reasons))
	} else {
		r.logger.Debug("serving cached data")
	}
	return decision
}

// dayRolledOver compares today against the persisted marker and updates the
// marker in the same step.
func (r *RefreshCoordinator) dayRolledOver(ctx context.Context) bool {
	today := datekey.Today(r.now)

	raw, err := r.store.Get(ctx, lastActiveDateKey)
	if err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		r.logger.Warn("failed to read last active date", "error", err)
		return true
	}

	if setErr := r.store.Set(ctx, lastActiveDateKey, []byte(today)); setErr != nil {
		r.logger.Warn("failed to persist last active date", "error", setErr)
	}

	if errors.Is(err, storage.ErrKeyNotFound) || len(raw) == 0 {
		return true // first use
	}
	last := datekey.Key(raw)
	if last != today {
		r.logger.Info("day rolled over", "from", string(last), "to", string(today))
		return true
	}
	return false
}

func (r *RefreshCoordinator) cacheEmpty(ctx context.Context) bool {
	tasks, ok := r.cache.Get(ctx)
	return !ok || len(tasks) == 0
}

func reasonStrings(reasons []Reason) []string {
	out := make([]string, len(reasons))
	for i, reason := range reasons {
		out[i] = string(reason)
	}
	return out
}
