package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/daysync/internal/identity"
	"github.com/felixgeelhaar/daysync/internal/tracker/domain/datekey"
	"github.com/felixgeelhaar/daysync/internal/tracker/domain/task"
	"github.com/felixgeelhaar/daysync/internal/tracker/infrastructure/cache"
	"github.com/felixgeelhaar/daysync/internal/tracker/infrastructure/localstore"
	"github.com/felixgeelhaar/daysync/internal/tracker/infrastructure/remote"
)

// Engine is the facade pages consume: cached reads, optimistic mutations and
// the refresh decision, all behind the identity gate. Without an identity
// the engine behaves as if cache and local store were empty, but never
// destroys persisted data.
type Engine struct {
	local    *localstore.Store
	cache    *cache.Cache
	syncer   *SyncManager
	refresh  *RefreshCoordinator
	identity identity.Provider
	logger   *slog.Logger
	now      func() time.Time
}

// NewEngine wires the engine facade.
func NewEngine(
	local *localstore.Store,
	c *cache.Cache,
	syncer *SyncManager,
	refresh *RefreshCoordinator,
	provider identity.Provider,
	logger *slog.Logger,
) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		local:    local,
		cache:    c,
		syncer:   syncer,
		refresh:  refresh,
		identity: provider,
		logger:   logger,
		now:      time.Now,
	}
}

// SetNow overrides the clock. Tests only.
func (e *Engine) SetNow(now func() time.Time) {
	e.now = now
	e.local.SetNow(now)
	e.cache.SetNow(now)
	e.refresh.SetNow(now)
}

// Today returns today's date key.
func (e *Engine) Today() datekey.Key { return datekey.Today(e.now) }

// InitData runs the cold-start merge when the local snapshot is absent or
// dated to a previous day.
func (e *Engine) InitData(ctx context.Context) error {
	if !e.identity.IsAuthenticated(ctx) {
		return nil
	}
	return e.syncer.InitData(ctx)
}

// LoadTasks returns the full task set. Without forceRefresh a fresh cache
// entry is served directly; otherwise pending operations are replayed, the
// remote set re-pulled and the cache rewritten. A failed pull falls back to
// the local snapshot (fail-soft).
func (e *Engine) LoadTasks(ctx context.Context, forceRefresh bool) ([]task.Task, error) {
	if !e.identity.IsAuthenticated(ctx) {
		return nil, nil
	}

	if !forceRefresh {
		if tasks, ok := e.cache.Get(ctx); ok {
			return tasks, nil
		}
	}

	if err := e.syncer.ForceSync(ctx); err != nil {
		e.logger.Warn("refresh pull failed, serving local snapshot", "error", err)
	}

	tasks, err := e.local.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load local task list: %w", err)
	}
	if err := e.cache.Set(ctx, tasks); err != nil {
		e.logger.Warn("failed to write cache", "error", err)
	}
	return tasks, nil
}

// LoadTasksForDate returns the tasks visible on the given day, sorted for
// display. A fresh cache entry is filtered in process; on a miss only the
// day's window is pulled from the remote store, with the local snapshot as
// the fail-soft fallback.
func (e *Engine) LoadTasksForDate(ctx context.Context, day datekey.Key) ([]task.Task, error) {
	tasks, err := e.loadWindow(ctx, remote.Query{StartOnOrBefore: day, EndOnOrAfter: day})
	if err != nil {
		return nil, err
	}
	return task.ForDay(tasks, day), nil
}

// LoadTasksForMonth returns the tasks whose active window intersects the
// month: permanent tasks started by month end, plus ranged tasks overlapping
// it.
func (e *Engine) LoadTasksForMonth(ctx context.Context, year int, month time.Month) ([]task.Task, error) {
	first, last := datekey.MonthBounds(year, month)
	q := remote.Query{StartOnOrBefore: last, EndOnOrAfter: first}
	tasks, err := e.loadWindow(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if q.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// loadWindow serves a date-scoped read: the full cached set when fresh,
// otherwise a window-filtered remote pull merged into the snapshot. The
// cache is left alone on the miss path since a scoped pull cannot vouch for
// the rest of the set.
func (e *Engine) loadWindow(ctx context.Context, q remote.Query) ([]task.Task, error) {
	if !e.identity.IsAuthenticated(ctx) {
		return nil, nil
	}

	if tasks, ok := e.cache.Get(ctx); ok {
		return tasks, nil
	}

	if err := e.syncer.PullWindow(ctx, q); err != nil {
		e.logger.Warn("window pull failed, serving local snapshot", "error", err)
	}
	tasks, err := e.local.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load local task list: %w", err)
	}
	return tasks, nil
}

// DateStats aggregates per-day counts for the calendar view. A task is
// grouped under its end date, the same key that governs completion
// visibility; permanent tasks have no meaningful day and are skipped.
func (e *Engine) DateStats(ctx context.Context, year int, month time.Month) (map[datekey.Key]datekey.DayStat, error) {
	tasks, err := e.LoadTasksForMonth(ctx, year, month)
	if err != nil {
		return nil, err
	}

	stats := make(map[datekey.Key]datekey.DayStat)
	for _, t := range tasks {
		if t.Permanent {
			continue
		}
		stat := stats[t.EndDate]
		stat.Total++
		if t.Completed {
			stat.Completed++
			stat.HasCompleted = true
		} else if !t.Abandoned {
			stat.HasIncomplete = true
		}
		stats[t.EndDate] = stat
	}
	return stats, nil
}

// AddTask creates a task locally and queues it for remote sync.
func (e *Engine) AddTask(ctx context.Context, draft task.Draft) (task.Task, error) {
	if !e.identity.IsAuthenticated(ctx) {
		return task.Task{}, identity.ErrNotAuthenticated
	}
	t, err := e.local.Add(ctx, draft)
	if err != nil {
		return task.Task{}, err
	}
	e.cache.Upsert(ctx, t)
	return t, nil
}

// UpdateTask applies a patch locally and queues it for remote sync.
func (e *Engine) UpdateTask(ctx context.Context, id task.ID, patch task.Patch) error {
	if !e.identity.IsAuthenticated(ctx) {
		return identity.ErrNotAuthenticated
	}
	if err := e.local.Update(ctx, id, patch); err != nil {
		return err
	}
	e.refreshCacheEntry(ctx, id)
	return nil
}

// ToggleTask flips the completed state and returns the new one.
func (e *Engine) ToggleTask(ctx context.Context, id task.ID) (bool, error) {
	if !e.identity.IsAuthenticated(ctx) {
		return false, identity.ErrNotAuthenticated
	}
	completed, err := e.local.Toggle(ctx, id)
	if err != nil {
		return false, err
	}
	e.refreshCacheEntry(ctx, id)
	return completed, nil
}

// AbandonTask marks the task given up.
func (e *Engine) AbandonTask(ctx context.Context, id task.ID) error {
	if !e.identity.IsAuthenticated(ctx) {
		return identity.ErrNotAuthenticated
	}
	if err := e.local.Abandon(ctx, id); err != nil {
		return err
	}
	e.refreshCacheEntry(ctx, id)
	return nil
}

// DeleteTask removes the task locally and queues the remote delete.
func (e *Engine) DeleteTask(ctx context.Context, id task.ID) error {
	if !e.identity.IsAuthenticated(ctx) {
		return identity.ErrNotAuthenticated
	}
	if err := e.local.Delete(ctx, id); err != nil {
		return err
	}
	e.cache.Remove(ctx, id)
	return nil
}

// SyncNow replays the pending queue. ErrSyncInFlight when already running.
func (e *Engine) SyncNow(ctx context.Context) error {
	if !e.identity.IsAuthenticated(ctx) {
		return nil
	}
	return e.syncer.ExecutePendingSync(ctx)
}

// ForceSync replays the queue then re-pulls and re-merges the remote set.
func (e *Engine) ForceSync(ctx context.Context) error {
	if !e.identity.IsAuthenticated(ctx) {
		return identity.ErrNotAuthenticated
	}
	if err := e.syncer.ForceSync(ctx); err != nil {
		return err
	}
	tasks, err := e.local.List(ctx)
	if err != nil {
		return err
	}
	return e.cache.Set(ctx, tasks)
}

// CheckRefreshNeeded delegates to the refresh coordinator. Call once per
// page activation.
func (e *Engine) CheckRefreshNeeded(ctx context.Context) Decision {
	return e.refresh.CheckRefreshNeeded(ctx)
}

// MarkDataChanged flags other pages stale and clears the cache.
func (e *Engine) MarkDataChanged(ctx context.Context) {
	e.refresh.MarkDataChanged(ctx)
}

// Refresh exposes the coordinator for flag management around login flows.
func (e *Engine) Refresh() *RefreshCoordinator { return e.refresh }

// PendingCount returns the number of queued operations.
func (e *Engine) PendingCount(ctx context.Context) (int, error) {
	ops, err := e.local.PendingOps(ctx)
	if err != nil {
		return 0, err
	}
	return len(ops), nil
}

func (e *Engine) refreshCacheEntry(ctx context.Context, id task.ID) {
	t, err := e.local.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, task.ErrNotFound) {
			e.logger.Warn("failed to reload task for cache", "error", err)
		}
		return
	}
	e.cache.Upsert(ctx, *t)
}
