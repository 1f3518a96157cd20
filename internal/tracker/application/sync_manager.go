// Package application orchestrates the local-first engine: the sync manager
// replaying pending operations against the remote store, the refresh
// coordinator deciding cache-only versus forced refetch, and the engine
// facade the pages consume.
package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/felixgeelhaar/daysync/internal/tracker/infrastructure/cache"
	"github.com/felixgeelhaar/daysync/internal/tracker/infrastructure/localstore"
	"github.com/felixgeelhaar/daysync/internal/tracker/infrastructure/remote"

	"github.com/felixgeelhaar/daysync/internal/tracker/domain/task"
)

// ErrSyncInFlight is returned when a replay is already running; overlapping
// calls are rejected, not queued. Callers re-trigger on the next activation.
var ErrSyncInFlight = errors.New("sync already in progress")

// SyncManager merges the remote task set into the local snapshot and replays
// the pending-operation queue, remapping locally-minted ids to the ids the
// remote store assigns.
type SyncManager struct {
	local  *localstore.Store
	cache  *cache.Cache
	remote remote.Store
	logger *slog.Logger

	mu      sync.Mutex
	syncing bool
}

// NewSyncManager creates a sync manager.
func NewSyncManager(local *localstore.Store, c *cache.Cache, r remote.Store, logger *slog.Logger) *SyncManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncManager{local: local, cache: c, remote: r, logger: logger}
}

// InitData brings the local snapshot up to date on cold start. When the day
// has rolled over (or no snapshot exists) it pulls the entire remote set and
// rebuilds the snapshot as remote data plus any still-local records; stale
// queue entries targeting already-synced ids are dropped. A failed pull
// leaves the existing snapshot and queue untouched.
func (m *SyncManager) InitData(ctx context.Context) error {
	if !m.local.IsNewDay(ctx) {
		m.logger.Debug("same day, using local snapshot")
		return nil
	}

	m.logger.Info("new day detected, pulling remote task set")
	if err := m.pullAndMerge(ctx); err != nil {
		m.logger.Warn("full pull failed, keeping local snapshot", "error", err)
		return nil
	}

	// The rollover wipe: operations against synced ids are superseded by the
	// fresh pull; adds (and their dependents) for still-local records stay.
	ops, err := m.local.PendingOps(ctx)
	if err != nil {
		return err
	}
	kept := ops[:0]
	for _, op := range ops {
		if op.TargetID().IsLocal() {
			kept = append(kept, op)
		}
	}
	if len(kept) != len(ops) {
		m.logger.Info("dropped superseded pending operations",
			"dropped", len(ops)-len(kept),
			"kept", len(kept),
		)
	}
	return m.local.ReplaceOps(ctx, kept)
}

// ExecutePendingSync drains the queue in enqueue order. At most one replay
// runs at a time; a concurrent call fails immediately with ErrSyncInFlight.
//
// Per entry:
//   - add on a local id: remote create, then the local record's id is
//     rewritten in place (list and cache) to the server-assigned one.
//   - update/toggle/delete whose target is still a local id: if an earlier
//     add in this pass produced its remote id, the op is redirected there;
//     otherwise it is skipped without being consumed and stays queued.
//   - delete that the remote reports as already absent counts as success.
//
// Failed operations are retained in their original order for the next pass,
// with their targets rewritten through the ids assigned this pass so a
// dependent op outlives the add that produced its remote id.
func (m *SyncManager) ExecutePendingSync(ctx context.Context) error {
	m.mu.Lock()
	if m.syncing {
		m.mu.Unlock()
		return ErrSyncInFlight
	}
	m.syncing = true
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.syncing = false
		m.mu.Unlock()
	}()

	ops, err := m.local.PendingOps(ctx)
	if err != nil {
		return err
	}
	if len(ops) == 0 {
		return nil
	}

	m.logger.Info("executing pending sync", "operations", len(ops))

	assigned := make(map[string]task.ID)
	var retained []localstore.Operation

	for _, op := range ops {
		if err := m.replay(ctx, op, assigned); err != nil {
			if errors.Is(err, errDeferred) {
				m.logger.Debug("deferring operation on unsynced local id",
					"kind", string(op.Kind),
					"task_id", op.TargetID().String(),
				)
			} else {
				m.logger.Warn("sync operation failed, will retry",
					"kind", string(op.Kind),
					"task_id", op.TargetID().String(),
					"error", err,
				)
			}
			retained = append(retained, redirectOp(op, assigned))
		}
	}

	if err := m.local.ReplaceOps(ctx, retained); err != nil {
		return err
	}

	m.logger.Info("pending sync completed",
		"succeeded", len(ops)-len(retained),
		"retained", len(retained),
	)
	return nil
}

// errDeferred marks an operation whose dependent add has not yet produced a
// remote id; it stays queued but is not a failure.
var errDeferred = errors.New("operation deferred")

// redirectOp rewrites a retained operation's target to the remote id its add
// was assigned during this pass. Without the rewrite a transiently failed
// update or delete would stay keyed to a local id whose add has left the
// queue, and no later pass could ever resolve it.
func redirectOp(op localstore.Operation, assigned map[string]task.ID) localstore.Operation {
	if op.Kind == localstore.OpAdd || !op.ID.IsLocal() {
		return op
	}
	if mapped, ok := assigned[op.ID.String()]; ok {
		op.ID = mapped
	}
	return op
}

func (m *SyncManager) replay(ctx context.Context, op localstore.Operation, assigned map[string]task.ID) error {
	target := op.TargetID()
	if target.IsLocal() {
		if mapped, ok := assigned[target.String()]; ok {
			target = mapped
		} else if op.Kind != localstore.OpAdd {
			return errDeferred
		}
	}

	switch op.Kind {
	case localstore.OpAdd:
		if op.Task == nil {
			return nil // malformed entry, drop
		}
		if !op.Task.ID.IsLocal() {
			return nil // already synced in an earlier pass
		}
		id, err := m.remote.Create(ctx, *op.Task)
		if err != nil {
			return err
		}
		assigned[op.Task.ID.String()] = id
		if err := m.local.RemapID(ctx, op.Task.ID, id); err != nil && !errors.Is(err, task.ErrNotFound) {
			m.logger.Warn("failed to remap local id", "error", err)
		}
		m.cache.RemapID(ctx, op.Task.ID, id)
		return nil

	case localstore.OpUpdate, localstore.OpToggle:
		if op.Patch == nil {
			return nil
		}
		return m.remote.Update(ctx, target, *op.Patch)

	case localstore.OpDelete:
		err := m.remote.Delete(ctx, target)
		if errors.Is(err, remote.ErrNotFound) {
			return nil // idempotent retry, already gone
		}
		return err

	default:
		m.logger.Warn("unknown pending operation kind", "kind", string(op.Kind))
		return nil
	}
}

// ForceSync replays the queue and then unconditionally re-pulls and merges
// the remote set, for explicit user-triggered refresh.
func (m *SyncManager) ForceSync(ctx context.Context) error {
	if err := m.ExecutePendingSync(ctx); err != nil && !errors.Is(err, ErrSyncInFlight) {
		m.logger.Warn("pending sync before force refresh failed", "error", err)
	}
	return m.pullAndMerge(ctx)
}

// PullWindow replays the queue and then refreshes the snapshot for one date
// window, fetching only the remote tasks the window's filter matches. Remote
// wins inside the window; snapshot entries outside it, and local-only
// records, keep their current state. A remote-id entry inside the window
// that the pull did not return was deleted remotely and is dropped.
func (m *SyncManager) PullWindow(ctx context.Context, q remote.Query) error {
	if err := m.ExecutePendingSync(ctx); err != nil && !errors.Is(err, ErrSyncInFlight) {
		m.logger.Warn("pending sync before window pull failed", "error", err)
	}

	pulled, err := m.remote.Query(ctx, q)
	if err != nil {
		return err
	}

	local, err := m.local.List(ctx)
	if err != nil {
		return err
	}

	seen := make(map[string]struct{}, len(pulled))
	for _, t := range pulled {
		seen[t.ID.String()] = struct{}{}
	}
	merged := make([]task.Task, 0, len(pulled)+len(local))
	merged = append(merged, pulled...)
	for _, t := range local {
		if _, ok := seen[t.ID.String()]; ok {
			continue
		}
		if t.ID.IsLocal() || !q.Matches(t) {
			merged = append(merged, t)
		}
	}

	if err := m.local.Replace(ctx, merged); err != nil {
		return err
	}
	m.logger.Info("window snapshot merged",
		"window_start", q.StartOnOrBefore.String(),
		"window_end", q.EndOnOrAfter.String(),
		"remote", len(pulled),
	)
	return nil
}

// pullAndMerge fetches the entire remote set and replaces the local snapshot
// with it, preserving local-only additions verbatim. Remote wins for ids the
// remote store also has; the replace is safe to run repeatedly.
func (m *SyncManager) pullAndMerge(ctx context.Context) error {
	pulled, err := m.remote.List(ctx)
	if err != nil {
		return err
	}

	local, err := m.local.List(ctx)
	if err != nil {
		return err
	}

	merged := make([]task.Task, 0, len(pulled)+len(local))
	merged = append(merged, pulled...)
	for _, t := range local {
		if t.ID.IsLocal() {
			merged = append(merged, t)
		}
	}

	if err := m.local.Replace(ctx, merged); err != nil {
		return err
	}
	m.logger.Info("remote snapshot merged",
		"remote", len(pulled),
		"local_only", len(merged)-len(pulled),
	)
	return nil
}
