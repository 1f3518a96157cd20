// Package localstore owns the canonical offline copy of the task list and
// the pending-operation queue. Every local mutation is optimistic: it lands
// in the list (and thus the UI) immediately and is queued for later replay
// against the remote store.
package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/daysync/internal/shared/infrastructure/storage"
	"github.com/felixgeelhaar/daysync/internal/tracker/domain/datekey"
	"github.com/felixgeelhaar/daysync/internal/tracker/domain/task"
)

const (
	tasksKey    = "todos_local"
	syncDateKey = "last_sync_date"
)

// Store is the local-first task store.
type Store struct {
	store  storage.Store
	queue  queue
	logger *slog.Logger
	now    func() time.Time
}

// New creates a store over the given key-value backend.
func New(backend storage.Store, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		store:  backend,
		queue:  queue{store: backend},
		logger: logger,
		now:    time.Now,
	}
}

// SetNow overrides the clock. Tests only.
func (s *Store) SetNow(now func() time.Time) { s.now = now }

// List returns the local task list. An absent key is an empty list.
func (s *Store) List(ctx context.Context) ([]task.Task, error) {
	raw, err := s.store.Get(ctx, tasksKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var tasks []task.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// save persists the list and stamps the last-sync-date marker. The write is
// retried once: a transient quota hiccup should not lose a user mutation.
func (s *Store) save(ctx context.Context, tasks []task.Task) error {
	raw, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, tasksKey, raw); err != nil {
		s.logger.Warn("task list write failed, retrying once", "error", err)
		if err := s.store.Set(ctx, tasksKey, raw); err != nil {
			return err
		}
	}
	if err := s.store.Set(ctx, syncDateKey, []byte(datekey.Today(s.now))); err != nil {
		s.logger.Warn("sync date marker write failed", "error", err)
	}
	return nil
}

// enqueue appends a pending operation. The list write has already succeeded
// at this point; on enqueue failure the user-visible mutation stands and the
// drift is logged rather than rolled back.
func (s *Store) enqueue(ctx context.Context, op Operation) {
	op.EnqueuedAt = s.now()
	if err := s.queue.append(ctx, op); err != nil {
		s.logger.Error("failed to enqueue pending operation",
			"kind", string(op.Kind),
			"task_id", op.TargetID().String(),
			"error", err,
		)
	}
}

// Add validates the draft, mints a local id, prepends the task to the list
// and enqueues an add operation carrying the full record.
func (s *Store) Add(ctx context.Context, draft task.Draft) (task.Task, error) {
	if err := draft.Validate(datekey.Today(s.now)); err != nil {
		return task.Task{}, err
	}

	tasks, err := s.List(ctx)
	if err != nil {
		return task.Task{}, err
	}

	t := task.Task{
		ID:         task.NewLocalID(s.now),
		Title:      draft.Title,
		Content:    draft.Content,
		Importance: draft.Importance,
		Permanent:  draft.Permanent,
		StartDate:  draft.StartDate,
		EndDate:    draft.EndDate,
		CreatedAt:  s.now(),
	}

	if err := s.save(ctx, append([]task.Task{t}, tasks...)); err != nil {
		return task.Task{}, err
	}
	s.enqueue(ctx, Operation{Kind: OpAdd, Task: &t})
	return t, nil
}

// Update merges the patch into the task, persists and enqueues.
func (s *Store) Update(ctx context.Context, id task.ID, patch task.Patch) error {
	if err := patch.Validate(); err != nil {
		return err
	}
	tasks, err := s.List(ctx)
	if err != nil {
		return err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return task.ErrNotFound
	}
	patch.Apply(&tasks[i], s.now())
	if err := s.save(ctx, tasks); err != nil {
		return err
	}
	s.enqueue(ctx, Operation{Kind: OpUpdate, ID: id, Patch: &patch})
	return nil
}

// Toggle flips the completed state and clears abandoned. Completing a task
// collapses its end date to today and drops the permanent flag, so it shows
// exactly once more, on its closing day.
func (s *Store) Toggle(ctx context.Context, id task.ID) (bool, error) {
	tasks, err := s.List(ctx)
	if err != nil {
		return false, err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return false, task.ErrNotFound
	}

	completed := !tasks[i].Completed
	var patch task.Patch
	if completed {
		patch = task.CompletePatch(datekey.Today(s.now))
	} else {
		patch = task.ReopenPatch()
	}
	patch.Apply(&tasks[i], s.now())

	if err := s.save(ctx, tasks); err != nil {
		return false, err
	}
	s.enqueue(ctx, Operation{Kind: OpToggle, ID: id, Patch: &patch, Completed: completed})
	return completed, nil
}

// Abandon marks the task given up; the rewrite mirrors completion and is
// replayed as a plain update.
func (s *Store) Abandon(ctx context.Context, id task.ID) error {
	return s.Update(ctx, id, task.AbandonPatch(datekey.Today(s.now)))
}

// Delete removes the task from the list and enqueues a delete operation.
func (s *Store) Delete(ctx context.Context, id task.ID) error {
	tasks, err := s.List(ctx)
	if err != nil {
		return err
	}
	i := indexOf(tasks, id)
	if i < 0 {
		return task.ErrNotFound
	}
	tasks = append(tasks[:i], tasks[i+1:]...)
	if err := s.save(ctx, tasks); err != nil {
		return err
	}
	s.enqueue(ctx, Operation{Kind: OpDelete, ID: id})
	return nil
}

// Replace overwrites the whole list; used by the sync manager after a merge.
func (s *Store) Replace(ctx context.Context, tasks []task.Task) error {
	return s.save(ctx, tasks)
}

// RemapID rewrites a task's id in place after the remote assigned one. The
// record is rewritten, never duplicated.
func (s *Store) RemapID(ctx context.Context, old, assigned task.ID) error {
	tasks, err := s.List(ctx)
	if err != nil {
		return err
	}
	i := indexOf(tasks, old)
	if i < 0 {
		return task.ErrNotFound
	}
	tasks[i].ID = assigned
	return s.save(ctx, tasks)
}

// Get returns a single task by id.
func (s *Store) Get(ctx context.Context, id task.ID) (*task.Task, error) {
	tasks, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if i := indexOf(tasks, id); i >= 0 {
		t := tasks[i]
		return &t, nil
	}
	return nil, task.ErrNotFound
}

// IsNewDay reports whether the last-sync-date marker names a different day
// than today (or no marker exists yet).
func (s *Store) IsNewDay(ctx context.Context) bool {
	raw, err := s.store.Get(ctx, syncDateKey)
	if err != nil {
		return true
	}
	return datekey.Key(raw) != datekey.Today(s.now)
}

// PendingOps returns the queue in enqueue order.
func (s *Store) PendingOps(ctx context.Context) ([]Operation, error) {
	return s.queue.load(ctx)
}

// ReplaceOps rewrites the queue, preserving the given order.
func (s *Store) ReplaceOps(ctx context.Context, ops []Operation) error {
	return s.queue.replace(ctx, ops)
}

// ClearOps empties the queue.
func (s *Store) ClearOps(ctx context.Context) error {
	return s.queue.replace(ctx, nil)
}

func indexOf(tasks []task.Task, id task.ID) int {
	for i := range tasks {
		if tasks[i].ID.Equal(id) {
			return i
		}
	}
	return -1
}
