package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/felixgeelhaar/daysync/internal/shared/infrastructure/storage"
	"github.com/felixgeelhaar/daysync/internal/tracker/domain/task"
)

// OpKind is the kind of a pending mutation.
type OpKind string

const (
	OpAdd    OpKind = "add"
	OpUpdate OpKind = "update"
	OpToggle OpKind = "toggle"
	OpDelete OpKind = "delete"
)

// Operation is one entry of the pending-operation queue: a not-yet-confirmed
// mutation awaiting replay against the remote store. The queue is FIFO; ops
// reference their target by whatever id it held at enqueue time.
type Operation struct {
	Kind OpKind `json:"kind"`
	// Task carries the full record for add operations.
	Task *task.Task `json:"task,omitempty"`
	// ID targets update/toggle/delete operations.
	ID task.ID `json:"id,omitempty"`
	// Patch carries the field changes for update and toggle operations.
	Patch *task.Patch `json:"patch,omitempty"`
	// Completed records the toggle outcome for observability.
	Completed  bool      `json:"completed,omitempty"`
	EnqueuedAt time.Time `json:"enqueuedAt"`
}

// TargetID returns the id the operation acts on.
func (op Operation) TargetID() task.ID {
	if op.Kind == OpAdd && op.Task != nil {
		return op.Task.ID
	}
	return op.ID
}

const queueKey = "pending_sync"

// queue persists the operation log so it survives process restarts.
type queue struct {
	store storage.Store
}

func (q *queue) load(ctx context.Context) ([]Operation, error) {
	raw, err := q.store.Get(ctx, queueKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ops []Operation
	if err := json.Unmarshal(raw, &ops); err != nil {
		return nil, err
	}
	return ops, nil
}

func (q *queue) append(ctx context.Context, op Operation) error {
	ops, err := q.load(ctx)
	if err != nil {
		return err
	}
	return q.replace(ctx, append(ops, op))
}

func (q *queue) replace(ctx context.Context, ops []Operation) error {
	if len(ops) == 0 {
		return q.store.Remove(ctx, queueKey)
	}
	raw, err := json.Marshal(ops)
	if err != nil {
		return err
	}
	return q.store.Set(ctx, queueKey, raw)
}
