// Package remote defines the port to the remote document store and its
// implementations. The engine treats the remote as an opaque CRUD+query API;
// local ids never cross this boundary.
package remote

import (
	"context"
	"errors"

	"github.com/felixgeelhaar/daysync/internal/tracker/domain/datekey"
	"github.com/felixgeelhaar/daysync/internal/tracker/domain/task"
)

var (
	// ErrNotFound is returned when the remote store has no such document.
	// Replay treats it as success for deletes (idempotent retries).
	ErrNotFound = errors.New("remote: task not found")
	// ErrLocalID is returned when a locally-minted id reaches the remote
	// boundary; only remote ids are addressable here.
	ErrLocalID = errors.New("remote: local id is not addressable remotely")
)

// Query selects tasks active in a date window. It is the OR of two filters:
//
//	permanent AND startDate <= StartOnOrBefore
//	NOT permanent AND startDate <= StartOnOrBefore AND endDate >= EndOnOrAfter
//
// A single day D is Query{D, D}; a month is Query{monthLast, monthFirst}.
type Query struct {
	StartOnOrBefore datekey.Key
	EndOnOrAfter    datekey.Key
}

// Matches reports whether the task satisfies the query.
func (q Query) Matches(t task.Task) bool {
	if t.StartDate.After(q.StartOnOrBefore) {
		return false
	}
	return t.Permanent || !t.EndDate.Before(q.EndOnOrAfter)
}

// Store is the remote task store.
type Store interface {
	// List returns the entire task set.
	List(ctx context.Context) ([]task.Task, error)
	// Query returns the tasks matching the date-window filter.
	Query(ctx context.Context, q Query) ([]task.Task, error)
	// Get returns a single task, or ErrNotFound.
	Get(ctx context.Context, id task.ID) (*task.Task, error)
	// Create stores a new task and returns the server-assigned id.
	Create(ctx context.Context, t task.Task) (task.ID, error)
	// Update applies a patch to an existing task.
	Update(ctx context.Context, id task.ID, patch task.Patch) error
	// Delete removes a task; ErrNotFound when it was already absent.
	Delete(ctx context.Context, id task.ID) error
}
