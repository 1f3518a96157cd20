package remote

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/daysync/internal/tracker/domain/task"
)

// MemoryStore is an in-process Store used in local mode (no remote database
// configured) and in tests.
type MemoryStore struct {
	mu    sync.Mutex
	tasks map[string]task.Task
	order []string
}

// NewMemoryStore creates an empty in-memory remote store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]task.Task)}
}

func (s *MemoryStore) List(_ context.Context) ([]task.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]task.Task, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.tasks[id])
	}
	return out, nil
}

func (s *MemoryStore) Query(ctx context.Context, q Query) ([]task.Task, error) {
	all, _ := s.List(ctx)
	out := make([]task.Task, 0, len(all))
	for _, t := range all {
		if q.Matches(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *MemoryStore) Get(_ context.Context, id task.ID) (*task.Task, error) {
	if id.IsLocal() {
		return nil, ErrLocalID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id.String()]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (s *MemoryStore) Create(_ context.Context, t task.Task) (task.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	assigned := task.RemoteID(uuid.NewString())
	t.ID = assigned
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	s.tasks[assigned.String()] = t
	s.order = append(s.order, assigned.String())
	return assigned, nil
}

func (s *MemoryStore) Update(_ context.Context, id task.ID, patch task.Patch) error {
	if id.IsLocal() {
		return ErrLocalID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id.String()]
	if !ok {
		return ErrNotFound
	}
	patch.Apply(&t, time.Now().UTC())
	s.tasks[id.String()] = t
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id task.ID) error {
	if id.IsLocal() {
		return ErrLocalID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id.String()]; !ok {
		return ErrNotFound
	}
	delete(s.tasks, id.String())
	for i, v := range s.order {
		if v == id.String() {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
