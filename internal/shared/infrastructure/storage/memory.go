package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store for tests and local mode. It honors the
// quota like the durable backends and can be told to fail upcoming writes so
// the write-retry paths can be exercised.
type MemoryStore struct {
	mu    sync.Mutex
	data  map[string][]byte
	quota int64

	failSets int
	failErr  error
}

// NewMemoryStore creates an empty store. quotaBytes <= 0 means unlimited.
func NewMemoryStore(quotaBytes int64) *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte), quota: quotaBytes}
}

// FailNextSets makes the next n Set calls return err.
func (s *MemoryStore) FailNextSets(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSets = n
	s.failErr = err
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSets > 0 {
		s.failSets--
		return s.failErr
	}
	if s.quota > 0 {
		used := s.usedLocked() - int64(len(s.data[key])+len(key))
		if used+int64(len(key)+len(value)) > s.quota {
			return ErrQuotaExceeded
		}
	}
	v := make([]byte, len(value))
	copy(v, value)
	s.data[key] = v
	return nil
}

func (s *MemoryStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{UsedBytes: s.usedLocked(), QuotaBytes: s.quota}, nil
}

func (s *MemoryStore) usedLocked() int64 {
	var used int64
	for k, v := range s.data {
		used += int64(len(k) + len(v))
	}
	return used
}

func (s *MemoryStore) Close() error { return nil }
