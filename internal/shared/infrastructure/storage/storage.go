// Package storage provides the synchronous key-value port the engine
// persists through: the local task list, the pending-operation queue, the
// bounded cache entry and the last-active-date marker all live behind it.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrKeyNotFound is returned by Get for absent keys.
	ErrKeyNotFound = errors.New("storage: key not found")
	// ErrQuotaExceeded is returned when a write would exceed the store's quota.
	ErrQuotaExceeded = errors.New("storage: quota exceeded")
)

// Stats describes aggregate storage usage against the platform quota.
type Stats struct {
	UsedBytes  int64
	QuotaBytes int64
}

// UsageFraction returns used/quota, or 0 when the quota is unknown.
func (s Stats) UsageFraction() float64 {
	if s.QuotaBytes <= 0 {
		return 0
	}
	return float64(s.UsedBytes) / float64(s.QuotaBytes)
}

// Store is a persistent key-value store. Implementations are single-writer;
// the engine never issues concurrent writes to the same key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	Stats(ctx context.Context) (Stats, error)
	Close() error
}
