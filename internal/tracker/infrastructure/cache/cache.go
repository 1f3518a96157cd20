// Package cache maintains the bounded, expiring local snapshot of the full
// task set. The entry is owned exclusively by this package and is always
// replaced whole, never partially written.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/felixgeelhaar/daysync/internal/shared/infrastructure/storage"
	"github.com/felixgeelhaar/daysync/internal/tracker/domain/task"
)

const (
	// Version tags cache entries; a mismatch invalidates the entry.
	Version = "1.1"

	// DefaultMaxItems bounds the number of cached tasks.
	DefaultMaxItems = 200
	// DefaultMaxItemBytes drops any single task whose JSON form exceeds it.
	DefaultMaxItemBytes = 5000
	// DefaultTTL expires entries that have not been rewritten in a week.
	DefaultTTL = 7 * 24 * time.Hour
	// DefaultRetention keeps finished tasks for 30 days when evicting.
	DefaultRetention = 30 * 24 * time.Hour
	// DefaultQuotaHighWater clears the cache once storage usage passes it.
	DefaultQuotaHighWater = 0.8
)

const entryKey = "todo_cache"

type entry struct {
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      []task.Task `json:"data"`
}

// Config tunes the cache bounds. Zero values select the defaults.
type Config struct {
	MaxItems       int
	MaxItemBytes   int
	TTL            time.Duration
	Retention      time.Duration
	QuotaHighWater float64
}

func (c Config) withDefaults() Config {
	if c.MaxItems <= 0 {
		c.MaxItems = DefaultMaxItems
	}
	if c.MaxItemBytes <= 0 {
		c.MaxItemBytes = DefaultMaxItemBytes
	}
	if c.TTL <= 0 {
		c.TTL = DefaultTTL
	}
	if c.Retention <= 0 {
		c.Retention = DefaultRetention
	}
	if c.QuotaHighWater <= 0 {
		c.QuotaHighWater = DefaultQuotaHighWater
	}
	return c
}

// Cache is the versioned, time-expiring, size-bounded task snapshot.
type Cache struct {
	store  storage.Store
	config Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates a cache over the given store.
func New(store storage.Store, config Config, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		store:  store,
		config: config.withDefaults(),
		logger: logger,
		now:    time.Now,
	}
}

// SetNow overrides the clock. Tests only.
func (c *Cache) SetNow(now func() time.Time) { c.now = now }

// Get returns the cached task set, or a miss when no entry exists, the entry
// was written by a different schema version, or it is older than the TTL.
// Stale entries are cleared on sight so no caller sees one twice.
func (c *Cache) Get(ctx context.Context) ([]task.Task, bool) {
	raw, err := c.store.Get(ctx, entryKey)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			c.logger.Warn("cache read failed", "error", err)
		}
		return nil, false
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil || e.Version != Version {
		c.logger.Debug("cache entry invalid, clearing", "version", e.Version)
		_ = c.Clear(ctx)
		return nil, false
	}
	if c.now().Sub(e.Timestamp) > c.config.TTL {
		c.logger.Debug("cache entry expired, clearing", "age", c.now().Sub(e.Timestamp))
		_ = c.Clear(ctx)
		return nil, false
	}
	return e.Data, true
}

// Set replaces the cache entry with the given task set, after applying the
// per-item size ceiling and the eviction policy. It then checks aggregate
// quota usage and clears the cache when it crosses the high-water mark.
func (c *Cache) Set(ctx context.Context, tasks []task.Task) error {
	cleaned := c.bound(tasks)

	raw, err := json.Marshal(entry{
		Version:   Version,
		Timestamp: c.now(),
		Data:      cleaned,
	})
	if err != nil {
		return err
	}

	if err := c.store.Set(ctx, entryKey, raw); err != nil {
		if errors.Is(err, storage.ErrQuotaExceeded) {
			c.logger.Warn("cache write exceeded storage quota, clearing")
			return c.Clear(ctx)
		}
		return err
	}

	c.checkQuota(ctx)
	return nil
}

// Clear removes the entry. It is unconditional and idempotent.
func (c *Cache) Clear(ctx context.Context) error {
	return c.store.Remove(ctx, entryKey)
}

// Upsert rewrites a single task inside the entry, or prepends it when new.
// A miss is left as a miss: the next load repopulates from source of truth.
func (c *Cache) Upsert(ctx context.Context, t task.Task) {
	tasks, ok := c.Get(ctx)
	if !ok {
		return
	}
	replaced := false
	for i := range tasks {
		if tasks[i].ID.Equal(t.ID) {
			tasks[i] = t
			replaced = true
			break
		}
	}
	if !replaced {
		tasks = append([]task.Task{t}, tasks...)
	}
	if err := c.Set(ctx, tasks); err != nil {
		c.logger.Warn("cache upsert failed", "task_id", t.ID.String(), "error", err)
	}
}

// Remove deletes a single task from the entry, if present.
func (c *Cache) Remove(ctx context.Context, id task.ID) {
	tasks, ok := c.Get(ctx)
	if !ok {
		return
	}
	for i := range tasks {
		if tasks[i].ID.Equal(id) {
			tasks = append(tasks[:i], tasks[i+1:]...)
			if err := c.Set(ctx, tasks); err != nil {
				c.logger.Warn("cache remove failed", "task_id", id.String(), "error", err)
			}
			return
		}
	}
}

// RemapID rewrites a task's id in place after the remote store assigned one.
func (c *Cache) RemapID(ctx context.Context, old, assigned task.ID) {
	tasks, ok := c.Get(ctx)
	if !ok {
		return
	}
	for i := range tasks {
		if tasks[i].ID.Equal(old) {
			tasks[i].ID = assigned
			if err := c.Set(ctx, tasks); err != nil {
				c.logger.Warn("cache id remap failed", "task_id", assigned.String(), "error", err)
			}
			return
		}
	}
}

// bound applies the per-item ceiling and the eviction policy: every open
// task is kept unconditionally; finished tasks are kept only while recently
// updated, most recent first, truncated to remaining capacity.
func (c *Cache) bound(tasks []task.Task) []task.Task {
	filtered := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		raw, err := json.Marshal(t)
		if err != nil || len(raw) > c.config.MaxItemBytes {
			c.logger.Info("task too large to cache, skipping",
				"task_id", t.ID.String(),
				"size", len(raw),
			)
			continue
		}
		filtered = append(filtered, t)
	}

	if len(filtered) <= c.config.MaxItems {
		return filtered
	}

	cutoff := c.now().Add(-c.config.Retention)
	open := make([]task.Task, 0, len(filtered))
	finished := make([]task.Task, 0, len(filtered))
	for _, t := range filtered {
		if t.IsOpen() {
			open = append(open, t)
		} else if t.UpdatedAt.After(cutoff) {
			finished = append(finished, t)
		}
	}
	sort.SliceStable(finished, func(i, j int) bool {
		return finished[i].UpdatedAt.After(finished[j].UpdatedAt)
	})

	kept := open
	if remaining := c.config.MaxItems - len(open); remaining > 0 {
		if remaining > len(finished) {
			remaining = len(finished)
		}
		kept = append(kept, finished[:remaining]...)
	}

	c.logger.Info("cache eviction applied",
		"before", len(tasks),
		"after", len(kept),
	)
	return kept
}

func (c *Cache) checkQuota(ctx context.Context) {
	stats, err := c.store.Stats(ctx)
	if err != nil {
		c.logger.Warn("storage stats unavailable", "error", err)
		return
	}
	if usage := stats.UsageFraction(); usage > c.config.QuotaHighWater {
		c.logger.Warn("storage usage above high-water mark, clearing cache",
			"used_bytes", stats.UsedBytes,
			"quota_bytes", stats.QuotaBytes,
		)
		_ = c.Clear(ctx)
	}
}
