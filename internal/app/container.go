// Package app wires the application dependency graph.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/daysync/internal/identity"
	"github.com/felixgeelhaar/daysync/internal/shared/infrastructure/storage"
	"github.com/felixgeelhaar/daysync/internal/tracker/application"
	"github.com/felixgeelhaar/daysync/internal/tracker/infrastructure/cache"
	"github.com/felixgeelhaar/daysync/internal/tracker/infrastructure/localstore"
	"github.com/felixgeelhaar/daysync/internal/tracker/infrastructure/remote"
	"github.com/felixgeelhaar/daysync/pkg/config"
)

// Container holds all application dependencies.
type Container struct {
	Config *config.Config
	Logger *slog.Logger

	// Local key-value store backing cache, snapshot and queue.
	Store storage.Store

	// Remote task store, breaker-wrapped. In local-only mode this is an
	// in-process store so the sync path stays exercised.
	Remote remote.Store

	Cache   *cache.Cache
	Local   *localstore.Store
	Refresh *application.RefreshCoordinator
	Syncer  *application.SyncManager
	Engine  *application.Engine

	// Tokens manages the persisted OAuth2 token; it is the identity gate in
	// token auth mode and available to the auth commands in either mode.
	Tokens *identity.TokenProvider

	closers []func() error
}

// NewContainer creates and initializes all application dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Container{Config: cfg, Logger: logger}

	store, err := newBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	c.Store = store
	c.closers = append(c.closers, store.Close)

	remoteStore, err := newRemote(ctx, cfg, logger)
	if err != nil {
		c.Close()
		return nil, err
	}
	if pg, ok := remoteStore.(*remote.PostgresStore); ok {
		c.closers = append(c.closers, func() error {
			pg.Close()
			return nil
		})
	}
	breakerCfg := remote.DefaultBreakerConfig()
	if cfg.BreakerFailureThreshold > 0 {
		breakerCfg.FailureThreshold = uint32(cfg.BreakerFailureThreshold)
	}
	if cfg.BreakerTimeout > 0 {
		breakerCfg.Timeout = cfg.BreakerTimeout
	}
	c.Remote = remote.WithBreaker(remoteStore, breakerCfg, logger)

	c.Cache = cache.New(store, cache.Config{
		MaxItems:       cfg.CacheMaxItems,
		MaxItemBytes:   cfg.CacheMaxItemBytes,
		TTL:            cfg.CacheTTL,
		Retention:      cfg.CacheRetention,
		QuotaHighWater: cfg.CacheQuotaHighWater,
	}, logger)
	c.Local = localstore.New(store, logger)
	c.Refresh = application.NewRefreshCoordinator(store, c.Cache, logger)
	c.Syncer = application.NewSyncManager(c.Local, c.Cache, c.Remote, logger)

	c.Tokens = identity.NewTokenProvider(store, cfg.UserID, logger)
	var provider identity.Provider = identity.Static{ID: cfg.UserID}
	if cfg.AuthMode == "token" {
		provider = c.Tokens
	}
	c.Engine = application.NewEngine(c.Local, c.Cache, c.Syncer, c.Refresh, provider, logger)

	logger.Info("container initialized",
		"storage", cfg.StorageBackend,
		"local_only", cfg.LocalOnly(),
	)
	return c, nil
}

// Close releases all held resources.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			c.Logger.Warn("failed to close resource", "error", err)
		}
	}
	c.closers = nil
}

func newBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.Store, error) {
	switch cfg.StorageBackend {
	case "sqlite", "":
		store, err := storage.NewSQLiteStore(ctx, cfg.SQLitePath, cfg.StorageQuotaBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		return store, nil
	case "redis":
		store, err := storage.NewRedisStore(ctx, cfg.RedisURL, cfg.UserID, cfg.StorageQuotaBytes)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis store: %w", err)
		}
		return store, nil
	case "memory":
		logger.Warn("using in-memory storage, data will not survive the process")
		return storage.NewMemoryStore(cfg.StorageQuotaBytes), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}

func newRemote(ctx context.Context, cfg *config.Config, logger *slog.Logger) (remote.Store, error) {
	if cfg.LocalOnly() {
		logger.Warn("no DATABASE_URL configured, running in local-only mode")
		return remote.NewMemoryStore(), nil
	}
	store, err := remote.NewPostgresStore(ctx, cfg.DatabaseURL, cfg.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to remote store: %w", err)
	}
	return store, nil
}
