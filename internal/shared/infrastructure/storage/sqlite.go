package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DefaultQuotaBytes caps the SQLite store at 10MB, matching the storage
// budget of the platforms this engine targets.
const DefaultQuotaBytes int64 = 10 * 1024 * 1024

const schemaKV = `CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
)`

// SQLiteStore persists key-value pairs in a single-table SQLite database.
type SQLiteStore struct {
	db    *sql.DB
	quota int64
}

// NewSQLiteStore opens (creating if needed) the database at path.
// quotaBytes <= 0 selects DefaultQuotaBytes.
func NewSQLiteStore(ctx context.Context, path string, quotaBytes int64) (*SQLiteStore, error) {
	if quotaBytes <= 0 {
		quotaBytes = DefaultQuotaBytes
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	// WAL for crash safety, busy_timeout so a second process waits instead of
	// failing, NORMAL sync as the safety/speed balance.
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?"
	} else {
		dsn += "&"
	}
	dsn += "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage database: %w", err)
	}

	// SQLite doesn't support multiple writers, so limit connections.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping storage database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaKV); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv table: %w", err)
	}

	return &SQLiteStore{db: db, quota: quotaBytes}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key string, value []byte) error {
	stats, err := s.Stats(ctx)
	if err != nil {
		return err
	}
	var existing int64
	_ = s.db.QueryRowContext(ctx,
		`SELECT LENGTH(key)+LENGTH(value) FROM kv WHERE key = ?`, key).Scan(&existing)
	if stats.UsedBytes-existing+int64(len(key)+len(value)) > s.quota {
		return ErrQuotaExceeded
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	var used sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(LENGTH(key) + LENGTH(value)), 0) FROM kv`).Scan(&used)
	if err != nil {
		return Stats{}, err
	}
	return Stats{UsedBytes: used.Int64, QuotaBytes: s.quota}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
