package storage

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisStore backs the key-value port with Redis. Keys are namespaced per
// user so multiple replicas can share one instance:
// daysync:user:{user_id}:{key}
type RedisStore struct {
	client *redis.Client
	userID string
	quota  int64
}

// NewRedisStore connects to the Redis instance named by url.
// quotaBytes <= 0 falls back to the server's maxmemory, if any.
func NewRedisStore(ctx context.Context, url, userID string, quotaBytes int64) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &RedisStore{client: client, userID: userID, quota: quotaBytes}, nil
}

func (s *RedisStore) namespaceKey(key string) string {
	return fmt.Sprintf("daysync:user:%s:%s", s.userID, key)
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := s.client.Get(ctx, s.namespaceKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.namespaceKey(key), value, 0).Err()
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.namespaceKey(key)).Err()
}

// Stats derives usage from INFO memory. When the server has no maxmemory and
// no quota was configured, the quota is reported as unknown (zero) and the
// cache's high-water check becomes a no-op.
func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	info, err := s.client.Info(ctx, "memory").Result()
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{QuotaBytes: s.quota}
	scanner := bufio.NewScanner(strings.NewReader(info))
	for scanner.Scan() {
		line := scanner.Text()
		if v, ok := strings.CutPrefix(line, "used_memory:"); ok {
			stats.UsedBytes, _ = strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		}
		if v, ok := strings.CutPrefix(line, "maxmemory:"); ok && s.quota <= 0 {
			stats.QuotaBytes, _ = strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		}
	}
	return stats, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
