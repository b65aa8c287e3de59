// Package cache provides the Redis-backed store for computed indicator payloads.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"indicator_backend/internal/platform/metrics"
)

// DefaultTimeout bounds every Redis call made by the cache.
const DefaultTimeout = 250 * time.Millisecond

// ErrDisabled is returned by Ping when no Redis client is configured.
var ErrDisabled = errors.New("cache disabled")

// RedisResultCache stores serialized payloads under caller-built keys.
// A nil client disables caching: every Get is a miss and every Put is skipped.
// Redis failures never propagate; they are logged and counted.
type RedisResultCache struct {
	rdb     *redis.Client
	timeout time.Duration
	metrics *metrics.Metrics
}

// NewRedisResultCache creates a cache on rdb. If timeout is 0, DefaultTimeout is used.
func NewRedisResultCache(rdb *redis.Client, timeout time.Duration, m *metrics.Metrics) *RedisResultCache {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RedisResultCache{rdb: rdb, timeout: timeout, metrics: m}
}

// Get returns the payload stored under key. Expired, missing and unreadable
// entries are misses; an entry that is not valid JSON is deleted.
func (c *RedisResultCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c.rdb == nil {
		c.metrics.CacheOp(metrics.CacheGet, metrics.CacheDisabled)
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.CacheOp(metrics.CacheGet, metrics.CacheMiss)
		return nil, false
	}
	if err != nil {
		slog.Warn("cache get failed", "key", key, "error", err)
		c.metrics.CacheOp(metrics.CacheGet, metrics.CacheError)
		return nil, false
	}

	if len(b) == 0 || !json.Valid(b) {
		// Delete corrupted cache entry (best effort)
		if err := c.rdb.Del(ctx, key).Err(); err != nil {
			slog.Warn("failed to delete corrupt cache entry", "key", key, "error", err)
		}
		c.metrics.CacheOp(metrics.CacheGet, metrics.CacheCorrupt)
		return nil, false
	}

	c.metrics.CacheOp(metrics.CacheGet, metrics.CacheHit)
	return b, true
}

// Put overwrites the value under key with the given TTL (best effort).
func (c *RedisResultCache) Put(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c.rdb == nil {
		c.metrics.CacheOp(metrics.CachePut, metrics.CacheDisabled)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		slog.Warn("cache put failed", "key", key, "error", err)
		c.metrics.CacheOp(metrics.CachePut, metrics.CacheError)
		return
	}
	c.metrics.CacheOp(metrics.CachePut, metrics.CacheStored)
}

// Ping reports whether Redis answers within the cache timeout.
func (c *RedisResultCache) Ping(ctx context.Context) error {
	if c.rdb == nil {
		return ErrDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}
