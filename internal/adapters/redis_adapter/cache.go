// internal/adapters/redis_adapter/cache.go
package redis_a

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medtrack/pharmacy-be/internal/core/ports"
)

// CacheKeyPrefix namespaces cache entries per concern so invalidation can
// target them with pattern deletes.
type CacheKeyPrefix string

const (
	PrefixMedicine     CacheKeyPrefix = "med"
	PrefixDashboard    CacheKeyPrefix = "dash"
	PrefixReports      CacheKeyPrefix = "reports"
	PrefixSearch       CacheKeyPrefix = "search"
	PrefixPrescription CacheKeyPrefix = "rx"
	PrefixAlerts       CacheKeyPrefix = "alerts"
	PrefixIntake       CacheKeyPrefix = "intake"
)

// ErrCacheMiss is returned when a key is not present.
var ErrCacheMiss = errors.New("cache miss")

// Cache implements ports.CacheRepository on Redis with JSON values.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.CacheRepository = (*Cache)(nil)

// NewCache wraps the Redis client. ttl is the default expiry used by Set.
func NewCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) ports.CacheRepository {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "cache")),
	}
}

// Set stores a value with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL.
func (c *Cache) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.ErrorContext(ctx, "failed to set cache",
			slog.String("key", key),
			slog.Any("error", err))
		return fmt.Errorf("redis set error: %w", err)
	}

	return nil
}

// Get unmarshals the cached value into dest, returning ErrCacheMiss when
// the key does not exist.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrCacheMiss
		}
		c.logger.ErrorContext(ctx, "failed to get cache",
			slog.String("key", key),
			slog.Any("error", err))
		return fmt.Errorf("redis get error: %w", err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("unmarshal error: %w", err)
	}

	return nil
}

// Delete removes the given keys.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.ErrorContext(ctx, "failed to delete cache",
			slog.Any("keys", keys),
			slog.Any("error", err))
		return fmt.Errorf("redis del error: %w", err)
	}

	return nil
}

// DeletePattern removes every key matching the glob pattern using SCAN,
// never KEYS, so it stays safe on a busy instance.
func (c *Cache) DeletePattern(ctx context.Context, pattern string) error {
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.ErrorContext(ctx, "failed to scan keys",
			slog.String("pattern", pattern),
			slog.Any("error", err))
		return fmt.Errorf("redis scan error: %w", err)
	}

	return c.Delete(ctx, keys...)
}

// Exists reports whether all given keys are present.
func (c *Cache) Exists(ctx context.Context, keys ...string) (bool, error) {
	n, err := c.client.Exists(ctx, keys...).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists error: %w", err)
	}
	return n == int64(len(keys)), nil
}

// GetOrSet returns the cached value for key, or runs fetch on a miss and
// caches its result. A failed cache write after a successful fetch is
// logged but does not fail the call.
func (c *Cache) GetOrSet(ctx context.Context, key string, dest interface{},
	fetch func() (interface{}, error), ttl time.Duration) error {

	err := c.Get(ctx, key, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		return err
	}

	value, err := fetch()
	if err != nil {
		return fmt.Errorf("fetch error: %w", err)
	}

	if err := c.SetWithTTL(ctx, key, value, ttl); err != nil {
		c.logger.WarnContext(ctx, "failed to cache value after fetch",
			slog.String("key", key),
			slog.Any("error", err))
	}

	// Round-trip through JSON so dest gets the same shape a cache hit
	// would have produced.
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}
	return json.Unmarshal(data, dest)
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping error: %w", err)
	}
	return nil
}

// BuildKey joins a prefix and parts with colons.
func BuildKey(prefix CacheKeyPrefix, parts ...string) string {
	if len(parts) == 0 {
		return string(prefix)
	}
	return string(prefix) + ":" + strings.Join(parts, ":")
}

// InvalidateMedicineCache drops every entry derived from medicine state. Any
// stock mutation makes dashboard counts, alert lists and search pages stale.
func InvalidateMedicineCache(ctx context.Context, cache ports.CacheRepository, logger *slog.Logger) {
	patterns := []string{
		fmt.Sprintf("%s:*", PrefixMedicine),
		fmt.Sprintf("%s:*", PrefixDashboard),
		fmt.Sprintf("%s:*", PrefixAlerts),
		fmt.Sprintf("%s:*", PrefixSearch),
	}

	for _, pattern := range patterns {
		if err := cache.DeletePattern(ctx, pattern); err != nil {
			logger.WarnContext(ctx, "failed to invalidate cache pattern",
				slog.String("pattern", pattern),
				slog.String("error", err.Error()))
		}
	}
}
