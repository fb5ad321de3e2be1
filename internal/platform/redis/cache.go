package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// cacheCommands is the subset of go-redis commands the cache needs.
// *redis.Client satisfies it; tests substitute a fake.
type cacheCommands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	FlushDB(ctx context.Context) *redis.StatusCmd
}

// Cache is a thin JSON-over-Redis key-value cache. Values live until their
// TTL expires or the owning caller deletes them; there is no other eviction
// policy.
type Cache struct {
	client cacheCommands
	logger *slog.Logger
}

// NewCache creates a Cache on top of the given Redis client.
// If logger is nil, a default logger will be used.
func NewCache(client cacheCommands, logger *slog.Logger) *Cache {
	if client == nil {
		panic("client cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Cache{
		client: client,
		logger: logger.With(slog.String("component", "cache")),
	}
}

// Get looks up key and unmarshals the stored JSON into dest.
// Returns false with a nil error on a miss; a miss is not a failure.
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get %q: %w", key, err)
	}

	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		// A corrupt entry behaves like a miss; the read path falls through
		// to the store and the next Set overwrites it.
		c.logger.Warn("discarding undecodable cache entry",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return false, nil
	}

	return true, nil
}

// Set marshals value as JSON and stores it under key with the given TTL.
// A zero TTL stores the value without expiry.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	serialized, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache set %q: marshal: %w", key, err)
	}

	if err := c.client.Set(ctx, key, serialized, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}

	return nil
}

// Delete removes the given keys. Deleting an absent key is not an error.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}

	return nil
}

// Clear flushes the entire cache database.
func (c *Cache) Clear(ctx context.Context) error {
	if err := c.client.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}

	return nil
}
