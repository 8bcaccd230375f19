// Package statscache caches computed dashboard statistics in Redis so
// repeated dashboard polls do not fan out into a dozen count queries.
package statscache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/opencase-io/opencase/internal/models"
)

const statsKey = "opencase:stats"

// Cache stores Stats snapshots with a short TTL. A nil Cache is valid and
// behaves as a permanent miss.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis at redisURL and returns a Cache with the given TTL.
func New(redisURL string, ttl time.Duration) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

// NewWithClient wraps an existing Redis client, used by tests.
func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached stats snapshot, or nil on a miss. Redis errors are
// treated as misses so the caller falls back to recomputing.
func (c *Cache) Get(ctx context.Context) *models.Stats {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := c.client.Get(ctx, statsKey).Bytes()
	if err != nil {
		return nil
	}
	var stats models.Stats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil
	}
	return &stats
}

// Set stores a stats snapshot with the configured TTL.
func (c *Cache) Set(ctx context.Context, stats *models.Stats) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}
	return c.client.Set(ctx, statsKey, data, c.ttl).Err()
}

// Invalidate drops the cached snapshot, forcing the next read to recompute.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, statsKey).Err()
}

// Close releases the underlying Redis connection.
func (c *Cache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
