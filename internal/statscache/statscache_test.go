package statscache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencase-io/opencase/internal/models"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewWithClient(client, time.Minute), mr
}

func TestCacheRoundTrip(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	assert.Nil(t, cache.Get(ctx), "empty cache should miss")

	stats := &models.Stats{
		TotalCases: 7,
		OpenCases:  3,
		PriorityStats: map[string]int{
			"high":   2,
			"medium": 5,
		},
	}
	require.NoError(t, cache.Set(ctx, stats))

	got := cache.Get(ctx)
	require.NotNil(t, got)
	assert.Equal(t, 7, got.TotalCases)
	assert.Equal(t, 3, got.OpenCases)
	assert.Equal(t, 2, got.PriorityStats["high"])
}

func TestCacheExpiry(t *testing.T) {
	cache, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &models.Stats{TotalCases: 1}))
	require.NotNil(t, cache.Get(ctx))

	mr.FastForward(2 * time.Minute)

	assert.Nil(t, cache.Get(ctx), "snapshot should expire after TTL")
}

func TestCacheInvalidate(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &models.Stats{TotalCases: 4}))
	require.NoError(t, cache.Invalidate(ctx))

	assert.Nil(t, cache.Get(ctx))
}

func TestNilCacheIsAMiss(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	assert.Nil(t, cache.Get(ctx))
	assert.NoError(t, cache.Set(ctx, &models.Stats{TotalCases: 1}))
	assert.NoError(t, cache.Invalidate(ctx))
	assert.NoError(t, cache.Close())
}
