//go:build integration

package poller

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCountCache(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	userID := int(time.Now().UnixNano() % 1_000_000)
	t.Cleanup(func() { rdb.Del(ctx, UnreadKey(userID)) })

	cache := NewRedisCountCache(rdb, time.Minute)

	_, found, err := cache.Get(ctx, userID)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Set(ctx, userID, 3))
	got, found, err := cache.Get(ctx, userID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 3, got)

	require.NoError(t, cache.Set(ctx, userID, 5))
	got, _, err = cache.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 5, got)

	ttl, err := rdb.TTL(ctx, UnreadKey(userID)).Result()
	require.NoError(t, err)
	assert.Positive(t, ttl)
}
