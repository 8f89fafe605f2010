//go:build integration

package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	store := NewRedisStore(rdb)
	s := &Session{ID: "it-" + time.Now().Format("150405.000"), Token: "tok", UserID: 9, Role: "Team Member"}

	require.NoError(t, store.Save(ctx, s, time.Minute))
	got, err := store.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.Token, got.Token)

	ttl, err := rdb.TTL(ctx, key(s.ID)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, store.Delete(ctx, s.ID))
	_, err = store.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
