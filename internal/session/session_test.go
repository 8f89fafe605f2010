package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"projecthub/internal/model"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "7", "exp": exp.Unix()})
	s, err := tok.SignedString([]byte("upstream-secret"))
	require.NoError(t, err)
	return s
}

func TestNewFromLogin(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	exp := now.Add(2 * time.Hour)

	s := NewFromLogin(model.LoginResponse{Token: signed(t, exp), Role: "Team Member", UserID: 7, Name: "Ana"}, now)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, 7, s.UserID)
	assert.Equal(t, exp.Unix(), s.ExpiresAt.Unix())
	assert.False(t, s.Expired(now))
	assert.True(t, s.Expired(exp))
	assert.Equal(t, 2*time.Hour, s.TTL(24*time.Hour, now).Round(time.Second))
	assert.False(t, s.IsProjectManager())
}

func TestOpaqueToken(t *testing.T) {
	now := time.Now()
	s := NewFromLogin(model.LoginResponse{Token: "12|plain-sanctum-token", Role: "Project Manager", UserID: 1}, now)
	assert.True(t, s.ExpiresAt.IsZero())
	assert.False(t, s.Expired(now.Add(1000*time.Hour)))
	assert.Equal(t, time.Hour, s.TTL(time.Hour, now))
	assert.True(t, s.IsProjectManager())
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Now()
	store.now = func() time.Time { return now }

	s := &Session{ID: "abc", Token: "tok", UserID: 3}
	require.NoError(t, store.Save(ctx, s, time.Minute))

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "tok", got.Token)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, s, time.Minute))
	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.Save(ctx, s, 0), ErrExpired)
}

func TestContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	ctx := WithContext(context.Background(), &Session{ID: "x"})
	s, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "x", s.ID)
}
