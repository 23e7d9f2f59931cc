package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/contacts-api/internal/metrics"
	"github.com/iliyamo/contacts-api/internal/model"
)

func setupCache(t *testing.T) (*UserCache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return NewUserCache(rdb, "user", slog.New(slog.NewTextHandler(io.Discard, nil))), mr
}

func TestUserCache_SetGetDelete(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	u := model.User{
		ID:           3,
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$hash",
		Role:         model.RoleAdmin,
		Confirmed:    true,
		CreatedAt:    time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	c.Set(ctx, u, time.Hour)

	assert.True(t, mr.Exists("user:alice"))
	assert.Equal(t, time.Hour, mr.TTL("user:alice"))
	raw, err := mr.Get("user:alice")
	require.NoError(t, err)
	assert.NotContains(t, raw, "$2a$10$hash")

	got, ok := c.Get(ctx, "alice")
	require.True(t, ok)
	want := u
	want.PasswordHash = ""
	assert.Equal(t, want, got)

	c.Delete(ctx, "alice")
	_, ok = c.Get(ctx, "alice")
	assert.False(t, ok)
}

func TestUserCache_ExpiresWithTTL(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()

	c.Set(ctx, model.User{Username: "bob"}, time.Minute)
	mr.FastForward(2 * time.Minute)

	_, ok := c.Get(ctx, "bob")
	assert.False(t, ok)
}

func TestUserCache_HitMissMetrics(t *testing.T) {
	c, _ := setupCache(t)
	ctx := context.Background()

	hits := testutil.ToFloat64(metrics.UserCacheLookups.WithLabelValues("hit"))
	misses := testutil.ToFloat64(metrics.UserCacheLookups.WithLabelValues("miss"))

	c.Get(ctx, "carol")
	c.Set(ctx, model.User{Username: "carol"}, time.Minute)
	c.Get(ctx, "carol")

	assert.Equal(t, hits+1, testutil.ToFloat64(metrics.UserCacheLookups.WithLabelValues("hit")))
	assert.Equal(t, misses+1, testutil.ToFloat64(metrics.UserCacheLookups.WithLabelValues("miss")))
}

func TestUserCache_CorruptEntryIsMiss(t *testing.T) {
	c, mr := setupCache(t)
	require.NoError(t, mr.Set("user:dave", "{not json"))

	_, ok := c.Get(context.Background(), "dave")
	assert.False(t, ok)
}

func TestUserCache_BackendDownDegrades(t *testing.T) {
	c, mr := setupCache(t)
	ctx := context.Background()
	assert.True(t, c.Ping(ctx))

	mr.Close()

	assert.NotPanics(t, func() {
		c.Set(ctx, model.User{Username: "erin"}, time.Minute)
		c.Delete(ctx, "erin")
	})
	_, ok := c.Get(ctx, "erin")
	assert.False(t, ok)
	assert.False(t, c.Ping(ctx))
}

func TestUserCache_NilClient(t *testing.T) {
	c := NewUserCache(nil, "", slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	c.Set(ctx, model.User{Username: "frank"}, time.Minute)
	_, ok := c.Get(ctx, "frank")
	assert.False(t, ok)
	c.Delete(ctx, "frank")
	assert.False(t, c.Ping(ctx))
	assert.Equal(t, "user:frank", c.key("frank"))
}
