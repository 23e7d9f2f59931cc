// Package cache implements the Redis-backed user cache consulted by the
// current-user resolver.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/contacts-api/internal/metrics"
	"github.com/iliyamo/contacts-api/internal/model"
)

// UserCache stores user snapshots under "<prefix>:<username>". It never
// returns errors: a nil client or a failing Redis behaves like an empty
// cache, and failures are logged.
type UserCache struct {
	rdb    *redis.Client
	prefix string
	log    *slog.Logger
}

// NewUserCache wraps rdb. rdb may be nil when Redis was unreachable at
// startup.
func NewUserCache(rdb *redis.Client, prefix string, log *slog.Logger) *UserCache {
	if prefix == "" {
		prefix = "user"
	}
	return &UserCache{rdb: rdb, prefix: prefix, log: log}
}

func (c *UserCache) key(username string) string { return c.prefix + ":" + username }

// Get returns the cached snapshot for username.
func (c *UserCache) Get(ctx context.Context, username string) (model.User, bool) {
	if c.rdb == nil {
		metrics.UserCacheLookups.WithLabelValues("miss").Inc()
		return model.User{}, false
	}
	b, err := c.rdb.Get(ctx, c.key(username)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.UserCacheLookups.WithLabelValues("miss").Inc()
			return model.User{}, false
		}
		metrics.UserCacheLookups.WithLabelValues("error").Inc()
		c.log.WarnContext(ctx, "user cache get failed", slog.String("username", username), slog.Any("error", err))
		return model.User{}, false
	}
	var u model.User
	if err := json.Unmarshal(b, &u); err != nil {
		metrics.UserCacheLookups.WithLabelValues("error").Inc()
		c.log.WarnContext(ctx, "user cache entry is corrupt", slog.String("username", username), slog.Any("error", err))
		return model.User{}, false
	}
	metrics.UserCacheLookups.WithLabelValues("hit").Inc()
	return u, true
}

// Set stores u under its username for ttl. The password hash is not part
// of the snapshot.
func (c *UserCache) Set(ctx context.Context, u model.User, ttl time.Duration) {
	if c.rdb == nil {
		return
	}
	b, err := json.Marshal(u)
	if err != nil {
		c.log.WarnContext(ctx, "user cache encode failed", slog.String("username", u.Username), slog.Any("error", err))
		return
	}
	if err := c.rdb.Set(ctx, c.key(u.Username), b, ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "user cache set failed", slog.String("username", u.Username), slog.Any("error", err))
	}
}

// Delete evicts username.
func (c *UserCache) Delete(ctx context.Context, username string) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, c.key(username)).Err(); err != nil {
		c.log.WarnContext(ctx, "user cache delete failed", slog.String("username", username), slog.Any("error", err))
	}
}

// Ping reports whether Redis answers within a short timeout.
func (c *UserCache) Ping(ctx context.Context) bool {
	if c.rdb == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	return c.rdb.Ping(ctx).Err() == nil
}
