package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iliyamo/contacts-api/internal/apperr"
	"github.com/iliyamo/contacts-api/internal/model"
)

// UserCache is the best-effort username -> user snapshot cache. No method
// reports an error: backend failures degrade to a miss or a no-op.
type UserCache interface {
	Get(ctx context.Context, username string) (model.User, bool)
	Set(ctx context.Context, u model.User, ttl time.Duration)
	Delete(ctx context.Context, username string)
	Ping(ctx context.Context) bool
}

// UserDirectory is the source of truth the resolver falls back to.
// FindByUsername returns an apperr.ErrNotFound error for unknown users.
type UserDirectory interface {
	FindByUsername(ctx context.Context, username string) (model.User, error)
}

// Resolver turns a bearer access token into the current user, reading the
// cache first and the directory on a miss.
type Resolver struct {
	tokens *TokenService
	cache  UserCache
	users  UserDirectory
	ttl    time.Duration
	log    *slog.Logger
}

// NewResolver wires a Resolver. Cache entries live as long as an access
// token.
func NewResolver(tokens *TokenService, cache UserCache, users UserDirectory, log *slog.Logger) *Resolver {
	return &Resolver{
		tokens: tokens,
		cache:  cache,
		users:  users,
		ttl:    tokens.AccessTTL(),
		log:    log,
	}
}

var errCredentials = apperr.Unauthenticated("could not validate credentials")

// Resolve returns the user owning raw. A cache hit skips the directory, so
// role or confirmation changes become visible only once the entry expires
// or a mutating operation deletes it.
func (r *Resolver) Resolve(ctx context.Context, raw string) (model.User, error) {
	if raw == "" {
		return model.User{}, errCredentials
	}
	username, err := r.tokens.ParseAccessToken(raw)
	if err != nil {
		return model.User{}, errCredentials
	}

	if u, ok := r.cache.Get(ctx, username); ok {
		return u, nil
	}

	u, err := r.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return model.User{}, errCredentials
		}
		r.log.ErrorContext(ctx, "resolve user: directory lookup failed",
			slog.String("username", username), slog.Any("error", err))
		return model.User{}, apperr.Upstream("could not load user", err)
	}

	r.cache.Set(ctx, u, r.ttl)
	return u, nil
}
