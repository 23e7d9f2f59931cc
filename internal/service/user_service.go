package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/iliyamo/contacts-api/internal/apperr"
	"github.com/iliyamo/contacts-api/internal/auth"
	"github.com/iliyamo/contacts-api/internal/model"
	"github.com/iliyamo/contacts-api/internal/storage"
)

// Uploader stores an avatar image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, data []byte, contentType, owner string) (string, error)
}

// UserService mutates profile fields that are also cached, and evicts the
// cache entry after every change.
type UserService struct {
	users    UserStore
	uploader Uploader
	cache    auth.UserCache
	log      *slog.Logger
}

func NewUserService(users UserStore, uploader Uploader, cache auth.UserCache, log *slog.Logger) *UserService {
	return &UserService{users: users, uploader: uploader, cache: cache, log: log}
}

// UpdateAvatar uploads a new avatar for current. Unconfirmed users are
// refused.
func (s *UserService) UpdateAvatar(ctx context.Context, current model.User, data []byte, contentType string) (model.User, error) {
	if !current.Confirmed {
		return model.User{}, apperr.Forbidden("Email must be confirmed before updating avatar")
	}
	url, err := s.uploader.Upload(ctx, data, contentType, current.Username)
	if err != nil {
		if errors.Is(err, apperr.ErrUpstream) {
			s.log.ErrorContext(ctx, "avatar upload failed", slog.String("username", current.Username), slog.Any("error", err))
		}
		return model.User{}, err
	}
	return s.setAvatar(ctx, current, url)
}

// ResetAvatar replaces the avatar of current with its Gravatar default.
func (s *UserService) ResetAvatar(ctx context.Context, current model.User) (model.User, error) {
	return s.setAvatar(ctx, current, storage.GravatarURL(current.Email))
}

func (s *UserService) setAvatar(ctx context.Context, current model.User, url string) (model.User, error) {
	u, err := s.users.SetAvatar(ctx, current.Email, url)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return model.User{}, apperr.NotFound("User not found")
		}
		return model.User{}, internalErr("service.UserService.setAvatar", err)
	}
	s.cache.Delete(ctx, current.Username)
	return u, nil
}

// UpdateRole sets the role of the user with email. The target's cache entry
// is evicted so its next request sees the new role.
func (s *UserService) UpdateRole(ctx context.Context, email string, role model.Role) (model.User, error) {
	if !role.Valid() {
		return model.User{}, apperr.BadRequest("Unknown role")
	}
	u, err := s.users.SetRole(ctx, normalizeEmail(email), role)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return model.User{}, apperr.NotFound("User not found")
		}
		return model.User{}, internalErr("service.UserService.UpdateRole", err)
	}
	s.cache.Delete(ctx, u.Username)
	s.log.InfoContext(ctx, "role updated", slog.String("username", u.Username), slog.String("role", string(role)))
	return u, nil
}
