// Package service implements the account flows (register, login, email
// confirmation, password reset) and the user and contact operations the
// HTTP handlers call.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/contacts-api/internal/apperr"
	"github.com/iliyamo/contacts-api/internal/auth"
	"github.com/iliyamo/contacts-api/internal/model"
	"github.com/iliyamo/contacts-api/internal/repository"
	"github.com/iliyamo/contacts-api/internal/storage"
)

// UserStore is the user directory the services read and mutate.
// Lookups and mutations on a missing user return an apperr.ErrNotFound
// error; Insert returns an apperr.ErrConflict error on duplicates.
type UserStore interface {
	FindByID(ctx context.Context, id uint64) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	Insert(ctx context.Context, nu repository.NewUser, avatar string, role model.Role) (model.User, error)
	SetConfirmed(ctx context.Context, email string) error
	SetAvatar(ctx context.Context, email, url string) (model.User, error)
	SetPasswordHash(ctx context.Context, email, hash string) error
	SetRole(ctx context.Context, email string, role model.Role) (model.User, error)
}

// Mailer dispatches account emails. host is the base URL links point at.
type Mailer interface {
	SendConfirmation(ctx context.Context, email, username, host string) error
	SendPasswordReset(ctx context.Context, email, username, host string) error
}

// Client-facing messages of the account flows.
const (
	MsgCheckEmail       = "Check your email for confirmation instructions."
	MsgAlreadyConfirmed = "Your email is already confirmed"
	MsgEmailConfirmed   = "Email confirmed successfully"
	MsgResetRequested   = "If your email is registered, you will receive password reset instructions."
	MsgPasswordReset    = "Password has been successfully reset"
)

// backgroundTimeout bounds mail dispatch started after a response is decided.
const backgroundTimeout = 10 * time.Second

// RegisterInput is the payload of both registration endpoints.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// ResetInput is the payload of the password reset confirmation.
type ResetInput struct {
	Email       string
	NewPassword string
	Token       string
}

// AuthService runs the login, registration, confirmation and reset flows.
type AuthService struct {
	users  UserStore
	hasher *auth.Hasher
	tokens *auth.TokenService
	cache  auth.UserCache
	mailer Mailer
	log    *slog.Logger

	dispatch func(task func())

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(users UserStore, hasher *auth.Hasher, tokens *auth.TokenService, cache auth.UserCache, mailer Mailer, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		cache:    cache,
		mailer:   mailer,
		log:      log,
		dispatch: func(task func()) { go task() },
	}
}

// WithDispatcher replaces the goroutine launcher used for best-effort mail.
// Tests pass a synchronous dispatcher.
func (s *AuthService) WithDispatcher(d func(task func())) *AuthService {
	s.dispatch = d
	return s
}

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

// internalErr hides a backend failure behind a generic 500.
func internalErr(op string, err error) error {
	return apperr.Upstream("internal server error", fmt.Errorf("%s: %w", op, err))
}

// hashErr passes a rejected password through and hides anything else.
func hashErr(op string, err error) error {
	if errors.Is(err, apperr.ErrValidation) {
		return err
	}
	return internalErr(op, err)
}

// Register creates an account with role and queues the confirmation email.
// Email is checked before username; a mail failure is logged only.
func (s *AuthService) Register(ctx context.Context, in RegisterInput, role model.Role, host string) (model.User, error) {
	const op = "service.AuthService.Register"
	email := normalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return model.User{}, apperr.Conflict("User with this email already exists")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return model.User{}, internalErr(op, err)
	}
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return model.User{}, apperr.Conflict("User with this username already exists")
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return model.User{}, internalErr(op, err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return model.User{}, hashErr(op, err)
	}
	u, err := s.users.Insert(ctx, repository.NewUser{Username: username, Email: email, PasswordHash: hash},
		storage.GravatarURL(email), role)
	if err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			// lost a race with a concurrent registration
			return model.User{}, apperr.Conflict("User with this username or email already exists")
		}
		return model.User{}, internalErr(op, err)
	}

	s.background(ctx, "confirmation", u.Email, func(ctx context.Context) error {
		return s.mailer.SendConfirmation(ctx, u.Email, u.Username, host)
	})
	return u, nil
}

// Login checks credentials against the directory, never the cache, and
// returns a fresh access token. Unknown users and wrong passwords share
// one error.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, error) {
	const op = "service.AuthService.Login"
	bad := apperr.New(apperr.ErrInvalidCredentials, "Incorrect username or password")

	u, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			// burn the same bcrypt time as a real check
			s.hasher.Verify(password, s.dummy())
			return "", bad
		}
		return "", internalErr(op, err)
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return "", bad
	}
	if !u.Confirmed {
		return "", apperr.Unauthenticated("Email address is not confirmed")
	}

	token, err := s.tokens.IssueAccessToken(u.Username)
	if err != nil {
		return "", internalErr(op, err)
	}
	return token, nil
}

func (s *AuthService) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("timing-equalizer")
	})
	return s.dummyHash
}

// ConfirmEmail redeems a confirmation token.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) (string, error) {
	const op = "service.AuthService.ConfirmEmail"

	email, err := s.tokens.ParseConfirmationToken(token)
	if err != nil {
		return "", apperr.InvalidToken("Invalid token for email verification")
	}
	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", apperr.InvalidToken("Verification error")
		}
		return "", internalErr(op, err)
	}
	if u.Confirmed {
		return "", apperr.BadRequest(MsgAlreadyConfirmed)
	}
	if err := s.users.SetConfirmed(ctx, email); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", apperr.InvalidToken("Verification error")
		}
		return "", internalErr(op, err)
	}
	s.cache.Delete(ctx, u.Username)
	return MsgEmailConfirmed, nil
}

// RequestEmail resends the confirmation email. Unknown addresses get the
// same answer as known ones; a dispatch failure is reported because the
// user asked for this email explicitly.
func (s *AuthService) RequestEmail(ctx context.Context, email, host string) (string, error) {
	const op = "service.AuthService.RequestEmail"

	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return MsgCheckEmail, nil
		}
		return "", internalErr(op, err)
	}
	if u.Confirmed {
		return MsgAlreadyConfirmed, nil
	}
	if err := s.mailer.SendConfirmation(ctx, u.Email, u.Username, host); err != nil {
		return "", apperr.Upstream("Failed to send email. Check mail settings.", err)
	}
	return MsgCheckEmail, nil
}

// RequestPasswordReset queues a reset email when the address is known and
// answers identically either way.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email, host string) string {
	u, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	switch {
	case err == nil:
		s.background(ctx, "password_reset", u.Email, func(ctx context.Context) error {
			return s.mailer.SendPasswordReset(ctx, u.Email, u.Username, host)
		})
	case !errors.Is(err, apperr.ErrNotFound):
		s.log.ErrorContext(ctx, "password reset lookup failed", slog.Any("error", err))
	}
	return MsgResetRequested
}

// ConfirmPasswordReset stores a new password for the token's owner. The
// token must have been issued for the submitted email.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, in ResetInput) (string, error) {
	const op = "service.AuthService.ConfirmPasswordReset"

	tokenEmail, err := s.tokens.ParsePasswordResetToken(in.Token)
	if err != nil {
		return "", apperr.InvalidToken("Invalid or expired reset token")
	}
	email := normalizeEmail(in.Email)
	if normalizeEmail(tokenEmail) != email {
		return "", apperr.BadRequest("Invalid token or email mismatch")
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", apperr.NotFound("User not found")
		}
		return "", internalErr(op, err)
	}
	hash, err := s.hasher.Hash(in.NewPassword)
	if err != nil {
		return "", hashErr(op, err)
	}
	if err := s.users.SetPasswordHash(ctx, email, hash); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return "", apperr.NotFound("User not found")
		}
		return "", internalErr(op, err)
	}
	s.cache.Delete(ctx, u.Username)
	s.log.InfoContext(ctx, "password reset", slog.String("username", u.Username))
	return MsgPasswordReset, nil
}

func (s *AuthService) background(ctx context.Context, what, email string, fn func(context.Context) error) {
	bg := context.WithoutCancel(ctx)
	s.dispatch(func() {
		ctx, cancel := context.WithTimeout(bg, backgroundTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			s.log.ErrorContext(ctx, "email dispatch failed",
				slog.String("email_kind", what), slog.String("email", email), slog.Any("error", err))
		}
	})
}
