package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/iliyamo/contacts-api/internal/apperr"
)

// Purpose tells verifiers which flow a token was minted for. A token is
// only accepted by the parser of its own purpose.
type Purpose string

const (
	PurposeAccess            Purpose = "access"
	PurposeEmailConfirmation Purpose = "email_confirmation"
	PurposePasswordReset     Purpose = "password_reset"
)

// Fixed lifetimes of the out-of-band tokens.
const (
	ConfirmationTokenTTL  = 7 * 24 * time.Hour
	PasswordResetTokenTTL = time.Hour
)

// Claims is the payload of every token issued by TokenService.
type Claims struct {
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// TokenService issues and parses HMAC-signed JWTs. The secret and algorithm
// are fixed at construction and shared by every token kind.
type TokenService struct {
	secret    []byte
	method    jwt.SigningMethod
	accessTTL time.Duration
	now       func() time.Time
}

// NewTokenService builds a TokenService. algorithm must name an HMAC method
// (HS256, HS384 or HS512).
func NewTokenService(secret, algorithm string, accessTTL time.Duration) (*TokenService, error) {
	if secret == "" {
		return nil, fmt.Errorf("token service: empty secret")
	}
	method, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("token service: unsupported algorithm %q", algorithm)
	}
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	return &TokenService{
		secret:    []byte(secret),
		method:    method,
		accessTTL: accessTTL,
		now:       time.Now,
	}, nil
}

// AccessTTL is the configured session lifetime. The resolver reuses it as
// the user cache TTL.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// IssueAccessToken mints an access token for username with the configured
// session lifetime.
func (s *TokenService) IssueAccessToken(username string) (string, error) {
	return s.issue(username, PurposeAccess, s.accessTTL)
}

// IssueAccessTokenWithTTL mints an access token with an explicit lifetime.
// A zero or negative ttl yields a token that is already expired.
func (s *TokenService) IssueAccessTokenWithTTL(username string, ttl time.Duration) (string, error) {
	return s.issue(username, PurposeAccess, ttl)
}

// IssueConfirmationToken mints a 7-day email confirmation token.
func (s *TokenService) IssueConfirmationToken(email string) (string, error) {
	return s.issue(email, PurposeEmailConfirmation, ConfirmationTokenTTL)
}

// IssuePasswordResetToken mints a 1-hour password reset token.
func (s *TokenService) IssuePasswordResetToken(email string) (string, error) {
	return s.issue(email, PurposePasswordReset, PasswordResetTokenTTL)
}

func (s *TokenService) issue(subject string, purpose Purpose, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", purpose, err)
	}
	return signed, nil
}

// ParseSubject verifies signature, expiry and purpose of raw and returns its
// subject. Every failure is reported as the same InvalidToken error so
// callers cannot tell an expired token from a forged one.
func (s *TokenService) ParseSubject(raw string, purpose Purpose) (string, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !tok.Valid || claims.Purpose != purpose || claims.Subject == "" {
		return "", apperr.InvalidToken("invalid or expired token")
	}
	return claims.Subject, nil
}

// ParseAccessToken returns the username embedded in an access token.
func (s *TokenService) ParseAccessToken(raw string) (string, error) {
	return s.ParseSubject(raw, PurposeAccess)
}

// ParseConfirmationToken returns the email embedded in a confirmation token.
func (s *TokenService) ParseConfirmationToken(raw string) (string, error) {
	return s.ParseSubject(raw, PurposeEmailConfirmation)
}

// ParsePasswordResetToken returns the email embedded in a reset token.
func (s *TokenService) ParsePasswordResetToken(raw string) (string, error) {
	return s.ParseSubject(raw, PurposePasswordReset)
}
