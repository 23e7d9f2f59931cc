package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/contacts-api/internal/apperr"
)

const testSecret = "test-secret-key-that-is-long-enough"

func newTestTokens(t *testing.T) *TokenService {
	t.Helper()
	s, err := NewTokenService(testSecret, "HS256", time.Hour)
	require.NoError(t, err)
	return s
}

func withClock(s *TokenService, at time.Time) { s.now = func() time.Time { return at } }

func TestNewTokenService(t *testing.T) {
	_, err := NewTokenService("", "HS256", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService(testSecret, "RS256", time.Hour)
	assert.Error(t, err)

	_, err = NewTokenService(testSecret, "none", time.Hour)
	assert.Error(t, err)

	s, err := NewTokenService(testSecret, "HS512", 0)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, s.AccessTTL())
}

func TestTokenService_AccessRoundTrip(t *testing.T) {
	s := newTestTokens(t)
	for _, username := range []string{"alice", "bob_99", "user.with.dots", "ünïcødé"} {
		tok, err := s.IssueAccessToken(username)
		require.NoError(t, err)

		got, err := s.ParseAccessToken(tok)
		require.NoError(t, err)
		assert.Equal(t, username, got)
	}
}

func TestTokenService_ConfirmationAndResetRoundTrip(t *testing.T) {
	s := newTestTokens(t)

	ct, err := s.IssueConfirmationToken("a@example.com")
	require.NoError(t, err)
	email, err := s.ParseConfirmationToken(ct)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", email)

	rt, err := s.IssuePasswordResetToken("a@example.com")
	require.NoError(t, err)
	email, err = s.ParsePasswordResetToken(rt)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", email)
}

func TestTokenService_RejectsOtherPurpose(t *testing.T) {
	s := newTestTokens(t)

	confirm, err := s.IssueConfirmationToken("a@example.com")
	require.NoError(t, err)
	reset, err := s.IssuePasswordResetToken("a@example.com")
	require.NoError(t, err)
	access, err := s.IssueAccessToken("alice")
	require.NoError(t, err)

	_, err = s.ParsePasswordResetToken(confirm)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	_, err = s.ParseConfirmationToken(reset)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	_, err = s.ParseAccessToken(confirm)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	_, err = s.ParseConfirmationToken(access)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestTokenService_Expiry(t *testing.T) {
	s := newTestTokens(t)
	issuedAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	withClock(s, issuedAt)

	zero, err := s.IssueAccessTokenWithTTL("alice", 0)
	require.NoError(t, err)
	past, err := s.IssueAccessTokenWithTTL("alice", -time.Minute)
	require.NoError(t, err)
	reset, err := s.IssuePasswordResetToken("a@example.com")
	require.NoError(t, err)
	confirm, err := s.IssueConfirmationToken("a@example.com")
	require.NoError(t, err)

	withClock(s, issuedAt.Add(time.Second))
	_, err = s.ParseAccessToken(zero)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	_, err = s.ParseAccessToken(past)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)

	withClock(s, issuedAt.Add(59*time.Minute))
	_, err = s.ParsePasswordResetToken(reset)
	assert.NoError(t, err)

	withClock(s, issuedAt.Add(61*time.Minute))
	_, err = s.ParsePasswordResetToken(reset)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
	_, err = s.ParseConfirmationToken(confirm)
	assert.NoError(t, err)

	withClock(s, issuedAt.Add(ConfirmationTokenTTL+time.Second))
	_, err = s.ParseConfirmationToken(confirm)
	assert.ErrorIs(t, err, apperr.ErrInvalidToken)
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	s := newTestTokens(t)
	now := time.Now()

	other, err := NewTokenService("a-completely-different-secret-value", "HS256", time.Hour)
	require.NoError(t, err)
	foreign, err := other.IssueAccessToken("alice")
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Purpose:          PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	otherAlg, err := jwt.NewWithClaims(jwt.SigningMethodHS384, Claims{
		Purpose: PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		Purpose: PurposeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSubject, err := s.issue("", PurposeAccess, time.Hour)
	require.NoError(t, err)

	valid, err := s.IssueAccessToken("alice")
	require.NoError(t, err)
	flip := byte('A')
	if valid[len(valid)-3] == 'A' {
		flip = 'B'
	}
	tampered := valid[:len(valid)-3] + string(flip) + valid[len(valid)-2:]

	cases := map[string]string{
		"wrong secret":  foreign,
		"missing exp":   noExp,
		"other alg":     otherAlg,
		"alg none":      unsigned,
		"empty subject": noSubject,
		"tampered":      tampered,
		"malformed":     "not.a.jwt",
		"empty":         "",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := s.ParseAccessToken(tok)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrInvalidToken)
			assert.Equal(t, "invalid or expired token", apperr.Message(err, ""))
		})
	}
}
