// Package auth holds the authentication and authorization core: password
// hashing, signed tokens, current-user resolution and role gating.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/contacts-api/internal/apperr"
)

// Hasher hashes and verifies passwords with bcrypt at a fixed cost.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher using cost, clamped to bcrypt's valid range.
// A zero cost selects bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	switch {
	case cost == 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted bcrypt digest of plain. Two calls with the same
// input produce different digests. A password over bcrypt's 72-byte limit
// is a validation error, not a backend failure.
func (h *Hasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", apperr.Wrap(apperr.ErrValidation, "password must be at most 72 bytes", err)
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports whether plain matches digest. Comparison is delegated to
// bcrypt, which compares in constant time.
func (h *Hasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
