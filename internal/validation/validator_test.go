package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/contacts-api/internal/apperr"
)

type signup struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Role     string `form:"role" validate:"omitempty,oneof=user admin"`
}

func TestValidate(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(signup{Username: "alice", Email: "alice@example.com"}))

	err := v.Validate(signup{Username: "al", Email: "nope", Role: "root"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	assert.Equal(t, 422, apperr.HTTPStatus(err))

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, map[string]string{
		"username": "must be at least 3 characters",
		"email":    "must be a valid email address",
		"role":     "must be one of: user admin",
	}, ve.Fields())
	assert.Contains(t, err.Error(), "field 'email' must be a valid email address")
}

func TestValidate_Required(t *testing.T) {
	err := New().Validate(signup{})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "is required", ve.Fields()["username"])
	assert.Equal(t, "is required", ve.Fields()["email"])
}

type credentials struct {
	Password string `json:"password" validate:"required,min=6,bcryptlen"`
}

func TestValidate_PasswordByteLength(t *testing.T) {
	v := New()

	require.NoError(t, v.Validate(credentials{Password: strings.Repeat("a", 72)}))
	require.NoError(t, v.Validate(credentials{Password: strings.Repeat("п", 36)}))

	err := v.Validate(credentials{Password: strings.Repeat("п", 40)})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "must be at most 72 bytes", ve.Fields()["password"])
}
