// Package apperr defines the error kinds shared by the auth core, the
// services and the HTTP layer. Handlers translate a kind into a status code
// with HTTPStatus; everything else only compares kinds with errors.Is.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds. Compare with errors.Is.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrInvalidToken       = errors.New("invalid token")
	ErrBadRequest         = errors.New("bad request")
	ErrValidation         = errors.New("validation failed")
	ErrUpstream           = errors.New("upstream failure")
)

// Error carries a kind plus the message shown to the client. Cause is kept
// for logs only and is never rendered.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// New builds an Error of the given kind.
func New(kind error, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Wrap builds an Error of the given kind that keeps cause for logging.
func Wrap(kind error, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func Unauthenticated(msg string) *Error { return New(ErrUnauthenticated, msg) }
func Forbidden(msg string) *Error       { return New(ErrForbidden, msg) }
func Conflict(msg string) *Error        { return New(ErrConflict, msg) }
func NotFound(msg string) *Error        { return New(ErrNotFound, msg) }
func InvalidToken(msg string) *Error    { return New(ErrInvalidToken, msg) }
func BadRequest(msg string) *Error      { return New(ErrBadRequest, msg) }

// Upstream marks a failure of mail, storage or database backends.
func Upstream(msg string, cause error) *Error { return Wrap(ErrUpstream, msg, cause) }

// HTTPStatus maps an error to the HTTP status the API replies with.
// Unknown errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ErrValidation):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message of err, or fallback when err
// does not carry one.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return fallback
}
