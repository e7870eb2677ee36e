package domain

import (
	"errors"
	"strings"
)

// ErrNotFound is returned by repo and service functions when the requested
// trip does not exist.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when input fails business rule validation
// (missing required field, non-image upload, oversized file).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when the remote store rejects a write because the
// version token supplied with it is stale.
var ErrConflict = errors.New("version conflict")

// ErrUnauthorized is returned when a shared-secret password does not match
// or the remote store rejects our credentials.
var ErrUnauthorized = errors.New("unauthorized")

// ErrForbidden is returned when an action needs admin mode.
var ErrForbidden = errors.New("admin mode required")

// ErrConfirmationRequired is returned when a destructive action arrives
// without the explicit confirmation step.
var ErrConfirmationRequired = errors.New("confirmation required")

// ErrUnavailable marks transport failures: the remote store could not be
// reached or answered with an unexpected status.
var ErrUnavailable = errors.New("store unavailable")

// ValidationError lists every violated rule, not just the first one.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return ErrValidation.Error() + ": " + strings.Join(e.Violations, "; ")
}

// Unwrap lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// Violations extracts the rule list from err, or nil when err is not a
// *ValidationError.
func Violations(err error) []string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Violations
	}
	return nil
}
