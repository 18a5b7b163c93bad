package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the identifier resolves to nothing in the catalog or store.
	ErrNotFound = errors.New("domain: not found")
	// ErrUpstreamUnavailable indicates a transport or auth failure against an external dependency.
	ErrUpstreamUnavailable = errors.New("domain: upstream unavailable")
	// ErrValidationFailed indicates malformed input parameters.
	ErrValidationFailed = errors.New("domain: validation failed")
	// ErrConflict indicates the write collides with existing state (duplicate review, repeated flag).
	ErrConflict = errors.New("domain: conflict")
	// ErrForbidden indicates the caller may not act on the resource.
	ErrForbidden = errors.New("domain: forbidden")
)

// ValidationError describes a single rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return ErrValidationFailed.Error()
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

// Invalid is shorthand for building a ValidationError.
func Invalid(field, reason string) error {
	return ValidationError{Field: field, Reason: reason}
}
