// Package common defines shared constants and sentinel errors used across
// the snipbin server and client. Callers should use errors.Is / errors.As to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound   = errors.New("not found")
	ErrDuplicateKey = errors.New("duplicate key")

	// Service-level errors.
	ErrorInternal  = errors.New("internal error")
	ErrForbidden   = errors.New("forbidden")
	ErrNotVerified = errors.New("account is not verified")

	// Credential errors. Every failure mode wraps ErrorUnauthorized so the
	// transport can answer with a single indistinguishable response.
	ErrorUnauthorized        = errors.New("unauthorized")
	ErrNoCredential          = fmt.Errorf("%w: no credential", ErrorUnauthorized)
	ErrMalformedCredential   = fmt.Errorf("%w: malformed credential", ErrorUnauthorized)
	ErrExpiredCredential     = fmt.Errorf("%w: expired credential", ErrorUnauthorized)
	ErrUnknownPrincipal      = fmt.Errorf("%w: unknown principal", ErrorUnauthorized)
	ErrInvalidatedCredential = fmt.Errorf("%w: token has been invalidated", ErrorUnauthorized)
	ErrSigningUnavailable    = errors.New("no signing key configured")

	// Validation errors.
	ErrValidation        = errors.New("validation error")
	ErrInvalidSortKey    = fmt.Errorf("%w: invalid sort key", ErrValidation)
	ErrInvalidToken      = fmt.Errorf("%w: invalid continuation token", ErrValidation)
	ErrInvalidComparator = fmt.Errorf("%w: invalid comparator", ErrValidation)
	ErrPageSizeTooLarge  = fmt.Errorf("%w: page size too large", ErrValidation)
	ErrInvalidPageSize   = fmt.Errorf("%w: invalid page size", ErrValidation)

	// One-time code errors (email verification, password reset).
	ErrNoPendingCode = errors.New("no pending code")
	ErrCodeExpired   = errors.New("code has expired")
	ErrInvalidCode   = errors.New("invalid code")
)

// DuplicateKeyError reports a unique index violation on Key.
type DuplicateKeyError struct {
	Key   string
	Value string
}

func (e *DuplicateKeyError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("duplicate key %q", e.Key)
	}
	return fmt.Sprintf("an entry with %s '%s' already exists", e.Key, e.Value)
}

func (e *DuplicateKeyError) Unwrap() error { return ErrDuplicateKey }

// FieldError ties a validation failure to the request field that caused it.
type FieldError struct {
	Field string
	Err   error
}

// NewFieldError wraps err with the offending field name.
func NewFieldError(field string, err error) *FieldError {
	return &FieldError{Field: field, Err: err}
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Err.Error() }

func (e *FieldError) Unwrap() error { return e.Err }
