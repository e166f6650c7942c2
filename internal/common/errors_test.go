package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialErrors_WrapUnauthorized(t *testing.T) {
	for _, err := range []error{
		ErrNoCredential,
		ErrMalformedCredential,
		ErrExpiredCredential,
		ErrUnknownPrincipal,
		ErrInvalidatedCredential,
	} {
		assert.ErrorIs(t, err, ErrorUnauthorized, err.Error())
	}
	assert.NotErrorIs(t, ErrSigningUnavailable, ErrorUnauthorized)
}

func TestValidationErrors_WrapValidation(t *testing.T) {
	for _, err := range []error{ErrInvalidSortKey, ErrInvalidToken, ErrInvalidComparator, ErrPageSizeTooLarge, ErrInvalidPageSize} {
		assert.ErrorIs(t, err, ErrValidation, err.Error())
	}
}

func TestDuplicateKeyError(t *testing.T) {
	err := fmt.Errorf("db error: %w", &DuplicateKeyError{Key: "email", Value: "a@b.c"})

	require.ErrorIs(t, err, ErrDuplicateKey)

	var dk *DuplicateKeyError
	require.True(t, errors.As(err, &dk))
	assert.Equal(t, "email", dk.Key)
	assert.Equal(t, "an entry with email 'a@b.c' already exists", dk.Error())
	assert.Equal(t, `duplicate key "id"`, (&DuplicateKeyError{Key: "id"}).Error())
}

func TestFieldError(t *testing.T) {
	err := NewFieldError("token", ErrInvalidToken)

	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "token: validation error: invalid continuation token", err.Error())
}
