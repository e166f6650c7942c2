// Package accounts stores user accounts.
package accounts

import (
	"context"
	"time"

	"github.com/dmitrijs2005/snipbin/internal/server/models"
	"github.com/google/uuid"
)

// Repository is the account store.
//
// Create and Update fail with a *common.DuplicateKeyError (key "email" or
// "name") when another account holds the value. Missing accounts yield
// common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	// GetForUpdate is GetByID that also locks the row for the surrounding
	// transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Account, error)
	// GetByLogin finds the account whose email or name equals login. An
	// email match wins over a name match.
	GetByLogin(ctx context.Context, login string) (*models.Account, error)
	// Update writes email, name, password hash, verified flag and
	// timestamps. One-time codes are left alone.
	Update(ctx context.Context, account *models.Account) error

	// SetVerificationCode replaces the pending verification code.
	SetVerificationCode(ctx context.Context, id uuid.UUID, code uuid.UUID, issuedAt time.Time) error
	// ConsumeVerificationCode marks the account verified and clears the
	// code, but only if code is still pending and was issued after
	// notBefore. It reports whether that happened.
	ConsumeVerificationCode(ctx context.Context, id uuid.UUID, code uuid.UUID, notBefore, now time.Time) (bool, error)
	// SetResetCode replaces the pending password reset code.
	SetResetCode(ctx context.Context, id uuid.UUID, code uuid.UUID, issuedAt time.Time) error
	// ConsumeResetCode stores passwordHash and clears the code under the
	// same conditions as ConsumeVerificationCode. The password change time
	// becomes now.
	ConsumeResetCode(ctx context.Context, id uuid.UUID, code uuid.UUID, notBefore, now time.Time, passwordHash []byte) (bool, error)
}
