package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is a registered user. Email is unique; Name is unique when set.
type Account struct {
	ID           uuid.UUID
	Email        string
	Name         *string
	PasswordHash []byte
	Verified     bool

	VerificationCode         *uuid.UUID
	VerificationCodeIssuedAt *time.Time
	ResetCode                *uuid.UUID
	ResetCodeIssuedAt        *time.Time

	PasswordUpdatedAt *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CredentialEpoch is the moment credentials issued for this account start to
// count: the last password change, or account creation if there was none.
func (a *Account) CredentialEpoch() time.Time {
	if a.PasswordUpdatedAt != nil {
		return *a.PasswordUpdatedAt
	}
	return a.CreatedAt
}

// AccountPatch is a partial update of an account.
type AccountPatch struct {
	Email    *string
	Name     Optional[string]
	Password *string
}

// Empty reports whether the patch changes nothing.
func (p AccountPatch) Empty() bool {
	return p.Email == nil && !p.Name.Set && p.Password == nil
}
