package accounts

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/snipbin/internal/common"
	"github.com/dmitrijs2005/snipbin/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps accounts in a map and enforces the same unique
// columns as the SQL schema.
type MemoryRepository struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]*models.Account
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[uuid.UUID]*models.Account)}
}

func cloneAccount(a *models.Account) *models.Account {
	c := *a
	c.PasswordHash = append([]byte(nil), a.PasswordHash...)
	c.Name = clonePtr(a.Name)
	c.VerificationCode = clonePtr(a.VerificationCode)
	c.VerificationCodeIssuedAt = clonePtr(a.VerificationCodeIssuedAt)
	c.ResetCode = clonePtr(a.ResetCode)
	c.ResetCodeIssuedAt = clonePtr(a.ResetCodeIssuedAt)
	c.PasswordUpdatedAt = clonePtr(a.PasswordUpdatedAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// conflict returns the unique column a clashes on with another account.
func (r *MemoryRepository) conflict(a *models.Account) error {
	for id, other := range r.accounts {
		if id == a.ID {
			continue
		}
		if other.Email == a.Email {
			return &common.DuplicateKeyError{Key: "email", Value: a.Email}
		}
		if a.Name != nil && other.Name != nil && *other.Name == *a.Name {
			return &common.DuplicateKeyError{Key: "name", Value: *a.Name}
		}
	}
	return nil
}

func (r *MemoryRepository) Create(ctx context.Context, a *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[a.ID]; ok {
		return &common.DuplicateKeyError{Key: "id"}
	}
	if err := r.conflict(a); err != nil {
		return err
	}
	r.accounts[a.ID] = cloneAccount(a)
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return cloneAccount(a), nil
}

// GetForUpdate relies on the caller's dbx.LockTransactor for exclusion.
func (r *MemoryRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return r.GetByID(ctx, id)
}

func (r *MemoryRepository) GetByLogin(ctx context.Context, login string) (*models.Account, error) {
	return r.find(func(a *models.Account) bool { return a.Email == login },
		func(a *models.Account) bool { return a.Name != nil && *a.Name == login })
}

// find returns the first account matching a predicate, trying predicates
// in order.
func (r *MemoryRepository) find(preds ...func(*models.Account) bool) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, pred := range preds {
		for _, a := range r.accounts {
			if pred(a) {
				return cloneAccount(a), nil
			}
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) Update(ctx context.Context, a *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.accounts[a.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if err := r.conflict(a); err != nil {
		return err
	}
	next := cloneAccount(cur)
	next.Email = a.Email
	next.Name = clonePtr(a.Name)
	next.PasswordHash = append([]byte(nil), a.PasswordHash...)
	next.Verified = a.Verified
	next.PasswordUpdatedAt = clonePtr(a.PasswordUpdatedAt)
	next.UpdatedAt = a.UpdatedAt
	r.accounts[a.ID] = next
	return nil
}

// mutate applies fn to a copy of the stored account and stores the copy.
func (r *MemoryRepository) mutate(id uuid.UUID, fn func(a *models.Account) bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.accounts[id]
	if !ok {
		return false, common.ErrorNotFound
	}
	next := cloneAccount(cur)
	if !fn(next) {
		return false, nil
	}
	r.accounts[id] = next
	return true, nil
}

func (r *MemoryRepository) SetVerificationCode(ctx context.Context, id uuid.UUID, code uuid.UUID, issuedAt time.Time) error {
	_, err := r.mutate(id, func(a *models.Account) bool {
		a.VerificationCode = &code
		a.VerificationCodeIssuedAt = &issuedAt
		return true
	})
	return err
}

func (r *MemoryRepository) SetResetCode(ctx context.Context, id uuid.UUID, code uuid.UUID, issuedAt time.Time) error {
	_, err := r.mutate(id, func(a *models.Account) bool {
		a.ResetCode = &code
		a.ResetCodeIssuedAt = &issuedAt
		return true
	})
	return err
}

func pending(code *uuid.UUID, issuedAt *time.Time, want uuid.UUID, notBefore time.Time) bool {
	return code != nil && *code == want && issuedAt != nil && issuedAt.After(notBefore)
}

func (r *MemoryRepository) ConsumeVerificationCode(ctx context.Context, id uuid.UUID, code uuid.UUID, notBefore, now time.Time) (bool, error) {
	ok, err := r.mutate(id, func(a *models.Account) bool {
		if !pending(a.VerificationCode, a.VerificationCodeIssuedAt, code, notBefore) {
			return false
		}
		a.Verified = true
		a.VerificationCode = nil
		a.VerificationCodeIssuedAt = nil
		a.UpdatedAt = now
		return true
	})
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	return ok, err
}

func (r *MemoryRepository) ConsumeResetCode(ctx context.Context, id uuid.UUID, code uuid.UUID, notBefore, now time.Time, passwordHash []byte) (bool, error) {
	ok, err := r.mutate(id, func(a *models.Account) bool {
		if !pending(a.ResetCode, a.ResetCodeIssuedAt, code, notBefore) {
			return false
		}
		a.PasswordHash = append([]byte(nil), passwordHash...)
		a.PasswordUpdatedAt = &now
		a.ResetCode = nil
		a.ResetCodeIssuedAt = nil
		a.UpdatedAt = now
		return true
	})
	if errors.Is(err, common.ErrorNotFound) {
		return false, nil
	}
	return ok, err
}
