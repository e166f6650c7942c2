package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/snipbin/internal/common"
	"github.com/dmitrijs2005/snipbin/internal/dbx"
	"github.com/dmitrijs2005/snipbin/internal/server/models"
	"github.com/google/uuid"
)

const selectColumns = `id, email, name, password_hash, verified,
	verification_code, verification_code_issued_at, reset_code, reset_code_issued_at,
	password_updated_at, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) error {
	query :=
		`INSERT INTO accounts (id, email, name, password_hash, verified,
			verification_code, verification_code_issued_at, reset_code, reset_code_issued_at,
			password_updated_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Email, a.Name, a.PasswordHash, a.Verified,
		a.VerificationCode, a.VerificationCodeIssuedAt, a.ResetCode, a.ResetCodeIssuedAt,
		a.PasswordUpdatedAt, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", duplicateOr(err, a))
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return r.getOne(ctx, `SELECT `+selectColumns+` FROM accounts WHERE id = $1`, id)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return r.getOne(ctx, `SELECT `+selectColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) GetByLogin(ctx context.Context, login string) (*models.Account, error) {
	query :=
		`SELECT ` + selectColumns + ` FROM accounts
		 WHERE email = $1 OR name = $1
		 ORDER BY (email = $1) DESC
		 LIMIT 1`
	return r.getOne(ctx, query, login)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.Account, error) {
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return a, nil
}

func (r *PostgresRepository) Update(ctx context.Context, a *models.Account) error {
	query :=
		`UPDATE accounts SET email = $2, name = $3, password_hash = $4, verified = $5,
			password_updated_at = $6, updated_at = $7
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		a.ID, a.Email, a.Name, a.PasswordHash, a.Verified, a.PasswordUpdatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", duplicateOr(err, a))
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) SetVerificationCode(ctx context.Context, id uuid.UUID, code uuid.UUID, issuedAt time.Time) error {
	query :=
		`UPDATE accounts SET verification_code = $2, verification_code_issued_at = $3
		 WHERE id = $1`
	return r.setCode(ctx, query, id, code, issuedAt)
}

func (r *PostgresRepository) SetResetCode(ctx context.Context, id uuid.UUID, code uuid.UUID, issuedAt time.Time) error {
	query :=
		`UPDATE accounts SET reset_code = $2, reset_code_issued_at = $3
		 WHERE id = $1`
	return r.setCode(ctx, query, id, code, issuedAt)
}

func (r *PostgresRepository) setCode(ctx context.Context, query string, id, code uuid.UUID, issuedAt time.Time) error {
	res, err := r.db.ExecContext(ctx, query, id, code, issuedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) ConsumeVerificationCode(ctx context.Context, id uuid.UUID, code uuid.UUID, notBefore, now time.Time) (bool, error) {
	query :=
		`UPDATE accounts SET verified = true, verification_code = NULL,
			verification_code_issued_at = NULL, updated_at = $4
		 WHERE id = $1 AND verification_code = $2 AND verification_code_issued_at > $3`

	res, err := r.db.ExecContext(ctx, query, id, code, notBefore, now)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := rowsAffected(res)
	return n == 1, err
}

func (r *PostgresRepository) ConsumeResetCode(ctx context.Context, id uuid.UUID, code uuid.UUID, notBefore, now time.Time, passwordHash []byte) (bool, error) {
	query :=
		`UPDATE accounts SET password_hash = $5, password_updated_at = $4, reset_code = NULL,
			reset_code_issued_at = NULL, updated_at = $4
		 WHERE id = $1 AND reset_code = $2 AND reset_code_issued_at > $3`

	res, err := r.db.ExecContext(ctx, query, id, code, notBefore, now, passwordHash)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := rowsAffected(res)
	return n == 1, err
}

func rowsAffected(res sql.Result) (int64, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	return n, nil
}

// duplicateOr turns a unique violation into a *common.DuplicateKeyError
// naming the offending column.
func duplicateOr(err error, a *models.Account) error {
	constraint, ok := dbx.UniqueViolation(err)
	if !ok {
		return err
	}
	switch constraint {
	case "accounts_email_key":
		return &common.DuplicateKeyError{Key: "email", Value: a.Email}
	case "accounts_name_key":
		dk := &common.DuplicateKeyError{Key: "name"}
		if a.Name != nil {
			dk.Value = *a.Name
		}
		return dk
	default:
		return &common.DuplicateKeyError{Key: "id"}
	}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (*models.Account, error) {
	var (
		a                             models.Account
		name                          sql.NullString
		verificationCode, resetCode   uuid.NullUUID
		verificationAt, resetAt, pwAt sql.NullTime
	)
	err := s.Scan(&a.ID, &a.Email, &name, &a.PasswordHash, &a.Verified,
		&verificationCode, &verificationAt, &resetCode, &resetAt,
		&pwAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if name.Valid {
		a.Name = &name.String
	}
	if verificationCode.Valid {
		a.VerificationCode = &verificationCode.UUID
	}
	if resetCode.Valid {
		a.ResetCode = &resetCode.UUID
	}
	a.VerificationCodeIssuedAt = utcPtr(verificationAt)
	a.ResetCodeIssuedAt = utcPtr(resetAt)
	a.PasswordUpdatedAt = utcPtr(pwAt)
	a.CreatedAt = a.CreatedAt.UTC()
	a.UpdatedAt = a.UpdatedAt.UTC()
	return &a, nil
}

func utcPtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}
