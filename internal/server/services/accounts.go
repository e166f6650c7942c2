package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/snipbin/internal/common"
	"github.com/dmitrijs2005/snipbin/internal/dbx"
	"github.com/dmitrijs2005/snipbin/internal/logging"
	"github.com/dmitrijs2005/snipbin/internal/server/config"
	mailer "github.com/dmitrijs2005/snipbin/internal/server/mail"
	"github.com/dmitrijs2005/snipbin/internal/server/models"
	"github.com/dmitrijs2005/snipbin/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	AccountNameMaxLen = 32
	PasswordMinLen    = 4
	// PasswordMaxLen is bcrypt's input limit in bytes.
	PasswordMaxLen = 72
)

// PasswordHasher hashes and checks passwords.
type PasswordHasher interface {
	Hash(password string) ([]byte, error)
	Compare(hash []byte, password string) error
}

// BcryptHasher is the production PasswordHasher.
type BcryptHasher struct {
	Cost int
}

func (h BcryptHasher) Hash(password string) ([]byte, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return bcrypt.GenerateFromPassword([]byte(password), cost)
}

func (h BcryptHasher) Compare(hash []byte, password string) error {
	return bcrypt.CompareHashAndPassword(hash, []byte(password))
}

// TokenIssuer mints access credentials. *auth.Codec implements it.
type TokenIssuer interface {
	Encode(subject string) (string, error)
}

// Registration is the input of AccountService.Register.
type Registration struct {
	Email    string
	Name     *string
	Password string
}

// AccountService provides account operations:
//   - Register, Get, Update
//   - Login: check the password and mint a credential
//   - RequestVerification / Verify: confirm the email address
//   - RequestPasswordReset / ResetPassword
type AccountService struct {
	tx              dbx.Transactor
	repomanager     repomanager.RepositoryManager
	hasher          PasswordHasher
	issuer          TokenIssuer
	sender          mailer.Sender
	baseURL         string
	verificationTTL time.Duration
	resetTTL        time.Duration
	now             func() time.Time
	newCode         func() uuid.UUID
	log             logging.Logger

	// dummyHash is compared against when the login is unknown, so both
	// failure paths cost one bcrypt comparison.
	dummyHash []byte
}

// AccountOption customizes an AccountService.
type AccountOption func(*AccountService)

func WithAccountClock(now func() time.Time) AccountOption {
	return func(s *AccountService) { s.now = now }
}

func WithCodeSource(next func() uuid.UUID) AccountOption {
	return func(s *AccountService) { s.newCode = next }
}

func WithPasswordHasher(h PasswordHasher) AccountOption {
	return func(s *AccountService) { s.hasher = h }
}

// NewAccountService fails if the hasher cannot produce the dummy hash used
// for unknown logins.
func NewAccountService(tx dbx.Transactor, m repomanager.RepositoryManager, issuer TokenIssuer,
	sender mailer.Sender, cfg *config.Config, log logging.Logger, opts ...AccountOption) (*AccountService, error) {
	s := &AccountService{
		tx:              tx,
		repomanager:     m,
		hasher:          BcryptHasher{},
		issuer:          issuer,
		sender:          sender,
		baseURL:         cfg.WebsiteBaseURL,
		verificationTTL: cfg.VerificationCodeTTL,
		resetTTL:        cfg.ResetCodeTTL,
		now:             time.Now,
		newCode:         uuid.New,
		log:             log.With("module", "accounts"),
	}
	for _, opt := range opts {
		opt(s)
	}
	dummy, err := s.hasher.Hash("snipbin-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("hash dummy password: %w", err)
	}
	s.dummyHash = dummy
	return s, nil
}

func (s *AccountService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

// Register creates an unverified account.
func (s *AccountService) Register(ctx context.Context, in Registration) (*models.Account, error) {
	if err := validateEmail(in.Email); err != nil {
		return nil, err
	}
	name, err := normalizeName(in.Name)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.timestamp()
	a := &models.Account{
		ID:           uuid.New(),
		Email:        in.Email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repomanager.Accounts(s.tx.Conn()).Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AccountService) Get(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return s.repomanager.Accounts(s.tx.Conn()).GetByID(ctx, id)
}

// Update changes the caller's own account. A new email drops the verified
// flag; a new password invalidates credentials issued before it.
func (s *AccountService) Update(ctx context.Context, userID, id uuid.UUID, patch models.AccountPatch) (*models.Account, error) {
	if userID != id {
		return nil, common.ErrForbidden
	}
	if patch.Email != nil {
		if err := validateEmail(*patch.Email); err != nil {
			return nil, err
		}
	}
	var name *string
	if patch.Name.Set {
		var err error
		if name, err = normalizeName(patch.Name.Value); err != nil {
			return nil, err
		}
	}
	var hash []byte
	if patch.Password != nil {
		if err := validatePassword(*patch.Password); err != nil {
			return nil, err
		}
		var err error
		if hash, err = s.hasher.Hash(*patch.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	var account *models.Account
	err := s.tx.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)

		a, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if patch.Empty() {
			account = a
			return nil
		}

		now := s.timestamp()
		if patch.Email != nil && *patch.Email != a.Email {
			a.Email = *patch.Email
			a.Verified = false
		}
		if patch.Name.Set {
			a.Name = name
		}
		if hash != nil {
			a.PasswordHash = hash
			a.PasswordUpdatedAt = &now
		}
		a.UpdatedAt = now

		if err := repo.Update(ctx, a); err != nil {
			return err
		}
		account = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// Login finds the account by email or name and checks the password. Both an
// unknown login and a wrong password yield common.ErrorUnauthorized.
func (s *AccountService) Login(ctx context.Context, login, password string) (*models.Account, string, error) {
	a, err := s.repomanager.Accounts(s.tx.Conn()).GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = s.hasher.Compare(s.dummyHash, password)
			return nil, "", common.ErrorUnauthorized
		}
		return nil, "", err
	}

	if err := s.hasher.Compare(a.PasswordHash, password); err != nil {
		return nil, "", common.ErrorUnauthorized
	}

	token, err := s.issuer.Encode(a.ID.String())
	if err != nil {
		return nil, "", err
	}
	return a, token, nil
}

// RequestVerification issues a fresh verification code and mails the link.
func (s *AccountService) RequestVerification(ctx context.Context, a *models.Account) error {
	code := s.newCode()
	if err := s.repomanager.Accounts(s.tx.Conn()).SetVerificationCode(ctx, a.ID, code, s.timestamp()); err != nil {
		return err
	}
	return s.send(ctx, a, "verify", code, "Verify your address", "Email Confirmation", "Confirm your email address.")
}

// Verify consumes the pending verification code and returns the now
// verified account.
func (s *AccountService) Verify(ctx context.Context, a *models.Account, code uuid.UUID) (*models.Account, error) {
	now := s.timestamp()
	notBefore := now.Add(-s.verificationTTL)

	if err := checkCode(a.VerificationCode, a.VerificationCodeIssuedAt, code, notBefore); err != nil {
		return nil, err
	}

	var account *models.Account
	err := s.tx.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Accounts(tx)
		ok, err := repo.ConsumeVerificationCode(ctx, a.ID, code, notBefore, now)
		if err != nil {
			return err
		}
		if !ok {
			return common.ErrInvalidCode
		}
		account, err = repo.GetByID(ctx, a.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// RequestPasswordReset issues a fresh reset code and mails the link.
func (s *AccountService) RequestPasswordReset(ctx context.Context, a *models.Account) error {
	code := s.newCode()
	if err := s.repomanager.Accounts(s.tx.Conn()).SetResetCode(ctx, a.ID, code, s.timestamp()); err != nil {
		return err
	}
	return s.send(ctx, a, "reset", code, "Password Reset", "Password Reset", "Reset your password.")
}

// ResetPassword consumes the pending reset code and sets password.
// Credentials issued before the reset stop working.
func (s *AccountService) ResetPassword(ctx context.Context, a *models.Account, code uuid.UUID, password string) error {
	if err := validatePassword(password); err != nil {
		return err
	}

	now := s.timestamp()
	notBefore := now.Add(-s.resetTTL)

	if err := checkCode(a.ResetCode, a.ResetCodeIssuedAt, code, notBefore); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	// Serialized with Update, which rewrites the password columns.
	return s.tx.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		ok, err := s.repomanager.Accounts(tx).ConsumeResetCode(ctx, a.ID, code, notBefore, now, hash)
		if err != nil {
			return err
		}
		if !ok {
			return common.ErrInvalidCode
		}
		return nil
	})
}

func (s *AccountService) send(ctx context.Context, a *models.Account, action string, code uuid.UUID, subject, title, description string) error {
	link, err := mailer.ActionLink(s.baseURL, action, code.String())
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, mailer.Message{
		To:          a.Email,
		Subject:     subject,
		Title:       title,
		Description: description,
		Link:        link,
	}); err != nil {
		return fmt.Errorf("send %s mail: %w", action, err)
	}
	return nil
}

// checkCode classifies a one-time code attempt: nothing pending, expired
// (issued at or before notBefore) or not the pending code.
func checkCode(pending *uuid.UUID, issuedAt *time.Time, code uuid.UUID, notBefore time.Time) error {
	if pending == nil || issuedAt == nil {
		return common.ErrNoPendingCode
	}
	if !issuedAt.After(notBefore) {
		return common.ErrCodeExpired
	}
	if *pending != code {
		return common.ErrInvalidCode
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return common.NewFieldError("email", fmt.Errorf("%w: not an email address", common.ErrValidation))
	}
	return nil
}

// normalizeName turns an empty name into no name and enforces the length
// limit.
func normalizeName(name *string) (*string, error) {
	if name == nil {
		return nil, nil
	}
	n := strings.TrimSpace(*name)
	if n == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(n) > AccountNameMaxLen {
		return nil, common.NewFieldError("name", fmt.Errorf("%w: at most %d characters", common.ErrValidation, AccountNameMaxLen))
	}
	return &n, nil
}

func validatePassword(password string) error {
	if n := len(password); n < PasswordMinLen || n > PasswordMaxLen {
		return common.NewFieldError("password",
			fmt.Errorf("%w: must be %d to %d bytes", common.ErrValidation, PasswordMinLen, PasswordMaxLen))
	}
	return nil
}
