package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/snipbin/internal/common"
	"github.com/dmitrijs2005/snipbin/internal/server/config"
	"github.com/dmitrijs2005/snipbin/internal/server/models"
	"github.com/google/uuid"
)

// InvalidationGrace is subtracted from an account's credential epoch before
// comparing it with iat, so credentials issued moments before a password
// change on another replica are not rejected.
const InvalidationGrace = 30 * time.Second

// AccountSource looks accounts up by id. It returns common.ErrorNotFound
// when there is no such account.
type AccountSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID   uuid.UUID
	IssuedAt time.Time
	// Account is only loaded by strict validation.
	Account *models.Account
}

// Validator runs the credential state machine: extract, decode and, in
// strict mode, check the account still exists and the credential was not
// issued before the last password change.
type Validator struct {
	codec    *Codec
	accounts AccountSource
	source   string
}

func NewValidator(codec *Codec, accounts AccountSource, cfg *config.Config) *Validator {
	return &Validator{codec: codec, accounts: accounts, source: cfg.CredentialSource}
}

// Authenticate extracts the credential from r and validates it.
func (v *Validator) Authenticate(ctx context.Context, r *http.Request, strict bool) (*Principal, error) {
	raw, err := v.Extract(r)
	if err != nil {
		return nil, err
	}
	return v.Validate(ctx, raw, strict)
}

// Extract reads the raw credential from the Authorization header, the
// access_token cookie, or either (header first) depending on configuration.
func (v *Validator) Extract(r *http.Request) (string, error) {
	if v.source != config.CredentialSourceCookie {
		if h := r.Header.Get(common.AuthorizationHeaderName); h != "" {
			scheme, token, ok := strings.Cut(h, " ")
			if !ok || !strings.EqualFold(scheme, common.BearerScheme) || strings.TrimSpace(token) == "" {
				return "", fmt.Errorf("%w: bad authorization header", common.ErrMalformedCredential)
			}
			return strings.TrimSpace(token), nil
		}
	}

	if v.source != config.CredentialSourceHeader {
		if c, err := r.Cookie(common.AccessTokenCookieName); err == nil && c.Value != "" {
			return c.Value, nil
		}
	}

	return "", common.ErrNoCredential
}

// Validate decodes raw and, when strict, checks it against the account.
// Store failures are returned as-is and do not wrap common.ErrorUnauthorized.
func (v *Validator) Validate(ctx context.Context, raw string, strict bool) (*Principal, error) {
	claims, err := v.codec.Decode(raw)
	if err != nil {
		return nil, err
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, common.ErrUnknownPrincipal
	}

	p := &Principal{UserID: userID, IssuedAt: claims.IssuedAt.Time}
	if !strict {
		return p, nil
	}

	account, err := v.accounts.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnknownPrincipal
		}
		return nil, fmt.Errorf("account lookup: %w", err)
	}

	threshold := account.CredentialEpoch().Add(-InvalidationGrace)
	if threshold.After(p.IssuedAt) {
		return nil, common.ErrInvalidatedCredential
	}

	p.Account = account
	return p, nil
}

type ctxKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFrom returns the principal stored by WithPrincipal, if any.
func PrincipalFrom(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(*Principal)
	return p, ok && p != nil
}
