// Package auth issues and verifies bearer credentials (JWT access tokens)
// and turns an incoming request into an authenticated Principal.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/dmitrijs2005/snipbin/internal/common"
	"github.com/dmitrijs2005/snipbin/internal/server/config"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the payload of an access credential: iss, sub, aud, iat, exp.
type Claims struct {
	jwt.RegisteredClaims
}

// NewKeyfunc returns the verification key source for cfg: keys fetched by
// "kid" from the JWKS endpoint when one is configured, otherwise the static
// HMAC secret. The JWKS variant refreshes in the background until ctx ends.
func NewKeyfunc(ctx context.Context, cfg *config.Config) (jwt.Keyfunc, error) {
	if cfg.JWKSEndpoint != "" {
		k, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.JWKSEndpoint})
		if err != nil {
			return nil, fmt.Errorf("jwks: %w", err)
		}
		return k.Keyfunc, nil
	}
	return StaticKey([]byte(cfg.SecretKey)), nil
}

// StaticKey verifies every credential with the same secret.
func StaticKey(secret []byte) jwt.Keyfunc {
	return func(*jwt.Token) (any, error) {
		return secret, nil
	}
}

// Codec signs and verifies access credentials.
type Codec struct {
	method     jwt.SigningMethod
	signingKey []byte
	keyfunc    jwt.Keyfunc
	issuer     string
	audience   string
	lifetime   time.Duration
	now        func() time.Time
}

// NewCodec builds a Codec from cfg. kf resolves verification keys; a nil now
// means time.Now. Signing is only possible with an HMAC secret.
func NewCodec(cfg *config.Config, kf jwt.Keyfunc, now func() time.Time) (*Codec, error) {
	method := jwt.GetSigningMethod(cfg.JWTAlgorithm)
	if method == nil || method == jwt.SigningMethodNone {
		return nil, fmt.Errorf("unsupported JWT algorithm %q", cfg.JWTAlgorithm)
	}
	if now == nil {
		now = time.Now
	}

	c := &Codec{
		method:   method,
		keyfunc:  kf,
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		lifetime: cfg.AccessTokenValidityDuration,
		now:      now,
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); ok && cfg.SecretKey != "" {
		c.signingKey = []byte(cfg.SecretKey)
	}
	return c, nil
}

// Lifetime is how long an issued credential stays valid.
func (c *Codec) Lifetime() time.Duration { return c.lifetime }

// Encode signs a credential for subject. iat is backdated by one second to
// absorb clock skew between the issuer and a verifier whose clock runs
// slightly behind, which would otherwise see iat in the future.
func (c *Codec) Encode(subject string) (string, error) {
	if c.signingKey == nil {
		return "", common.ErrSigningUnavailable
	}

	iat := c.now().Add(-time.Second).Truncate(time.Second)
	token := jwt.NewWithClaims(c.method, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject,
			Audience:  jwt.ClaimStrings{c.audience},
			IssuedAt:  jwt.NewNumericDate(iat),
			ExpiresAt: jwt.NewNumericDate(iat.Add(c.lifetime)),
		},
	})

	tokenString, err := token.SignedString(c.signingKey)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// Decode verifies signature, algorithm, audience, issuer and the validity
// window iat <= now < exp. Expiry is reported as ErrExpiredCredential; every
// other failure as ErrMalformedCredential.
func (c *Codec) Decode(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithAudience(c.audience),
		jwt.WithIssuer(c.issuer),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(tokenString, claims, c.keyfunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrExpiredCredential
		}
		return nil, fmt.Errorf("%w: %v", common.ErrMalformedCredential, err)
	}
	if !token.Valid {
		return nil, common.ErrMalformedCredential
	}
	if claims.IssuedAt == nil || claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing iat or sub", common.ErrMalformedCredential)
	}

	return claims, nil
}
