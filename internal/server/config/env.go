package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "SNIPBIN_"

// parseEnv overlays SNIPBIN_* variables onto config. Durations take Go
// duration strings ("15m"); booleans take anything strconv.ParseBool does.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	var errs []error

	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		if v, ok := lookup(EnvPrefix + name); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = b
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	duration := func(name string, dst *time.Duration) {
		if v, ok := lookup(EnvPrefix + name); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = d
		}
	}

	str("ADDRESS", &config.EndpointAddrHTTP)
	str("STORAGE", &config.Storage)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	str("JWT_ALGORITHM", &config.JWTAlgorithm)
	str("JWT_ISSUER", &config.JWTIssuer)
	str("JWT_AUDIENCE", &config.JWTAudience)
	str("JWKS_ENDPOINT", &config.JWKSEndpoint)
	duration("ACCESS_TOKEN_VALIDITY", &config.AccessTokenValidityDuration)
	str("CREDENTIAL_SOURCE", &config.CredentialSource)
	boolean("STRICT_CREDENTIALS", &config.StrictCredentials)
	boolean("COOKIE_SECURE", &config.CookieSecure)
	str("PAGINATION_MODE", &config.PaginationMode)
	integer("MAX_PAGE_SIZE", &config.MaxPageSize)
	integer("SHORT_ID_LENGTH", &config.ShortIDLength)
	boolean("REQUIRE_VERIFIED", &config.RequireVerifiedToPost)
	duration("VERIFICATION_CODE_TTL", &config.VerificationCodeTTL)
	duration("RESET_CODE_TTL", &config.ResetCodeTTL)
	str("WEBSITE_BASE_URL", &config.WebsiteBaseURL)
	str("S3_ROOT_USER", &config.S3RootUser)
	str("S3_ROOT_PASSWORD", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
	str("LOG_LEVEL", &config.LogLevel)
	str("LOG_FORMAT", &config.LogFormat)

	return errors.Join(errs...)
}
