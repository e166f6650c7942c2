package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/snipbin/internal/flagx"
	"github.com/dmitrijs2005/snipbin/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted.
type JsonConfig struct {
	EndpointAddrHTTP            string         `json:"endpoint_addr_http"`
	Storage                     string         `json:"storage"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	JWTAlgorithm                string         `json:"jwt_algorithm"`
	JWTIssuer                   string         `json:"jwt_issuer"`
	JWTAudience                 string         `json:"jwt_audience"`
	JWKSEndpoint                string         `json:"jwks_endpoint"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	CredentialSource            string         `json:"credential_source"`
	StrictCredentials           bool           `json:"strict_credentials"`
	CookieSecure                bool           `json:"cookie_secure"`
	PaginationMode              string         `json:"pagination_mode"`
	MaxPageSize                 int            `json:"max_page_size"`
	ShortIDLength               int            `json:"short_id_length"`
	RequireVerifiedToPost       bool           `json:"require_verified_to_post"`
	VerificationCodeTTL         timex.Duration `json:"verification_code_ttl"`
	ResetCodeTTL                timex.Duration `json:"reset_code_ttl"`
	WebsiteBaseURL              string         `json:"website_base_url"`
	S3RootUser                  string         `json:"s3_root_user"`
	S3RootPassword              string         `json:"s3_root_password"`
	S3Bucket                    string         `json:"s3_bucket"`
	S3Region                    string         `json:"s3_region"`
	S3BaseEndpoint              string         `json:"s3_base_endpoint"`
	LogLevel                    string         `json:"log_level"`
	LogFormat                   string         `json:"log_format"`
}

// parseJson overlays the file named by -c/-config onto config. Keys missing
// from the file keep their current value. No flag means nothing to load.
func parseJson(config *Config, args []string) error {
	jsonConfigFile := flagx.JsonConfigFlags(args)
	if jsonConfigFile == "" {
		return nil
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return err
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		return err
	}
	fromJson(config, c)

	return nil
}

func toJson(c *Config) *JsonConfig {
	return &JsonConfig{
		EndpointAddrHTTP:            c.EndpointAddrHTTP,
		Storage:                     c.Storage,
		DatabaseDSN:                 c.DatabaseDSN,
		SecretKey:                   c.SecretKey,
		JWTAlgorithm:                c.JWTAlgorithm,
		JWTIssuer:                   c.JWTIssuer,
		JWTAudience:                 c.JWTAudience,
		JWKSEndpoint:                c.JWKSEndpoint,
		AccessTokenValidityDuration: timex.Duration{Duration: c.AccessTokenValidityDuration},
		CredentialSource:            c.CredentialSource,
		StrictCredentials:           c.StrictCredentials,
		CookieSecure:                c.CookieSecure,
		PaginationMode:              c.PaginationMode,
		MaxPageSize:                 c.MaxPageSize,
		ShortIDLength:               c.ShortIDLength,
		RequireVerifiedToPost:       c.RequireVerifiedToPost,
		VerificationCodeTTL:         timex.Duration{Duration: c.VerificationCodeTTL},
		ResetCodeTTL:                timex.Duration{Duration: c.ResetCodeTTL},
		WebsiteBaseURL:              c.WebsiteBaseURL,
		S3RootUser:                  c.S3RootUser,
		S3RootPassword:              c.S3RootPassword,
		S3Bucket:                    c.S3Bucket,
		S3Region:                    c.S3Region,
		S3BaseEndpoint:              c.S3BaseEndpoint,
		LogLevel:                    c.LogLevel,
		LogFormat:                   c.LogFormat,
	}
}

func fromJson(config *Config, c *JsonConfig) {
	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.Storage = c.Storage
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.JWTAlgorithm = c.JWTAlgorithm
	config.JWTIssuer = c.JWTIssuer
	config.JWTAudience = c.JWTAudience
	config.JWKSEndpoint = c.JWKSEndpoint
	config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	config.CredentialSource = c.CredentialSource
	config.StrictCredentials = c.StrictCredentials
	config.CookieSecure = c.CookieSecure
	config.PaginationMode = c.PaginationMode
	config.MaxPageSize = c.MaxPageSize
	config.ShortIDLength = c.ShortIDLength
	config.RequireVerifiedToPost = c.RequireVerifiedToPost
	config.VerificationCodeTTL = c.VerificationCodeTTL.Duration
	config.ResetCodeTTL = c.ResetCodeTTL.Duration
	config.WebsiteBaseURL = c.WebsiteBaseURL
	config.S3RootUser = c.S3RootUser
	config.S3RootPassword = c.S3RootPassword
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3BaseEndpoint = c.S3BaseEndpoint
	config.LogLevel = c.LogLevel
	config.LogFormat = c.LogFormat
}
