package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/snipbin/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g. ":8080")
//	-m string   storage backend: postgres or memory
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-j string   JWKS endpoint URL
//	-t int      access token validity, minutes
//	-k string   credential source: header, cookie or any
//	-x bool     strict credential checks on every mutation (-x or -x=false)
//	-o string   pagination mode: keyset or offset
//	-l int      max page size
//	-w string   website base URL for emailed links
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name (empty disables the mirror)
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-v string   log level
//
// Only the flags above are looked at; flagx.FilterArgs drops the rest.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{
		"-a", "-m", "-d", "-s", "-j", "-t", "-k", "-x", "-o", "-l", "-w",
		"-u", "-p", "-b", "-g", "-e", "-v",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.Storage, "m", config.Storage, "storage backend")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.JWKSEndpoint, "j", config.JWKSEndpoint, "JWKS endpoint")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")

	fs.StringVar(&config.CredentialSource, "k", config.CredentialSource, "credential source")
	fs.BoolVar(&config.StrictCredentials, "x", config.StrictCredentials, "strict credentials")
	fs.StringVar(&config.PaginationMode, "o", config.PaginationMode, "pagination mode")
	fs.IntVar(&config.MaxPageSize, "l", config.MaxPageSize, "max page size")
	fs.StringVar(&config.WebsiteBaseURL, "w", config.WebsiteBaseURL, "website base URL")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
		}
	})
	return nil
}
