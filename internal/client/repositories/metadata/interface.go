// Package metadata is a small key/value store the CLI keeps between runs,
// such as the access credential and the server it was issued by.
package metadata

import (
	"context"
)

// Keys used by the CLI.
const (
	KeyAccessToken = "access_token"
	KeyServerURL   = "server_url"
)

// Repository stores opaque values by key. Get returns (nil, nil) for a
// missing key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string][]byte, error)
	Clear(ctx context.Context) error
}
