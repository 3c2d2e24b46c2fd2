// Package store persists the encoded calculator registry under a single key.
package store

import (
	"context"
	"errors"
)

// DefaultKey is the key the registry document is stored under.
const DefaultKey = "calculators"

// ErrUnknownDriver is returned by Open for an unsupported storage driver.
var ErrUnknownDriver = errors.New("unknown storage driver")

// BlobStore is a string-keyed store of opaque documents.
// Get reports ok=false when the key has never been written.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}
