// Package kv provides the key-value persistence backends the catalog is
// mirrored into. Backends store opaque byte blobs and know nothing about the
// catalog schema.
package kv

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("kv: key not found")

// Backend reads and writes blobs under string keys.
type Backend interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// HealthChecker is implemented by backends backed by a remote service.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
