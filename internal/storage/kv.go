// Package storage keeps small pieces of client state (the persisted session)
// across process restarts.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has never been set or was deleted.
var ErrNotFound = errors.New("storage: key not found")

// KV is a durable key/value store for client-side state.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set overwrites any previous value for key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}
