// Package localstore provides durable key/value storage for client-side
// session state such as the customer portal phone number. It supports three
// backends: memory (tests), file (a YAML map on disk) and PostgreSQL.
package localstore

import (
	"context"
	"errors"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("local store is closed")

// Store holds string values under string keys.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
	// Close releases the store.
	Close() error
}
