// Package kvstore is the persistent key-value store the session manager
// uses to remember a session across restarts.
//
// Three implementations are provided: Memory (process lifetime only),
// SQLite (an on-device file, the default) and Redis.
package kvstore

import (
	"context"
)

// Store is a string-to-string store. Every write is independent; writing
// the same value twice or removing an absent key is not an error.
type Store interface {
	// Get returns the value and true, or "" and false when key is absent.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}
