// Package kv provides the key-value backends that hold all pipeline state.
// Every backend supports per-key expiry and an atomic put-if-absent, which is
// what the dedup ledger and the delivery ledger build on.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Get for missing or expired keys.
var ErrNotFound = errors.New("kv: key not found")

// Store is a string-keyed byte store with optional per-key TTL.
// A zero ttl means the key never expires.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX writes value only if key is absent (or expired) and reports whether it wrote.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	// Keys lists live keys starting with prefix, in no particular order.
	Keys(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// Purger is implemented by backends that keep expired rows until asked to drop them.
type Purger interface {
	Purge(ctx context.Context) (int64, error)
}
