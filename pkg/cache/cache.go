// Package cache contains the volatile cache interface placed in front of
// durable storage. Implementations include an in-process bigcache store and Redis.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get and Touch when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Cache is a byte-oriented key/value store with per-entry TTL.
type Cache interface {
	// Get returns a copy of the value stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores val under key for ttl.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	// Touch resets the TTL of an existing entry.
	Touch(ctx context.Context, key string, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// Key namespaces media entries in shared caches.
func Key(filename string) string {
	return "video:" + filename
}
