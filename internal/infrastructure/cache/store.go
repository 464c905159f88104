// Package cache holds the key/value stores behind the cached ticket
// listings. Redis is used when configured; a process-local store stands in
// for single-instance deployments and tests.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired
var ErrMiss = errors.New("cache miss")

// Store is a byte-oriented key/value store with expiry and counters
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key; a zero ttl keeps it until deleted
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// Incr atomically increments the counter at key and returns the new value
	Incr(ctx context.Context, key string) (int64, error)
	Close() error
}
