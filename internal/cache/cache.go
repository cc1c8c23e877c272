// Package cache defines the read-through cache used by the query path.
package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("key not found in cache")
	ErrInvalidValue = errors.New("invalid value for cache")
)

// Cache stores JSON-serializable values under string keys.
type Cache interface {
	// Set stores value for ttl; a zero ttl uses the implementation default.
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error

	// Get decodes the value stored under key into dest. It returns
	// ErrNotFound on a miss.
	Get(ctx context.Context, key string, dest interface{}) error

	// DeletePrefix removes every key starting with prefix and reports how
	// many were removed.
	DeletePrefix(ctx context.Context, prefix string) (int, error)

	Close() error
}

// DefaultTTL applies when Set is called with a zero ttl.
const DefaultTTL = 30 * time.Second
