package cache

import (
	"context"
	"time"
)

// Cache is the key-value store behind the read path. Per-entity snapshot keys
// are explicitly deleted by writers (the coherence contract); list keys are
// only TTL-bounded. Implementations: MemoryCache for development and tests,
// RedisCache for production.
type Cache interface {
	// Get retrieves a value by key. Returns ErrCacheMiss if not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// GetOrSet retrieves a value or computes and stores it on miss.
	GetOrSet(ctx context.Context, key string, ttl time.Duration, fn func() ([]byte, error)) ([]byte, error)

	// Close releases the cache's resources.
	Close() error
}

// CacheError is a sentinel error type for cache conditions.
type CacheError string

func (e CacheError) Error() string { return string(e) }

const (
	// ErrCacheMiss indicates the key was not found in cache.
	ErrCacheMiss CacheError = "cache miss"
)
