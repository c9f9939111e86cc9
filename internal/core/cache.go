package core

import (
	"context"
	"time"
)

// Cache is a TTL key-value cache shared by the gauge collector.
// T is the cached value type.
type Cache[T any] interface {
	// Get returns cache.ErrCacheMiss if the key is absent or expired.
	Get(ctx context.Context, key string) (T, error)
	Set(ctx context.Context, key string, value T, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
	Health(ctx context.Context) error

	// GetWithFetch returns the cached value or calls fetchFunc on a miss and
	// stores its result for ttl.
	GetWithFetch(
		ctx context.Context,
		key string,
		ttl time.Duration,
		fetchFunc func(ctx context.Context, key string) (T, error),
	) (T, error)
}
