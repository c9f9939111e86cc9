package cache

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"
)

var (
	// ErrCacheMiss is returned by Get for absent or expired keys
	ErrCacheMiss = errors.New("cache miss")
	// ErrCacheUnavailable wraps backend transport failures
	ErrCacheUnavailable = errors.New("cache backend unavailable")
	// ErrInvalidValue means a stored value could not be decoded
	ErrInvalidValue = errors.New("cache value undecodable")
)

// loader collapses concurrent misses for the same key into one fetch.
type loader[T any] struct {
	group singleflight.Group
}

func (l *loader[T]) load(
	ctx context.Context,
	get func(ctx context.Context, key string) (T, error),
	set func(ctx context.Context, key string, value T, ttl time.Duration) error,
	key string,
	ttl time.Duration,
	fetchFunc func(ctx context.Context, key string) (T, error),
) (T, error) {
	if value, err := get(ctx, key); err == nil {
		return value, nil
	}

	v, err, _ := l.group.Do(key, func() (any, error) {
		// Another caller may have filled the key while we waited.
		if value, err := get(ctx, key); err == nil {
			return value, nil
		}
		value, err := fetchFunc(ctx, key)
		if err != nil {
			return nil, err
		}
		_ = set(ctx, key, value, ttl)
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
