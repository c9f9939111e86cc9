package metrics

import (
	"context"
	"time"

	"github.com/go-authgate/deviceauth/internal/core"
)

// CacheWrapper provides a read-through cache for gauge counts.
// It queries the database on cache miss and updates the cache for subsequent requests.
type CacheWrapper struct {
	store core.MetricsStore
	cache core.Cache[int64]
}

// NewCacheWrapper creates a new cache wrapper for metrics.
func NewCacheWrapper(store core.MetricsStore, cache core.Cache[int64]) *CacheWrapper {
	return &CacheWrapper{
		store: store,
		cache: cache,
	}
}

// getCountWithCache retrieves a count using the cache-aside pattern.
func (m *CacheWrapper) getCountWithCache(
	ctx context.Context,
	key string,
	ttl time.Duration,
	fetchFunc func(ctx context.Context) (int64, error),
) (int64, error) {
	return m.cache.GetWithFetch(
		ctx,
		key,
		ttl,
		func(ctx context.Context, key string) (int64, error) {
			return fetchFunc(ctx)
		},
	)
}

// GetActiveRefreshTokensCount retrieves the count of unrevoked, unexpired refresh tokens.
func (m *CacheWrapper) GetActiveRefreshTokensCount(
	ctx context.Context,
	ttl time.Duration,
) (int64, error) {
	return m.getCountWithCache(ctx, "tokens:refresh", ttl, m.store.CountActiveRefreshTokens)
}

// GetTotalDeviceCodesCount retrieves the count of total (non-expired) device codes.
func (m *CacheWrapper) GetTotalDeviceCodesCount(
	ctx context.Context,
	ttl time.Duration,
) (int64, error) {
	return m.getCountWithCache(ctx, "device_codes:total", ttl, m.store.CountTotalDeviceCodes)
}

// GetPendingDeviceCodesCount retrieves the count of pending (not yet authorized) device codes.
func (m *CacheWrapper) GetPendingDeviceCodesCount(
	ctx context.Context,
	ttl time.Duration,
) (int64, error) {
	return m.getCountWithCache(ctx, "device_codes:pending", ttl, m.store.CountPendingDeviceCodes)
}

// GetActiveDevicesCount retrieves the count of active devices.
func (m *CacheWrapper) GetActiveDevicesCount(
	ctx context.Context,
	ttl time.Duration,
) (int64, error) {
	return m.getCountWithCache(ctx, "devices:active", ttl, m.store.CountActiveDevices)
}
