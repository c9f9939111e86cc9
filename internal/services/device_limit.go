package services

import (
	"context"

	"github.com/go-authgate/deviceauth/internal/core"
	"github.com/go-authgate/deviceauth/internal/store"
)

var _ core.DeviceLimitPolicy = (*StoreDeviceLimitPolicy)(nil)

// StoreDeviceLimitPolicy applies one cap to every account and counts active
// devices in the database.
type StoreDeviceLimitPolicy struct {
	store      *store.Store
	maxDevices int64
}

func NewStoreDeviceLimitPolicy(s *store.Store, maxDevices int) *StoreDeviceLimitPolicy {
	return &StoreDeviceLimitPolicy{store: s, maxDevices: int64(maxDevices)}
}

func (p *StoreDeviceLimitPolicy) ActiveDeviceCount(ctx context.Context, userID string) (int64, error) {
	return p.store.CountActiveDevicesByUser(ctx, userID)
}

func (p *StoreDeviceLimitPolicy) MaxDevices(context.Context, string) (int64, error) {
	return p.maxDevices, nil
}
