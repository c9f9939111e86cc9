package core

import (
	"context"
	"errors"

	"github.com/go-authgate/deviceauth/internal/models"
)

// ErrUserNotFound is returned by a UserLookup when no account has the id.
var ErrUserNotFound = errors.New("user not found")

// UserLookup resolves an account by id. Implementations return
// ErrUserNotFound for unknown ids and a wrapped error for transport failures.
type UserLookup interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	Name() string
}

// DeviceLimitPolicy reports how many devices an account currently has active
// and how many it may have.
type DeviceLimitPolicy interface {
	ActiveDeviceCount(ctx context.Context, userID string) (int64, error)
	MaxDevices(ctx context.Context, userID string) (int64, error)
}
