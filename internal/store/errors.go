package store

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrRecordNotFound wraps GORM's not found error for consistency
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when an insert violates a unique index,
	// e.g. a freshly generated user code that is already in use.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrDeviceCodeConflict is returned by AuthorizeDeviceCode when the code was
	// already authorized, expired or deleted by a concurrent request (0 rows updated).
	ErrDeviceCodeConflict = errors.New("device code is no longer pending")

	// ErrDeviceCodeConsumed is returned by ConsumeDeviceCode when another poll
	// consumed the code first, or it expired in between (0 rows deleted).
	ErrDeviceCodeConsumed = errors.New("device code already consumed")

	// ErrTokenAlreadyRevoked is returned by RotateRefreshToken when the
	// predecessor was revoked by a concurrent rotation or logout.
	ErrTokenAlreadyRevoked = errors.New("refresh token already revoked")

	// ErrDeviceInactive is returned when a write requires an active device.
	ErrDeviceInactive = errors.New("device is not active")
)

// translateError maps GORM errors onto this package's sentinels.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrRecordNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	default:
		return err
	}
}
