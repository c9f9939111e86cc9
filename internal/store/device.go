package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/deviceauth/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeviceClaim describes what ClaimDevice changed.
type DeviceClaim struct {
	Created        bool   // the device was seen for the first time
	PreviousUserID string // set when another account owned the device
	RevokedTokens  int64  // tokens of the previous owner revoked by the claim
}

// ClaimDevice upserts the device for its new owner, marks it active and
// persists the first refresh token of the new session, all in one
// transaction. When the device changes hands, the previous owner's tokens
// for it are revoked in the same transaction.
func (s *Store) ClaimDevice(
	ctx context.Context,
	device *models.Device,
	token *models.RefreshToken,
	now time.Time,
) (*DeviceClaim, error) {
	now = utc(now)
	token.ExpiresAt = utc(token.ExpiresAt)
	claim := &DeviceClaim{}

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var existing models.Device
	err := tx.Where("device_id = ?", device.DeviceID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		claim.Created = true
		if device.ID == "" {
			device.ID = uuid.New().String()
		}
		device.IsActive = true
		device.LastSeenAt = now
		if err := tx.Create(device).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to create device: %w", translateError(err))
		}

	case err != nil:
		tx.Rollback()
		return nil, fmt.Errorf("failed to load device: %w", err)

	default:
		if existing.UserID != device.UserID {
			claim.PreviousUserID = existing.UserID
			result := tx.Model(&models.RefreshToken{}).
				Where("device_id = ? AND user_id <> ? AND revoked_at IS NULL", device.DeviceID, device.UserID).
				Update("revoked_at", now)
			if result.Error != nil {
				tx.Rollback()
				return nil, fmt.Errorf("failed to revoke previous owner tokens: %w", result.Error)
			}
			claim.RevokedTokens = result.RowsAffected
		}

		if err := tx.Model(&existing).Updates(map[string]any{
			"user_id":      device.UserID,
			"name":         device.Name,
			"platform":     device.Platform,
			"is_active":    true,
			"last_seen_at": now,
		}).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to update device: %w", err)
		}
		if err := tx.Where("id = ?", existing.ID).First(device).Error; err != nil {
			tx.Rollback()
			return nil, fmt.Errorf("failed to reload device: %w", err)
		}
	}

	if err := tx.Create(token).Error; err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("failed to save refresh token: %w", translateError(err))
	}

	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return claim, nil
}

// GetDevice retrieves a device by its client-supplied device ID
func (s *Store) GetDevice(ctx context.Context, deviceID string) (*models.Device, error) {
	var device models.Device
	if err := s.db.WithContext(ctx).
		Where("device_id = ?", deviceID).
		First(&device).Error; err != nil {
		return nil, translateError(err)
	}
	return &device, nil
}

// ListDevicesByUser returns the devices owned by a user, most recently seen first
func (s *Store) ListDevicesByUser(ctx context.Context, userID string) ([]models.Device, error) {
	var devices []models.Device
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_seen_at DESC").
		Find(&devices).Error
	return devices, err
}

// CountActiveDevicesByUser counts the active devices owned by a user
func (s *Store) CountActiveDevicesByUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Device{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Count(&count).Error
	return count, err
}

// CountActiveDevices counts active devices across all users
func (s *Store) CountActiveDevices(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.Device{}).
		Where("is_active = ?", true).
		Count(&count).Error
	return count, err
}

// DeactivateDevice marks a user's device inactive and revokes every active
// refresh token bound to it, in one transaction. It returns the number of
// tokens revoked, or ErrRecordNotFound if the user does not own the device.
func (s *Store) DeactivateDevice(
	ctx context.Context,
	userID, deviceID string,
	now time.Time,
) (int64, error) {
	now = utc(now)

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	result := tx.Model(&models.Device{}).
		Where("device_id = ? AND user_id = ?", deviceID, userID).
		Update("is_active", false)
	if result.Error != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to deactivate device: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return 0, ErrRecordNotFound
	}

	result = tx.Model(&models.RefreshToken{}).
		Where("device_id = ? AND revoked_at IS NULL", deviceID).
		Update("revoked_at", now)
	if result.Error != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to revoke device tokens: %w", result.Error)
	}
	revoked := result.RowsAffected

	if err := tx.Commit().Error; err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return revoked, nil
}
