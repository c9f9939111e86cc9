package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-authgate/deviceauth/internal/models"
)

// CreateRefreshToken persists a refresh token record
func (s *Store) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	token.ExpiresAt = utc(token.ExpiresAt)
	return translateError(s.db.WithContext(ctx).Create(token).Error)
}

// GetRefreshTokenByHash retrieves a refresh token by its keyed hash
func (s *Store) GetRefreshTokenByHash(
	ctx context.Context,
	hash string,
) (*models.RefreshToken, error) {
	var token models.RefreshToken
	if err := s.db.WithContext(ctx).
		Where("token_hash = ?", hash).
		First(&token).Error; err != nil {
		return nil, translateError(err)
	}
	return &token, nil
}

// RotateRefreshToken revokes predecessorID and inserts successor in one
// transaction. The revoke is conditional on the predecessor still being
// active, so two rotations of the same token cannot both commit. The owning
// device's last-seen time is touched in the same transaction and the rotation
// fails with ErrDeviceInactive if the device was deactivated meanwhile.
func (s *Store) RotateRefreshToken(
	ctx context.Context,
	predecessorID string,
	successor *models.RefreshToken,
	now time.Time,
) error {
	now = utc(now)
	successor.ExpiresAt = utc(successor.ExpiresAt)

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	result := tx.Model(&models.RefreshToken{}).
		Where("id = ? AND revoked_at IS NULL", predecessorID).
		Update("revoked_at", now)
	if result.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to revoke refresh token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return ErrTokenAlreadyRevoked
	}

	if err := tx.Create(successor).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to save refresh token: %w", translateError(err))
	}

	result = tx.Model(&models.Device{}).
		Where("device_id = ? AND user_id = ? AND is_active = ?", successor.DeviceID, successor.UserID, true).
		Update("last_seen_at", now)
	if result.Error != nil {
		tx.Rollback()
		return fmt.Errorf("failed to touch device: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		tx.Rollback()
		return ErrDeviceInactive
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// RevokeRefreshTokenByHash revokes a single active refresh token
func (s *Store) RevokeRefreshTokenByHash(
	ctx context.Context,
	hash string,
	now time.Time,
) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", hash).
		Update("revoked_at", utc(now))
	return result.RowsAffected, result.Error
}

// RevokeRefreshTokensByUser revokes every active refresh token of a user
func (s *Store) RevokeRefreshTokensByUser(
	ctx context.Context,
	userID string,
	now time.Time,
) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Update("revoked_at", utc(now))
	return result.RowsAffected, result.Error
}

// RevokeRefreshTokensByDevice revokes a user's active refresh tokens on one device
func (s *Store) RevokeRefreshTokensByDevice(
	ctx context.Context,
	userID, deviceID string,
	now time.Time,
) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("user_id = ? AND device_id = ? AND revoked_at IS NULL", userID, deviceID).
		Update("revoked_at", utc(now))
	return result.RowsAffected, result.Error
}

// CountActiveRefreshTokens counts unrevoked, unexpired refresh tokens
func (s *Store) CountActiveRefreshTokens(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.RefreshToken{}).
		Where("revoked_at IS NULL AND expires_at > ?", utc(time.Now())).
		Count(&count).Error
	return count, err
}
