package store

import (
	"context"
	"fmt"
	"time"

	"github.com/go-authgate/deviceauth/internal/models"
)

// CreateDeviceCode discards any pending code for the same device and inserts
// dc, in one transaction. Returns ErrDuplicateKey on a user code collision.
func (s *Store) CreateDeviceCode(ctx context.Context, dc *models.DeviceCode) error {
	dc.ExpiresAt = utc(dc.ExpiresAt)

	tx := s.db.WithContext(ctx).Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("device_id = ? AND authorized_user_id IS NULL", dc.DeviceID).
		Delete(&models.DeviceCode{}).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to discard pending device codes: %w", err)
	}

	if err := tx.Create(dc).Error; err != nil {
		tx.Rollback()
		return translateError(err)
	}

	return tx.Commit().Error
}

// GetDeviceCodeByUserCode retrieves a device code by its normalized user code
func (s *Store) GetDeviceCodeByUserCode(
	ctx context.Context,
	userCode string,
) (*models.DeviceCode, error) {
	var dc models.DeviceCode
	if err := s.db.WithContext(ctx).
		Where("user_code = ?", userCode).
		First(&dc).Error; err != nil {
		return nil, translateError(err)
	}
	return &dc, nil
}

// GetDeviceCodeByHash retrieves a device code by the keyed hash of its device code
func (s *Store) GetDeviceCodeByHash(ctx context.Context, hash string) (*models.DeviceCode, error) {
	var dc models.DeviceCode
	if err := s.db.WithContext(ctx).
		Where("device_code_hash = ?", hash).
		First(&dc).Error; err != nil {
		return nil, translateError(err)
	}
	return &dc, nil
}

// AuthorizeDeviceCode binds a pending, unexpired code to userID. The pending
// and expiry guards are part of the UPDATE itself, so of two concurrent
// callers exactly one succeeds; the other gets ErrDeviceCodeConflict.
func (s *Store) AuthorizeDeviceCode(
	ctx context.Context,
	id, userID string,
	now time.Time,
) error {
	now = utc(now)
	result := s.db.WithContext(ctx).
		Model(&models.DeviceCode{}).
		Where("id = ? AND authorized_at IS NULL AND expires_at > ?", id, now).
		Updates(map[string]any{
			"authorized_user_id": userID,
			"authorized_at":      now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to authorize device code: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrDeviceCodeConflict
	}
	return nil
}

// ConsumeDeviceCode deletes an authorized, unexpired code. The row is the
// consumption token: only the caller whose DELETE removed it may issue tokens.
func (s *Store) ConsumeDeviceCode(ctx context.Context, id string, now time.Time) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND authorized_user_id IS NOT NULL AND expires_at > ?", id, utc(now)).
		Delete(&models.DeviceCode{})
	if result.Error != nil {
		return fmt.Errorf("failed to consume device code: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrDeviceCodeConsumed
	}
	return nil
}

// DeleteDeviceCodeByID deletes device code by ID (primary key)
func (s *Store) DeleteDeviceCodeByID(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.DeviceCode{}).Error
}

// DeleteExpiredDeviceCodes removes every code whose expiry is at or before now
// and returns how many were removed.
func (s *Store) DeleteExpiredDeviceCodes(ctx context.Context, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("expires_at <= ?", utc(now)).
		Delete(&models.DeviceCode{})
	return result.RowsAffected, result.Error
}

// CountTotalDeviceCodes counts unexpired device codes
func (s *Store) CountTotalDeviceCodes(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.DeviceCode{}).
		Where("expires_at > ?", utc(time.Now())).
		Count(&count).Error
	return count, err
}

// CountPendingDeviceCodes counts unexpired device codes not yet authorized
func (s *Store) CountPendingDeviceCodes(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.DeviceCode{}).
		Where("expires_at > ? AND authorized_user_id IS NULL", utc(time.Now())).
		Count(&count).Error
	return count, err
}
