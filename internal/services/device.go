package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-authgate/deviceauth/internal/config"
	"github.com/go-authgate/deviceauth/internal/core"
	"github.com/go-authgate/deviceauth/internal/models"
	"github.com/go-authgate/deviceauth/internal/store"
	"github.com/go-authgate/deviceauth/internal/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// maxUserCodeAttempts bounds retries on user code collisions
const maxUserCodeAttempts = 5

// DeviceCodeRequest identifies the installation asking to be signed in
type DeviceCodeRequest struct {
	DeviceID   string
	DeviceName string
	Platform   string
}

// DeviceService issues device codes and records user approval
type DeviceService struct {
	store        *store.Store
	config       *config.Config
	hasher       *util.TokenHasher
	limits       core.DeviceLimitPolicy
	auditService *AuditService
	metrics      core.Recorder
	now          func() time.Time
}

func NewDeviceService(
	s *store.Store,
	cfg *config.Config,
	hasher *util.TokenHasher,
	limits core.DeviceLimitPolicy,
	auditService *AuditService,
	m core.Recorder,
) *DeviceService {
	return &DeviceService{
		store:        s,
		config:       cfg,
		hasher:       hasher,
		limits:       limits,
		auditService: auditService,
		metrics:      m,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// RequestCode starts a device authorization. Any earlier pending code for the
// same device is discarded. The returned record carries the raw device code,
// which is never stored.
func (s *DeviceService) RequestCode(
	ctx context.Context,
	req DeviceCodeRequest,
) (*models.DeviceCode, error) {
	req.DeviceID = strings.TrimSpace(req.DeviceID)
	if req.DeviceID == "" {
		return nil, fmt.Errorf("%w: device_id is required", ErrInvalidInput)
	}

	now := s.now()
	for range maxUserCodeAttempts {
		raw := util.GenerateDeviceCode()
		dc := &models.DeviceCode{
			ID:             uuid.New().String(),
			DeviceCode:     raw,
			DeviceCodeHash: s.hasher.Hash(raw),
			UserCode:       util.GenerateUserCode(),
			DeviceID:       req.DeviceID,
			DeviceName:     strings.TrimSpace(req.DeviceName),
			Platform:       strings.TrimSpace(req.Platform),
			ExpiresAt:      now.Add(s.config.DeviceCodeExpiration),
			Interval:       s.config.PollingInterval,
			CreatedAt:      now,
		}

		err := s.store.CreateDeviceCode(ctx, dc)
		if err == nil {
			s.metrics.RecordDeviceCodeGenerated(true)
			s.auditService.Log(ctx, AuditLogEntry{
				EventType:    models.EventDeviceCodeGenerated,
				Severity:     models.SeverityInfo,
				ResourceType: models.ResourceDeviceCode,
				ResourceID:   dc.ID,
				ResourceName: dc.DeviceName,
				Action:       "Device code generated",
				Details: models.AuditDetails{
					"device_id": dc.DeviceID,
					"platform":  dc.Platform,
					"user_code": dc.UserCode,
				},
				Success: true,
			})
			return dc, nil
		}

		if !errors.Is(err, store.ErrDuplicateKey) {
			s.metrics.RecordDeviceCodeGenerated(false)
			s.metrics.RecordDatabaseQueryError("create_device_code")
			return nil, fmt.Errorf("failed to create device code: %w", err)
		}
		log.Debug().Str("device_id", req.DeviceID).Msg("user code collision, retrying")
	}

	s.metrics.RecordDeviceCodeGenerated(false)
	return nil, ErrUserCodeExhausted
}

// LookupUserCode returns the pending code a person typed in, so the approval
// page can show which device is asking.
func (s *DeviceService) LookupUserCode(
	ctx context.Context,
	userCode string,
) (*models.DeviceCode, error) {
	dc, err := s.findByUserCode(ctx, userCode)
	if err != nil {
		return nil, err
	}

	if dc.ExpiredAt(s.now()) {
		s.discardExpired(ctx, dc)
		return nil, ErrDeviceCodeExpired
	}
	if dc.IsAuthorized() {
		return nil, ErrAlreadyAuthorized
	}
	return dc, nil
}

// AuthorizeUserCode binds the code to user. Guards run in order: unknown code,
// expired, already approved, device cap. The final write is conditional, so
// of two concurrent approvals only one succeeds; the loser is re-classified
// from the stored state.
func (s *DeviceService) AuthorizeUserCode(
	ctx context.Context,
	userCode string,
	user *models.User,
) (*models.DeviceCode, error) {
	dc, err := s.findByUserCode(ctx, userCode)
	if err != nil {
		s.metrics.RecordDeviceCodeRejected("not_found")
		return nil, err
	}

	now := s.now()
	if dc.ExpiredAt(now) {
		s.discardExpired(ctx, dc)
		s.metrics.RecordDeviceCodeRejected("expired")
		return nil, ErrDeviceCodeExpired
	}
	if dc.IsAuthorized() {
		s.metrics.RecordDeviceCodeRejected("already_authorized")
		return nil, ErrAlreadyAuthorized
	}

	if err := s.checkDeviceLimit(ctx, user.ID, dc.DeviceID); err != nil {
		if errors.Is(err, ErrDeviceLimitReached) {
			s.metrics.RecordDeviceCodeRejected("device_limit")
			s.auditService.Log(ctx, AuditLogEntry{
				EventType:    models.EventDeviceCodeAuthorized,
				Severity:     models.SeverityWarning,
				ActorUserID:  user.ID,
				ActorEmail:   user.Email,
				ResourceType: models.ResourceDeviceCode,
				ResourceID:   dc.ID,
				ResourceName: dc.DeviceName,
				Action:       "Device code approval refused",
				Details:      models.AuditDetails{"device_id": dc.DeviceID},
				Success:      false,
				ErrorMessage: err.Error(),
			})
		}
		return nil, err
	}

	if err := s.store.AuthorizeDeviceCode(ctx, dc.ID, user.ID, now); err != nil {
		if errors.Is(err, store.ErrDeviceCodeConflict) {
			lost := s.classifyConflict(ctx, dc)
			s.metrics.RecordDeviceCodeRejected("conflict")
			return nil, lost
		}
		s.metrics.RecordDatabaseQueryError("authorize_device_code")
		return nil, fmt.Errorf("failed to authorize device code: %w", err)
	}

	dc.AuthorizedUserID = &user.ID
	dc.AuthorizedAt = &now

	s.metrics.RecordDeviceCodeAuthorized(now.Sub(dc.CreatedAt))
	s.auditService.Log(ctx, AuditLogEntry{
		EventType:    models.EventDeviceCodeAuthorized,
		Severity:     models.SeverityInfo,
		ActorUserID:  user.ID,
		ActorEmail:   user.Email,
		ResourceType: models.ResourceDeviceCode,
		ResourceID:   dc.ID,
		ResourceName: dc.DeviceName,
		Action:       "Device code authorized",
		Details: models.AuditDetails{
			"device_id": dc.DeviceID,
			"user_code": dc.UserCode,
		},
		Success: true,
	})

	return dc, nil
}

// SweepExpired deletes device codes past their expiry
func (s *DeviceService) SweepExpired(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpiredDeviceCodes(ctx, s.now())
	if err != nil {
		s.metrics.RecordDatabaseQueryError("sweep_device_codes")
		return 0, err
	}
	s.metrics.RecordDeviceCodesSwept(n)
	return n, nil
}

func (s *DeviceService) findByUserCode(
	ctx context.Context,
	userCode string,
) (*models.DeviceCode, error) {
	code := util.NormalizeUserCode(userCode)
	if !util.IsValidUserCode(code) {
		return nil, ErrUserCodeNotFound
	}

	dc, err := s.store.GetDeviceCodeByUserCode(ctx, code)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, ErrUserCodeNotFound
		}
		return nil, fmt.Errorf("failed to load device code: %w", err)
	}
	return dc, nil
}

// checkDeviceLimit refuses a new device once the account is at its cap.
// Re-approving a device the user already has active does not count.
func (s *DeviceService) checkDeviceLimit(ctx context.Context, userID, deviceID string) error {
	device, err := s.store.GetDevice(ctx, deviceID)
	switch {
	case err == nil:
		if device.IsActive && device.UserID == userID {
			return nil
		}
	case !errors.Is(err, store.ErrRecordNotFound):
		return fmt.Errorf("failed to load device: %w", err)
	}

	maxDevices, err := s.limits.MaxDevices(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to read device limit: %w", err)
	}
	if maxDevices <= 0 {
		return nil
	}

	active, err := s.limits.ActiveDeviceCount(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to count devices: %w", err)
	}
	if active >= maxDevices {
		return ErrDeviceLimitReached
	}
	return nil
}

// classifyConflict explains why the conditional approval matched no row
func (s *DeviceService) classifyConflict(ctx context.Context, dc *models.DeviceCode) error {
	current, err := s.store.GetDeviceCodeByUserCode(ctx, dc.UserCode)
	if err != nil || current.ID != dc.ID {
		return ErrUserCodeNotFound
	}
	if current.IsAuthorized() {
		return ErrAlreadyAuthorized
	}
	return ErrDeviceCodeExpired
}

func (s *DeviceService) discardExpired(ctx context.Context, dc *models.DeviceCode) {
	if err := s.store.DeleteDeviceCodeByID(ctx, dc.ID); err != nil {
		log.Warn().Err(err).Str("device_code_id", dc.ID).Msg("failed to delete expired device code")
	}
}
