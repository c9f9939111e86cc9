package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/deviceauth/internal/config"
	"github.com/go-authgate/deviceauth/internal/core"
	"github.com/go-authgate/deviceauth/internal/models"
	"github.com/go-authgate/deviceauth/internal/store"
	"github.com/go-authgate/deviceauth/internal/token"
	"github.com/go-authgate/deviceauth/internal/util"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Grant types recorded in metrics
const (
	GrantTypeDeviceCode   = "device_code"
	GrantTypeRefreshToken = "refresh_token"
)

// PollStatus is the outcome of a device poll that did not fail
type PollStatus int

const (
	PollPending PollStatus = iota + 1
	PollExpired
	PollAuthorized
)

func (p PollStatus) String() string {
	switch p {
	case PollPending:
		return "pending"
	case PollExpired:
		return "expired"
	case PollAuthorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// TokenPair is what a client receives on sign-in and on every refresh
type TokenPair struct {
	AccessToken           string
	RefreshToken          string
	TokenType             string
	ExpiresIn             int // access token lifetime in seconds
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
}

// PollResult carries the pair and the signed-in account when Status is
// PollAuthorized.
type PollResult struct {
	Status   PollStatus
	Interval int
	Pair     *TokenPair
	User     *models.User
}

// LogoutRequest revokes either one refresh token, or the caller's tokens on
// the device named in the access token, or all of the caller's tokens.
type LogoutRequest struct {
	RefreshToken string
	Claims       *token.AccessTokenClaims
	AllDevices   bool
}

// TokenService exchanges approved device codes for tokens and manages refresh
// token rotation and revocation.
type TokenService struct {
	store        *store.Store
	config       *config.Config
	hasher       *util.TokenHasher
	issuer       *token.AccessTokenIssuer
	users        core.UserLookup
	auditService *AuditService
	metrics      core.Recorder
	now          func() time.Time
}

func NewTokenService(
	s *store.Store,
	cfg *config.Config,
	hasher *util.TokenHasher,
	issuer *token.AccessTokenIssuer,
	users core.UserLookup,
	auditService *AuditService,
	m core.Recorder,
) *TokenService {
	return &TokenService{
		store:        s,
		config:       cfg,
		hasher:       hasher,
		issuer:       issuer,
		users:        users,
		auditService: auditService,
		metrics:      m,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Poll reports the state of a device code. An approved code is consumed by
// exactly one poll, which receives the token pair; every later poll sees
// PollExpired. A blocked or unknown account yields ErrAccessDenied.
func (s *TokenService) Poll(ctx context.Context, deviceCode string) (*PollResult, error) {
	if deviceCode == "" {
		s.metrics.RecordPoll("expired")
		return &PollResult{Status: PollExpired}, nil
	}

	dc, err := s.store.GetDeviceCodeByHash(ctx, s.hasher.Hash(deviceCode))
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			s.metrics.RecordPoll("expired")
			return &PollResult{Status: PollExpired}, nil
		}
		s.metrics.RecordDatabaseQueryError("get_device_code")
		return nil, fmt.Errorf("failed to load device code: %w", err)
	}

	now := s.now()
	if dc.ExpiredAt(now) {
		if err := s.store.DeleteDeviceCodeByID(ctx, dc.ID); err != nil {
			log.Warn().Err(err).Str("device_code_id", dc.ID).Msg("failed to delete expired device code")
		}
		s.metrics.RecordPoll("expired")
		return &PollResult{Status: PollExpired}, nil
	}

	if !dc.IsAuthorized() {
		s.metrics.RecordPoll("pending")
		return &PollResult{Status: PollPending, Interval: dc.Interval}, nil
	}

	if err := s.store.ConsumeDeviceCode(ctx, dc.ID, now); err != nil {
		if errors.Is(err, store.ErrDeviceCodeConsumed) {
			s.metrics.RecordPoll("expired")
			return &PollResult{Status: PollExpired}, nil
		}
		s.metrics.RecordDatabaseQueryError("consume_device_code")
		return nil, fmt.Errorf("failed to consume device code: %w", err)
	}

	// From here the code is gone; any failure means the device starts over.
	userID := *dc.AuthorizedUserID
	user, err := s.users.GetUser(ctx, userID)
	if err != nil && !errors.Is(err, core.ErrUserNotFound) {
		log.Error().Err(err).Str("user_id", userID).Str("lookup", s.users.Name()).
			Msg("user lookup failed after device code consumption")
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	if err != nil || user.IsBlocked() {
		s.metrics.RecordPoll("denied")
		s.auditService.Log(ctx, AuditLogEntry{
			EventType:    models.EventDeviceCodeDenied,
			Severity:     models.SeverityWarning,
			ActorUserID:  userID,
			ResourceType: models.ResourceDeviceCode,
			ResourceID:   dc.ID,
			ResourceName: dc.DeviceName,
			Action:       "Device sign-in denied",
			Details:      models.AuditDetails{"device_id": dc.DeviceID},
			Success:      false,
			ErrorMessage: ErrAccessDenied.Error(),
		})
		return nil, ErrAccessDenied
	}

	pair, err := s.signIn(ctx, user, dc, now)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordPoll("authorized")
	return &PollResult{Status: PollAuthorized, Pair: pair, User: user}, nil
}

// signIn claims the device for user and issues the first pair of the session
func (s *TokenService) signIn(
	ctx context.Context,
	user *models.User,
	dc *models.DeviceCode,
	now time.Time,
) (*TokenPair, error) {
	start := time.Now()

	access, err := s.issuer.Issue(identityFor(user, dc.DeviceID))
	if err != nil {
		return nil, err
	}

	refresh := s.newRefreshToken(user.ID, dc.DeviceID, "", now)
	device := &models.Device{
		UserID:   user.ID,
		DeviceID: dc.DeviceID,
		Name:     dc.DeviceName,
		Platform: dc.Platform,
	}

	claim, err := s.store.ClaimDevice(ctx, device, refresh, now)
	if err != nil {
		s.metrics.RecordDatabaseQueryError("claim_device")
		return nil, fmt.Errorf("failed to claim device: %w", err)
	}

	s.metrics.RecordTokenIssued(GrantTypeDeviceCode, time.Since(start))
	if claim.PreviousUserID != "" {
		s.metrics.RecordTokenRevoked("device_reclaimed", claim.RevokedTokens)
	}

	s.auditService.Log(ctx, AuditLogEntry{
		EventType:    models.EventDeviceClaimed,
		Severity:     models.SeverityInfo,
		ActorUserID:  user.ID,
		ActorEmail:   user.Email,
		ResourceType: models.ResourceDevice,
		ResourceID:   device.DeviceID,
		ResourceName: device.Name,
		Action:       "Device signed in",
		Details: models.AuditDetails{
			"new_device":       claim.Created,
			"previous_user_id": claim.PreviousUserID,
			"revoked_tokens":   claim.RevokedTokens,
			"refresh_token_id": refresh.ID,
			"jti":              access.Claims.ID,
			"authorization_id": dc.ID,
		},
		Success: true,
	})

	return s.pair(access, refresh), nil
}

// Refresh rotates a refresh token. The presented token is revoked and its
// successor persisted in one transaction; of two concurrent refreshes with
// the same token exactly one succeeds. Presenting an already revoked token is
// audited as possible reuse.
func (s *TokenService) Refresh(ctx context.Context, rawToken string) (*TokenPair, error) {
	if rawToken == "" {
		s.metrics.RecordTokenRefresh("invalid")
		return nil, ErrInvalidRefreshToken
	}

	start := time.Now()
	current, err := s.store.GetRefreshTokenByHash(ctx, s.hasher.Hash(rawToken))
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			s.metrics.RecordTokenRefresh("invalid")
			return nil, ErrInvalidRefreshToken
		}
		s.metrics.RecordDatabaseQueryError("get_refresh_token")
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}

	now := s.now()
	if current.IsRevoked() {
		s.reportReuse(ctx, current)
		return nil, ErrTokenRevoked
	}
	if current.ExpiredAt(now) {
		s.metrics.RecordTokenRefresh("expired")
		return nil, ErrTokenExpired
	}

	device, err := s.store.GetDevice(ctx, current.DeviceID)
	if err != nil && !errors.Is(err, store.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load device: %w", err)
	}
	if err != nil || !device.IsActive || device.UserID != current.UserID {
		s.metrics.RecordTokenRefresh("device_inactive")
		return nil, ErrDeviceInactive
	}

	user, err := s.users.GetUser(ctx, current.UserID)
	if err != nil && !errors.Is(err, core.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}
	if err != nil || user.IsBlocked() {
		s.metrics.RecordTokenRefresh("blocked")
		return nil, ErrAccountBlocked
	}

	access, err := s.issuer.Issue(identityFor(user, current.DeviceID))
	if err != nil {
		return nil, err
	}

	successor := s.newRefreshToken(current.UserID, current.DeviceID, current.ID, now)
	if err := s.store.RotateRefreshToken(ctx, current.ID, successor, now); err != nil {
		switch {
		case errors.Is(err, store.ErrTokenAlreadyRevoked):
			s.reportReuse(ctx, current)
			return nil, ErrTokenRevoked
		case errors.Is(err, store.ErrDeviceInactive):
			s.metrics.RecordTokenRefresh("device_inactive")
			return nil, ErrDeviceInactive
		}
		s.metrics.RecordDatabaseQueryError("rotate_refresh_token")
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	s.metrics.RecordTokenRefresh("success")
	s.metrics.RecordTokenIssued(GrantTypeRefreshToken, time.Since(start))
	s.metrics.RecordTokenRevoked("rotated", 1)

	s.auditService.Log(ctx, AuditLogEntry{
		EventType:    models.EventTokenRefreshed,
		Severity:     models.SeverityInfo,
		ActorUserID:  user.ID,
		ActorEmail:   user.Email,
		ResourceType: models.ResourceToken,
		ResourceID:   successor.ID,
		Action:       "Refresh token rotated",
		Details: models.AuditDetails{
			"device_id":       current.DeviceID,
			"parent_token_id": current.ID,
			"jti":             access.Claims.ID,
		},
		Success: true,
	})

	return s.pair(access, successor), nil
}

func (s *TokenService) reportReuse(ctx context.Context, rt *models.RefreshToken) {
	s.metrics.RecordTokenRefresh("reused")
	log.Warn().
		Str("user_id", rt.UserID).
		Str("device_id", rt.DeviceID).
		Str("refresh_token_id", rt.ID).
		Msg("revoked refresh token presented")
	s.auditService.Log(ctx, AuditLogEntry{
		EventType:    models.EventRefreshTokenReuse,
		Severity:     models.SeverityCritical,
		ActorUserID:  rt.UserID,
		ResourceType: models.ResourceToken,
		ResourceID:   rt.ID,
		Action:       "Revoked refresh token presented",
		Details:      models.AuditDetails{"device_id": rt.DeviceID},
		Success:      false,
		ErrorMessage: ErrTokenRevoked.Error(),
	})
}

// Logout revokes what the request names and returns how many tokens were
// revoked. Revoking an unknown or already revoked token is not an error.
func (s *TokenService) Logout(ctx context.Context, req LogoutRequest) (int64, error) {
	var (
		revoked int64
		err     error
		scope   string
		userID  string
	)

	switch {
	case req.RefreshToken != "":
		scope = "token"
		revoked, err = s.RevokeRefreshToken(ctx, req.RefreshToken)
	case req.Claims != nil && req.AllDevices:
		scope = "all_devices"
		userID = req.Claims.UserID()
		revoked, err = s.RevokeUserTokens(ctx, userID)
	case req.Claims != nil:
		scope = "device"
		userID = req.Claims.UserID()
		revoked, err = s.RevokeDeviceTokens(ctx, userID, req.Claims.DeviceID)
	default:
		return 0, fmt.Errorf("%w: refresh_token or access token is required", ErrInvalidInput)
	}
	if err != nil {
		return 0, err
	}

	s.auditService.Log(ctx, AuditLogEntry{
		EventType:    models.EventLogout,
		Severity:     models.SeverityInfo,
		ActorUserID:  userID,
		ResourceType: models.ResourceToken,
		Action:       "Logout",
		Details: models.AuditDetails{
			"scope":   scope,
			"revoked": revoked,
		},
		Success: true,
	})
	return revoked, nil
}

// RevokeRefreshToken revokes a single refresh token by its raw value
func (s *TokenService) RevokeRefreshToken(ctx context.Context, rawToken string) (int64, error) {
	n, err := s.store.RevokeRefreshTokenByHash(ctx, s.hasher.Hash(rawToken), s.now())
	if err != nil {
		s.metrics.RecordDatabaseQueryError("revoke_refresh_token")
		return 0, fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	s.metrics.RecordTokenRevoked("logout", n)
	return n, nil
}

// RevokeUserTokens revokes every active refresh token of the user
func (s *TokenService) RevokeUserTokens(ctx context.Context, userID string) (int64, error) {
	n, err := s.store.RevokeRefreshTokensByUser(ctx, userID, s.now())
	if err != nil {
		s.metrics.RecordDatabaseQueryError("revoke_user_tokens")
		return 0, fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	s.metrics.RecordTokenRevoked("user_revoked", n)
	s.auditService.Log(ctx, AuditLogEntry{
		EventType:    models.EventTokenRevoked,
		Severity:     models.SeverityInfo,
		ResourceType: models.ResourceUser,
		ResourceID:   userID,
		Action:       "All refresh tokens revoked",
		Details:      models.AuditDetails{"revoked": n},
		Success:      true,
	})
	return n, nil
}

// RevokeDeviceTokens revokes the user's active refresh tokens on one device
func (s *TokenService) RevokeDeviceTokens(
	ctx context.Context,
	userID, deviceID string,
) (int64, error) {
	n, err := s.store.RevokeRefreshTokensByDevice(ctx, userID, deviceID, s.now())
	if err != nil {
		s.metrics.RecordDatabaseQueryError("revoke_device_tokens")
		return 0, fmt.Errorf("failed to revoke device tokens: %w", err)
	}
	s.metrics.RecordTokenRevoked("device_logout", n)
	return n, nil
}

// DeactivateDevice marks the user's device inactive and revokes its tokens.
// Outstanding access tokens stay valid until they expire.
func (s *TokenService) DeactivateDevice(
	ctx context.Context,
	userID, deviceID string,
) (int64, error) {
	n, err := s.store.DeactivateDevice(ctx, userID, deviceID, s.now())
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return 0, ErrDeviceNotFound
		}
		s.metrics.RecordDatabaseQueryError("deactivate_device")
		return 0, fmt.Errorf("failed to deactivate device: %w", err)
	}

	s.metrics.RecordDeviceDeactivated()
	s.metrics.RecordTokenRevoked("device_deactivated", n)
	s.auditService.Log(ctx, AuditLogEntry{
		EventType:    models.EventDeviceDeactivated,
		Severity:     models.SeverityInfo,
		ActorUserID:  userID,
		ResourceType: models.ResourceDevice,
		ResourceID:   deviceID,
		Action:       "Device deactivated",
		Details:      models.AuditDetails{"revoked": n},
		Success:      true,
	})
	return n, nil
}

// ListDevices returns the user's devices, most recently seen first
func (s *TokenService) ListDevices(ctx context.Context, userID string) ([]models.Device, error) {
	devices, err := s.store.ListDevicesByUser(ctx, userID)
	if err != nil {
		s.metrics.RecordDatabaseQueryError("list_devices")
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

// VerifyAccessToken checks an access token without touching the database
func (s *TokenService) VerifyAccessToken(tokenString string) (*token.AccessTokenClaims, error) {
	start := time.Now()
	claims, err := s.issuer.Verify(tokenString)
	result := "valid"
	switch {
	case errors.Is(err, token.ErrExpiredToken):
		result = "expired"
	case err != nil:
		result = "invalid"
	}
	s.metrics.RecordTokenValidation(result, time.Since(start))
	return claims, err
}

func (s *TokenService) newRefreshToken(
	userID, deviceID, parentID string,
	now time.Time,
) *models.RefreshToken {
	raw := util.GenerateRefreshTokenValue()
	return &models.RefreshToken{
		ID:        uuid.New().String(),
		TokenHash: s.hasher.Hash(raw),
		RawToken:  raw,
		UserID:    userID,
		DeviceID:  deviceID,
		ParentID:  parentID,
		ExpiresAt: now.Add(s.config.RefreshTokenExpiration),
		CreatedAt: now,
	}
}

func (s *TokenService) pair(access *token.AccessToken, refresh *models.RefreshToken) *TokenPair {
	return &TokenPair{
		AccessToken:           access.TokenString,
		RefreshToken:          refresh.RawToken,
		TokenType:             access.TokenType,
		ExpiresIn:             int(s.issuer.TTL().Seconds()),
		AccessTokenExpiresAt:  access.ExpiresAt,
		RefreshTokenExpiresAt: refresh.ExpiresAt,
	}
}

func identityFor(user *models.User, deviceID string) token.Identity {
	return token.Identity{
		UserID:   user.ID,
		Email:    user.Email,
		Name:     user.Name,
		Role:     user.Role,
		DeviceID: deviceID,
	}
}
