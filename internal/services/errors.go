package services

import "errors"

// Device authorization errors
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUserCodeNotFound   = errors.New("user code not found")
	ErrDeviceCodeExpired  = errors.New("device code expired")
	ErrAlreadyAuthorized  = errors.New("device code already authorized")
	ErrDeviceLimitReached = errors.New("device limit reached")
	ErrUserCodeExhausted  = errors.New("could not allocate a unique user code")
	ErrAccessDenied       = errors.New("access denied")
)

// Token lifecycle errors
var (
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrTokenRevoked        = errors.New("refresh token revoked")
	ErrTokenExpired        = errors.New("refresh token expired")
	ErrDeviceInactive      = errors.New("device is inactive")
	ErrAccountBlocked      = errors.New("account blocked")
	ErrDeviceNotFound      = errors.New("device not found")
)

// User directory errors
var (
	ErrUserAPIConnection  = errors.New("failed to connect to user API")
	ErrUserAPIAuthFailed  = errors.New("user API rejected the request")
	ErrUserAPIInvalidResp = errors.New("invalid response from user API")
)
