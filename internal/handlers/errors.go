package handlers

import (
	"errors"
	"net/http"

	"github.com/go-authgate/deviceauth/internal/services"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// apiError is the status and public error code a service error maps to
type apiError struct {
	status      int
	code        string
	description string
}

var errorTable = []struct {
	target error
	apiError
}{
	{services.ErrInvalidInput, apiError{http.StatusBadRequest, "invalid_request", ""}},
	{services.ErrUserCodeNotFound, apiError{http.StatusNotFound, "code_not_found", "User code not found"}},
	{services.ErrDeviceCodeExpired, apiError{http.StatusGone, "code_expired", "User code has expired"}},
	{services.ErrAlreadyAuthorized, apiError{http.StatusConflict, "already_authorized", "Device has already been authorized"}},
	{services.ErrDeviceLimitReached, apiError{http.StatusForbidden, "device_limit_reached", "Maximum number of devices reached"}},
	{services.ErrAccessDenied, apiError{http.StatusForbidden, "access_denied", "Account may not sign in"}},
	{services.ErrInvalidRefreshToken, apiError{http.StatusUnauthorized, "invalid_token", "Refresh token is invalid"}},
	{services.ErrTokenRevoked, apiError{http.StatusUnauthorized, "token_revoked", "Refresh token has been revoked"}},
	{services.ErrTokenExpired, apiError{http.StatusUnauthorized, "token_expired", "Refresh token has expired"}},
	{services.ErrDeviceInactive, apiError{http.StatusUnauthorized, "device_inactive", "Device has been deactivated"}},
	{services.ErrAccountBlocked, apiError{http.StatusForbidden, "account_blocked", "Account is blocked"}},
	{services.ErrDeviceNotFound, apiError{http.StatusNotFound, "device_not_found", "Device not found"}},
}

func classify(err error) (apiError, bool) {
	for _, e := range errorTable {
		if errors.Is(err, e.target) {
			if e.description == "" {
				e.description = err.Error()
			}
			return e.apiError, true
		}
	}
	return apiError{}, false
}

// respondError writes the JSON error for err. Errors that are not part of the
// API contract become 500 server_error and are reported to Sentry.
func respondError(c *gin.Context, err error) {
	if e, ok := classify(err); ok {
		c.JSON(e.status, gin.H{
			"error":             e.code,
			"error_description": e.description,
		})
		return
	}

	_ = c.Error(err)
	log.Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg("request failed")
	if hub := sentrygin.GetHubFromContext(c); hub != nil {
		hub.CaptureException(err)
	}

	c.JSON(http.StatusInternalServerError, gin.H{
		"error":             "server_error",
		"error_description": "Internal server error",
	})
}

func badRequest(c *gin.Context, description string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":             "invalid_request",
		"error_description": description,
	})
}
