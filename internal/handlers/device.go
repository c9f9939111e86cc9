package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-authgate/deviceauth/internal/config"
	"github.com/go-authgate/deviceauth/internal/models"
	"github.com/go-authgate/deviceauth/internal/services"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	deviceService *services.DeviceService
	tokenService  *services.TokenService
	config        *config.Config
}

func NewDeviceHandler(
	ds *services.DeviceService,
	ts *services.TokenService,
	cfg *config.Config,
) *DeviceHandler {
	return &DeviceHandler{deviceService: ds, tokenService: ts, config: cfg}
}

type deviceCodeRequest struct {
	DeviceID   string `json:"device_id"   binding:"required"`
	DeviceName string `json:"device_name"`
	Platform   string `json:"platform"`
}

type authorizeRequest struct {
	UserCode string `json:"user_code" binding:"required"`
}

type pollRequest struct {
	DeviceCode string `json:"device_code"`
}

// RequestCode handles POST /api/device/code.
// This is called by the desktop client to start the device flow.
func (h *DeviceHandler) RequestCode(c *gin.Context) {
	var req deviceCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "device_id is required")
		return
	}

	dc, err := h.deviceService.RequestCode(c.Request.Context(), services.DeviceCodeRequest{
		DeviceID:   req.DeviceID,
		DeviceName: req.DeviceName,
		Platform:   req.Platform,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	verificationURI := h.config.VerificationURL()
	c.JSON(http.StatusOK, gin.H{
		"device_code":               dc.DeviceCode,
		"user_code":                 dc.UserCode,
		"verification_uri":          verificationURI,
		"verification_uri_complete": verificationURI + "?user_code=" + url.QueryEscape(dc.UserCode),
		"expires_in":                int(h.config.DeviceCodeExpiration.Seconds()),
		"interval":                  dc.Interval,
	})
}

// Lookup handles GET /api/device/lookup. The approval page uses it to show
// which device is asking before the user confirms.
func (h *DeviceHandler) Lookup(c *gin.Context) {
	userCode := c.Query("user_code")
	if userCode == "" {
		badRequest(c, "user_code is required")
		return
	}

	dc, err := h.deviceService.LookupUserCode(c.Request.Context(), userCode)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_code":   dc.UserCode,
		"device_id":   dc.DeviceID,
		"device_name": dc.DeviceName,
		"platform":    dc.Platform,
		"expires_at":  dc.ExpiresAt,
	})
}

// Authorize handles POST /api/device/authorize
func (h *DeviceHandler) Authorize(c *gin.Context) {
	var req authorizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "user_code is required")
		return
	}

	user := models.GetUserFromContext(c.Request.Context())
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "login_required",
			"error_description": "Sign in to continue",
		})
		return
	}

	dc, err := h.deviceService.AuthorizeUserCode(c.Request.Context(), req.UserCode, user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"device_name": dc.DeviceName,
	})
}

// Poll handles POST /api/device/token
func (h *DeviceHandler) Poll(c *gin.Context) {
	var req pollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Request body must be JSON")
		return
	}

	result, err := h.tokenService.Poll(c.Request.Context(), req.DeviceCode)
	if err != nil {
		respondError(c, err)
		return
	}

	switch result.Status {
	case services.PollPending:
		c.JSON(http.StatusAccepted, gin.H{
			"status":   result.Status.String(),
			"interval": result.Interval,
		})
	case services.PollAuthorized:
		body := pairJSON(result.Pair)
		body["user"] = gin.H{
			"id":    result.User.ID,
			"email": result.User.Email,
			"name":  result.User.Name,
			"role":  result.User.Role,
		}
		c.JSON(http.StatusOK, body)
	default:
		c.JSON(http.StatusGone, gin.H{"status": services.PollExpired.String()})
	}
}

func pairJSON(pair *services.TokenPair) gin.H {
	return gin.H{
		"access_token":             pair.AccessToken,
		"refresh_token":            pair.RefreshToken,
		"token_type":               pair.TokenType,
		"expires_in":               pair.ExpiresIn,
		"refresh_token_expires_at": pair.RefreshTokenExpiresAt,
	}
}
