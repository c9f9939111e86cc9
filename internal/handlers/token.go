package handlers

import (
	"net/http"

	"github.com/go-authgate/deviceauth/internal/middleware"
	"github.com/go-authgate/deviceauth/internal/services"

	"github.com/gin-gonic/gin"
)

type TokenHandler struct {
	tokenService *services.TokenService
}

func NewTokenHandler(ts *services.TokenService) *TokenHandler {
	return &TokenHandler{tokenService: ts}
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
	AllDevices   bool   `json:"all_devices"`
}

// Refresh handles POST /api/token/refresh. The presented token is revoked
// and a new pair is returned.
func (h *TokenHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "refresh_token is required")
		return
	}

	pair, err := h.tokenService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, pairJSON(pair))
}

// Logout handles POST /api/auth/logout. The caller either presents the
// refresh token to revoke, or authenticates with an access token and
// optionally asks for every device to be signed out.
func (h *TokenHandler) Logout(c *gin.Context) {
	var req logoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Request body must be JSON")
			return
		}
	}

	claims, _ := middleware.GetClaims(c)
	if req.RefreshToken == "" && claims == nil {
		badRequest(c, "refresh_token or a bearer token is required")
		return
	}

	revoked, err := h.tokenService.Logout(c.Request.Context(), services.LogoutRequest{
		RefreshToken: req.RefreshToken,
		Claims:       claims,
		AllDevices:   req.AllDevices,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"revoked": revoked,
	})
}

// Verify handles GET /api/auth/verify. Authentication has already happened
// in middleware; this echoes the validated claims.
func (h *TokenHandler) Verify(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "invalid_token",
			"error_description": "Bearer token required",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":      true,
		"user_id":    claims.UserID(),
		"email":      claims.Email,
		"name":       claims.Name,
		"role":       claims.Role,
		"device_id":  claims.DeviceID,
		"jti":        claims.ID,
		"expires_at": claims.ExpiresAt.Time,
	})
}
