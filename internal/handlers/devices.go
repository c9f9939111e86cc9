package handlers

import (
	"net/http"

	"github.com/go-authgate/deviceauth/internal/models"
	"github.com/go-authgate/deviceauth/internal/services"

	"github.com/gin-gonic/gin"
)

// DevicesHandler lets a signed-in user see and sign out their installations
type DevicesHandler struct {
	tokenService *services.TokenService
}

func NewDevicesHandler(ts *services.TokenService) *DevicesHandler {
	return &DevicesHandler{tokenService: ts}
}

// List handles GET /api/devices
func (h *DevicesHandler) List(c *gin.Context) {
	userID := models.GetUserIDFromContext(c.Request.Context())

	devices, err := h.tokenService.ListDevices(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if devices == nil {
		devices = []models.Device{}
	}

	c.JSON(http.StatusOK, gin.H{"devices": devices})
}

// Deactivate handles DELETE /api/devices/:device_id
func (h *DevicesHandler) Deactivate(c *gin.Context) {
	userID := models.GetUserIDFromContext(c.Request.Context())

	revoked, err := h.tokenService.DeactivateDevice(
		c.Request.Context(),
		userID,
		c.Param("device_id"),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"revoked": revoked,
	})
}
