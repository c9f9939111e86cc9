package bootstrap

import (
	"github.com/go-authgate/deviceauth/internal/config"
	"github.com/go-authgate/deviceauth/internal/handlers"
	"github.com/go-authgate/deviceauth/internal/services"
)

// handlerSet holds all HTTP handlers
type handlerSet struct {
	device  *handlers.DeviceHandler
	token   *handlers.TokenHandler
	devices *handlers.DevicesHandler
	audit   *handlers.AuditHandler
}

// initializeHandlers creates all HTTP handlers
func initializeHandlers(
	cfg *config.Config,
	deviceService *services.DeviceService,
	tokenService *services.TokenService,
	auditService *services.AuditService,
) handlerSet {
	return handlerSet{
		device:  handlers.NewDeviceHandler(deviceService, tokenService, cfg),
		token:   handlers.NewTokenHandler(tokenService),
		devices: handlers.NewDevicesHandler(tokenService),
		audit:   handlers.NewAuditHandler(auditService),
	}
}
