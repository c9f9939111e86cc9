package bootstrap

import (
	"fmt"

	"github.com/go-authgate/deviceauth/internal/client"
	"github.com/go-authgate/deviceauth/internal/config"
	"github.com/go-authgate/deviceauth/internal/core"
	"github.com/go-authgate/deviceauth/internal/services"
	"github.com/go-authgate/deviceauth/internal/store"
	"github.com/go-authgate/deviceauth/internal/token"
	"github.com/go-authgate/deviceauth/internal/util"

	"github.com/rs/zerolog/log"
)

// initializeUserLookup selects where account records come from
func initializeUserLookup(
	cfg *config.Config,
	db *store.Store,
	recorder core.Recorder,
) (core.UserLookup, error) {
	if cfg.UserLookupMode != config.UserLookupModeHTTPAPI {
		log.Info().Msg("User lookup: local database")
		return services.NewLocalUserLookup(db), nil
	}

	retryClient, err := client.NewDirectoryClient(client.DirectoryConfig{
		AuthMode:           cfg.UserAPIAuthMode,
		AuthSecret:         cfg.UserAPIAuthSecret,
		AuthHeader:         cfg.UserAPIAuthHeader,
		Timeout:            cfg.UserAPITimeout,
		InsecureSkipVerify: cfg.UserAPIInsecureSkipVerify,
		MaxRetries:         cfg.UserAPIMaxRetries,
		RetryDelay:         cfg.UserAPIRetryDelay,
		MaxRetryDelay:      cfg.UserAPIMaxRetryDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user API client: %w", err)
	}

	log.Info().
		Str("url", cfg.UserAPIURL).
		Str("auth_mode", cfg.UserAPIAuthMode).
		Msg("User lookup: external user directory")
	return services.NewHTTPUserLookup(cfg.UserAPIURL, retryClient, recorder), nil
}

// initializeServices creates the device flow and token lifecycle services
func initializeServices(
	cfg *config.Config,
	db *store.Store,
	users core.UserLookup,
	auditService *services.AuditService,
	recorder core.Recorder,
) (*services.DeviceService, *services.TokenService, error) {
	issuer, err := token.NewAccessTokenIssuer(cfg)
	if err != nil {
		return nil, nil, err
	}
	hasher := util.NewTokenHasher(cfg.LicenseHMACSecret)

	deviceService := services.NewDeviceService(
		db,
		cfg,
		hasher,
		services.NewStoreDeviceLimitPolicy(db, cfg.MaxDevicesPerUser),
		auditService,
		recorder,
	)
	tokenService := services.NewTokenService(
		db,
		cfg,
		hasher,
		issuer,
		users,
		auditService,
		recorder,
	)

	return deviceService, tokenService, nil
}
