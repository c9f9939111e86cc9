package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-authgate/deviceauth/internal/config"
	"github.com/go-authgate/deviceauth/internal/core"
	"github.com/go-authgate/deviceauth/internal/services"
	"github.com/go-authgate/deviceauth/internal/store"

	"github.com/appleboy/graceful"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Application holds all initialized components
type Application struct {
	Config *config.Config

	// Core infrastructure
	DB                   *store.Store
	MetricsRecorder      core.Recorder
	MetricsCache         core.Cache[int64]
	MetricsCacheCloser   func() error
	RateLimitRedisClient *redis.Client
	SentryEnabled        bool

	// Services
	AuditService  *services.AuditService
	UserLookup    core.UserLookup
	DeviceService *services.DeviceService
	TokenService  *services.TokenService

	// HTTP
	HandlerSet handlerSet
	Router     *gin.Engine
	Server     *http.Server
}

// Run initializes and starts the application. It returns when the process
// has been asked to stop and every shutdown job has finished.
func Run(ctx context.Context, cfg *config.Config) error {
	initLogger(cfg)

	// Phase 1: Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{Config: cfg}
	app.SentryEnabled = initSentry(cfg)

	// Phase 2: Initialize infrastructure
	if err := app.initializeInfrastructure(ctx); err != nil {
		return err
	}

	// Phase 3: Initialize business layer
	if err := app.initializeBusinessLayer(); err != nil {
		return err
	}

	// Phase 4: Initialize HTTP layer
	if err := app.initializeHTTPLayer(); err != nil {
		return err
	}

	// Phase 5: Start server with graceful shutdown
	app.startWithGracefulShutdown()

	return nil
}

// initializeInfrastructure sets up database, metrics, cache, and Redis
func (app *Application) initializeInfrastructure(ctx context.Context) error {
	var err error

	app.DB, err = initializeDatabase(ctx, app.Config)
	if err != nil {
		return err
	}

	app.MetricsRecorder = initializeMetrics(app.Config)
	app.MetricsCache, app.MetricsCacheCloser, err = initializeMetricsCache(ctx, app.Config)
	if err != nil {
		return err
	}

	// Redis (for rate limiting)
	app.RateLimitRedisClient, err = initializeRateLimitRedisClient(ctx, app.Config)
	if err != nil {
		return err
	}

	return nil
}

// initializeBusinessLayer sets up services
func (app *Application) initializeBusinessLayer() error {
	// Audit service (required by other services)
	app.AuditService = services.NewAuditService(
		app.DB,
		app.Config.EnableAuditLogging,
		app.Config.AuditLogBufferSize,
	)

	var err error
	app.UserLookup, err = initializeUserLookup(app.Config, app.DB, app.MetricsRecorder)
	if err != nil {
		return err
	}

	app.DeviceService, app.TokenService, err = initializeServices(
		app.Config,
		app.DB,
		app.UserLookup,
		app.AuditService,
		app.MetricsRecorder,
	)
	return err
}

// initializeHTTPLayer sets up handlers, router, and server
func (app *Application) initializeHTTPLayer() error {
	app.HandlerSet = initializeHandlers(
		app.Config,
		app.DeviceService,
		app.TokenService,
		app.AuditService,
	)

	var err error
	app.Router, err = setupRouter(routerDeps{
		cfg:          app.Config,
		db:           app.DB,
		handlers:     app.HandlerSet,
		metrics:      app.MetricsRecorder,
		tokenService: app.TokenService,
		users:        app.UserLookup,
		auditService: app.AuditService,
		redisClient:  app.RateLimitRedisClient,
		sentry:       app.SentryEnabled,
	})
	if err != nil {
		return err
	}

	app.Server = createHTTPServer(app.Config, app.Router)
	return nil
}

// startWithGracefulShutdown starts the server and handles graceful shutdown
func (app *Application) startWithGracefulShutdown() {
	m := graceful.NewManager()

	addServerRunningJob(m, app.Server)
	addServerShutdownJob(m, app.Server, app.Config.ServerShutdownTimeout)
	addDeviceCodeSweepJob(m, app.Config, app.DeviceService)
	addAuditLogCleanupJob(m, app.Config, app.AuditService)
	addMetricsGaugeUpdateJob(m, app.Config, app.DB, app.MetricsRecorder, app.MetricsCache)
	addStorageShutdownJob(m, app.AuditService, app.DB, app.Config.AuditShutdownTimeout)
	addRedisClientShutdownJob(m, app.RateLimitRedisClient)
	addCacheCleanupJob(m, app.MetricsCacheCloser)
	addSentryFlushJob(m, app.SentryEnabled)

	<-m.Done()
	log.Info().Msg("Shutdown complete")
}
