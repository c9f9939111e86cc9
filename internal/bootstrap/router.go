package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/go-authgate/deviceauth/internal/config"
	"github.com/go-authgate/deviceauth/internal/core"
	"github.com/go-authgate/deviceauth/internal/metrics"
	"github.com/go-authgate/deviceauth/internal/middleware"
	"github.com/go-authgate/deviceauth/internal/services"
	"github.com/go-authgate/deviceauth/internal/store"
	"github.com/go-authgate/deviceauth/internal/util"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// sessionCookieName is shared with the web dashboard that signs users in
const sessionCookieName = "deviceauth_session"

type routerDeps struct {
	cfg          *config.Config
	db           *store.Store
	handlers     handlerSet
	metrics      core.Recorder
	tokenService *services.TokenService
	users        core.UserLookup
	auditService *services.AuditService
	redisClient  *redis.Client
	sentry       bool
}

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(d routerDeps) (*gin.Engine, error) {
	setupGinMode(d.cfg)
	r := gin.New()

	if d.sentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(metrics.HTTPMetricsMiddleware(d.metrics))
	r.Use(util.IPMiddleware())

	setupSessionMiddleware(r, d.cfg)

	r.GET("/health", createHealthCheckHandler(d.db))
	setupMetricsEndpoint(r, d.cfg)

	rateLimiters, err := setupRateLimiting(d.cfg, d.auditService, d.redisClient)
	if err != nil {
		return nil, err
	}

	setupAllRoutes(r, d, rateLimiters)
	logServerStartup(d.cfg)

	return r, nil
}

// setupSessionMiddleware configures session handling middleware
func setupSessionMiddleware(r *gin.Engine, cfg *config.Config) {
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionCookieName, sessionStore))
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		log.Info().Msg("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Info().Msg("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Info().Msg("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(r *gin.Engine, d routerDeps, rl rateLimitMiddlewares) {
	h := d.handlers
	requireBearer := middleware.RequireBearer(d.tokenService)
	requireUser := middleware.RequireUser(d.tokenService, d.users)

	api := r.Group("/api")

	// Device client side: no credentials yet
	device := api.Group("/device")
	{
		device.POST("/code", rl.deviceCode, h.device.RequestCode)
		device.POST("/token", rl.poll, h.device.Poll)

		// Browser side: a signed-in person approves the code
		device.GET("/lookup", requireUser, h.device.Lookup)
		device.POST("/authorize", rl.authorize, requireUser, h.device.Authorize)
	}

	api.POST("/token/refresh", rl.token, h.token.Refresh)

	auth := api.Group("/auth")
	{
		auth.POST("/logout", rl.token, middleware.OptionalBearer(d.tokenService), h.token.Logout)
		auth.GET("/verify", requireBearer, h.token.Verify)
	}

	devices := api.Group("/devices", requireBearer)
	{
		devices.GET("", h.devices.List)
		devices.DELETE("/:device_id", h.devices.Deactivate)
	}

	admin := api.Group("/admin", requireBearer, middleware.RequireAdmin())
	{
		admin.GET("/audit", h.audit.ListAuditLogs)
		admin.GET("/audit/stats", h.audit.GetAuditLogStats)
		admin.GET("/audit/export", h.audit.ExportAuditLogs)
	}
}

// createHealthCheckHandler reports whether the database is reachable
func createHealthCheckHandler(db *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		switch err := db.Health(ctx); err {
		case nil:
			c.JSON(http.StatusOK, gin.H{
				"status":   "healthy",
				"database": "connected",
			})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
			})
		}
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config) {
	mode := ginModeMap[cfg.IsProduction()]
	gin.SetMode(mode)
	log.Info().Str("mode", mode).Msg("Gin mode")
}

var ginModeMap = map[bool]string{
	true:  gin.ReleaseMode,
	false: gin.DebugMode,
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config) {
	log.Info().
		Str("addr", cfg.ServerAddr).
		Str("user_lookup", cfg.UserLookupMode).
		Str("verification_url", cfg.VerificationURL()).
		Msg("Device authorization server starting")
	log.Info().Msg("Tip: add ?user_code=XXXX-XXXX to the verification URL to pre-fill the code")
}
