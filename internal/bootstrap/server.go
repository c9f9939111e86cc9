package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-authgate/deviceauth/internal/config"
	"github.com/go-authgate/deviceauth/internal/core"
	"github.com/go-authgate/deviceauth/internal/metrics"
	"github.com/go-authgate/deviceauth/internal/services"
	"github.com/go-authgate/deviceauth/internal/store"

	"github.com/appleboy/graceful"
	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// createHTTPServer creates the HTTP server instance
func createHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// addServerRunningJob adds the HTTP server running job
func addServerRunningJob(m *graceful.Manager, srv *http.Server) {
	m.AddRunningJob(func(ctx context.Context) error {
		go func() {
			log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Failed to start server")
			}
		}()
		<-ctx.Done()
		return nil
	})
}

// addServerShutdownJob adds HTTP server shutdown handler
func addServerShutdownJob(m *graceful.Manager, srv *http.Server, timeout time.Duration) {
	m.AddShutdownJob(func() error {
		log.Info().Msg("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
			return err
		}

		log.Info().Msg("Server exited")
		return nil
	})
}

// addRedisClientShutdownJob adds Redis client shutdown handler
func addRedisClientShutdownJob(m *graceful.Manager, redisClient *redis.Client) {
	if redisClient == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing Redis client")
			return err
		}
		log.Info().Msg("Redis connection closed")
		return nil
	})
}

// addStorageShutdownJob flushes queued audit entries and then closes the
// database. Both happen in one job so the flush never races the close.
func addStorageShutdownJob(
	m *graceful.Manager,
	auditService *services.AuditService,
	db *store.Store,
	timeout time.Duration,
) {
	m.AddShutdownJob(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var errs []error
		if err := auditService.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Error shutting down audit service")
			errs = append(errs, err)
		}
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
			errs = append(errs, err)
		}
		return errors.Join(errs...)
	})
}

// runPeriodically calls fn once immediately and then on every tick until ctx
// is cancelled.
func runPeriodically(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	fn(ctx)
	for {
		select {
		case <-ticker.C:
			fn(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// addDeviceCodeSweepJob deletes expired device codes on a schedule
func addDeviceCodeSweepJob(
	m *graceful.Manager,
	cfg *config.Config,
	deviceService *services.DeviceService,
) {
	if cfg.DeviceCodeSweepInterval <= 0 {
		log.Info().Msg("Device code sweep disabled")
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		runPeriodically(ctx, cfg.DeviceCodeSweepInterval, func(ctx context.Context) {
			deleted, err := deviceService.SweepExpired(ctx)
			switch {
			case err != nil && ctx.Err() == nil:
				log.Error().Err(err).Msg("Failed to sweep expired device codes")
			case deleted > 0:
				log.Debug().Int64("deleted", deleted).Msg("Swept expired device codes")
			}
		})
		return nil
	})
}

// addAuditLogCleanupJob adds periodic audit log cleanup job
func addAuditLogCleanupJob(
	m *graceful.Manager,
	cfg *config.Config,
	auditService *services.AuditService,
) {
	if !cfg.EnableAuditLogging || cfg.AuditLogRetention <= 0 {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		runPeriodically(ctx, 24*time.Hour, func(ctx context.Context) {
			deleted, err := auditService.CleanupOldLogs(ctx, cfg.AuditLogRetention)
			switch {
			case err != nil && ctx.Err() == nil:
				log.Error().Err(err).Msg("Failed to cleanup old audit logs")
			case deleted > 0:
				log.Info().Int64("deleted", deleted).Msg("Cleaned up old audit logs")
			}
		})
		return nil
	})
}

// addMetricsGaugeUpdateJob adds periodic metrics gauge update job
func addMetricsGaugeUpdateJob(
	m *graceful.Manager,
	cfg *config.Config,
	db *store.Store,
	recorder core.Recorder,
	metricsCache core.Cache[int64],
) {
	if !cfg.MetricsEnabled || !cfg.MetricsGaugeUpdateEnabled || metricsCache == nil {
		return
	}

	m.AddRunningJob(func(ctx context.Context) error {
		cacheWrapper := metrics.NewCacheWrapper(db, metricsCache)
		runPeriodically(ctx, cfg.MetricsGaugeUpdateInterval, func(ctx context.Context) {
			updateGaugeMetricsWithCache(ctx, cacheWrapper, recorder, cfg.MetricsGaugeUpdateInterval)
		})
		return nil
	})
}

// addCacheCleanupJob adds cache cleanup on shutdown
func addCacheCleanupJob(m *graceful.Manager, metricsCacheCloser func() error) {
	if metricsCacheCloser == nil {
		return
	}

	m.AddShutdownJob(func() error {
		if err := metricsCacheCloser(); err != nil {
			log.Error().Err(err).Msg("Error closing metrics cache")
		} else {
			log.Info().Msg("Metrics cache closed")
		}
		return nil
	})
}

// addSentryFlushJob delivers buffered Sentry events before exit
func addSentryFlushJob(m *graceful.Manager, enabled bool) {
	if !enabled {
		return
	}

	m.AddShutdownJob(func() error {
		if !sentry.Flush(2 * time.Second) {
			log.Warn().Msg("Sentry flush timed out")
		}
		return nil
	})
}

// errorLogger handles rate-limited error logging
type errorLogger struct {
	mu              sync.Mutex
	lastErrorTimes  map[string]time.Time
	rateLimitWindow time.Duration
}

// newErrorLogger creates a new error logger with rate limiting
func newErrorLogger() *errorLogger {
	return &errorLogger{
		lastErrorTimes:  make(map[string]time.Time),
		rateLimitWindow: 5 * time.Minute, // Log at most once per 5 minutes per operation
	}
}

// logIfNeeded logs an error only if rate limit allows
func (e *errorLogger) logIfNeeded(operation string, err error) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := time.Now()
	lastTime, exists := e.lastErrorTimes[operation]
	if exists && now.Sub(lastTime) < e.rateLimitWindow {
		return false
	}

	log.Error().Err(err).
		Str("operation", operation).
		Dur("suppressed_for", e.rateLimitWindow).
		Msg("Gauge query failed")
	e.lastErrorTimes[operation] = now
	return true
}

var gaugeErrorLogger = newErrorLogger()

// updateGaugeMetricsWithCache refreshes the gauges through the cache, so
// several replicas sharing a Redis cache query the database once per TTL.
func updateGaugeMetricsWithCache(
	ctx context.Context,
	cacheWrapper *metrics.CacheWrapper,
	m core.Recorder,
	cacheTTL time.Duration,
) {
	activeRefreshTokens, err := cacheWrapper.GetActiveRefreshTokensCount(ctx, cacheTTL)
	if err != nil {
		m.RecordDatabaseQueryError("count_refresh_tokens")
		gaugeErrorLogger.logIfNeeded("count_refresh_tokens", err)
	} else {
		m.SetActiveRefreshTokensCount(int(activeRefreshTokens))
	}

	activeDevices, err := cacheWrapper.GetActiveDevicesCount(ctx, cacheTTL)
	if err != nil {
		m.RecordDatabaseQueryError("count_active_devices")
		gaugeErrorLogger.logIfNeeded("count_active_devices", err)
	} else {
		m.SetActiveDevicesCount(int(activeDevices))
	}

	totalDeviceCodes, err := cacheWrapper.GetTotalDeviceCodesCount(ctx, cacheTTL)
	if err != nil {
		m.RecordDatabaseQueryError("count_total_device_codes")
		gaugeErrorLogger.logIfNeeded("count_total_device_codes", err)
		totalDeviceCodes = 0
	}

	pendingDeviceCodes, err := cacheWrapper.GetPendingDeviceCodesCount(ctx, cacheTTL)
	if err != nil {
		m.RecordDatabaseQueryError("count_pending_device_codes")
		gaugeErrorLogger.logIfNeeded("count_pending_device_codes", err)
		pendingDeviceCodes = 0
	}

	m.SetActiveDeviceCodesCount(int(totalDeviceCodes), int(pendingDeviceCodes))
}
