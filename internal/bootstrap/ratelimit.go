package bootstrap

import (
	"fmt"

	"github.com/go-authgate/deviceauth/internal/config"
	"github.com/go-authgate/deviceauth/internal/middleware"
	"github.com/go-authgate/deviceauth/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// rateLimitMiddlewares holds the per-endpoint limiters
type rateLimitMiddlewares struct {
	deviceCode gin.HandlerFunc
	poll       gin.HandlerFunc
	token      gin.HandlerFunc
	authorize  gin.HandlerFunc
}

// setupRateLimiting configures rate limiting middlewares based on configuration.
// redisClient is nil unless the redis store is selected.
func setupRateLimiting(
	cfg *config.Config,
	auditService *services.AuditService,
	redisClient *redis.Client,
) (rateLimitMiddlewares, error) {
	if !cfg.EnableRateLimit {
		noOp := func(c *gin.Context) { c.Next() }
		log.Info().Msg("Rate limiting disabled")
		return rateLimitMiddlewares{deviceCode: noOp, poll: noOp, token: noOp, authorize: noOp}, nil
	}

	storeType := middleware.RateLimitStoreType(cfg.RateLimitStore)
	log.Info().Str("store", cfg.RateLimitStore).Msg("Rate limiting enabled")

	createLimiter := func(requestsPerMinute int, endpoint string) (gin.HandlerFunc, error) {
		limiter, err := middleware.NewRateLimiter(middleware.RateLimitConfig{
			Endpoint:          endpoint,
			RequestsPerMinute: requestsPerMinute,
			StoreType:         storeType,
			RedisClient:       redisClient,
			CleanupInterval:   cfg.RateLimitCleanupInterval,
			AuditService:      auditService,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter for %s: %w", endpoint, err)
		}
		return limiter, nil
	}

	var (
		limiters rateLimitMiddlewares
		err      error
	)
	if limiters.deviceCode, err = createLimiter(cfg.DeviceCodeRateLimit, "device_code"); err != nil {
		return limiters, err
	}
	if limiters.poll, err = createLimiter(cfg.PollRateLimit, "device_poll"); err != nil {
		return limiters, err
	}
	if limiters.token, err = createLimiter(cfg.TokenRateLimit, "token"); err != nil {
		return limiters, err
	}
	if limiters.authorize, err = createLimiter(cfg.AuthorizeRateLimit, "device_authorize"); err != nil {
		return limiters, err
	}
	return limiters, nil
}
