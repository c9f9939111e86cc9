package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-authgate/deviceauth/internal/models"
	"github.com/go-authgate/deviceauth/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterRedis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// RateLimitStoreType defines the type of rate limit store
type RateLimitStoreType string

const (
	// RateLimitStoreMemory uses in-memory storage (single instance only)
	RateLimitStoreMemory RateLimitStoreType = "memory"
	// RateLimitStoreRedis uses Redis storage (shared across instances)
	RateLimitStoreRedis RateLimitStoreType = "redis"
)

// rateLimitKeyPrefix namespaces limiter counters in the backing store
const rateLimitKeyPrefix = "deviceauth:ratelimit"

// RateLimitConfig holds the configuration for one per-IP limiter
type RateLimitConfig struct {
	// Endpoint names the budget. Limiters with different endpoints never
	// share a counter, even on a shared Redis store.
	Endpoint          string
	RequestsPerMinute int
	CleanupInterval   time.Duration // memory store only

	StoreType   RateLimitStoreType
	RedisClient *redis.Client // required when StoreType is redis

	// Optional; records one audit event per rejected request
	AuditService *services.AuditService
}

// NewRateLimiter creates a per-IP rate limiter
func NewRateLimiter(config RateLimitConfig) (gin.HandlerFunc, error) {
	if config.RequestsPerMinute <= 0 {
		return nil, fmt.Errorf("requests per minute must be positive, got %d", config.RequestsPerMinute)
	}

	rate := limiter.Rate{
		Period: time.Minute,
		Limit:  int64(config.RequestsPerMinute),
	}

	prefix := rateLimitPrefix(config.Endpoint)

	var store limiter.Store
	switch config.StoreType {
	case RateLimitStoreRedis:
		if config.RedisClient == nil {
			return nil, fmt.Errorf("redis rate limit store requires a redis client")
		}
		var err error
		store, err = limiterRedis.NewStoreWithOptions(config.RedisClient, limiter.StoreOptions{
			Prefix:          prefix,
			CleanUpInterval: config.CleanupInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis store: %w", err)
		}

	default:
		cleanup := config.CleanupInterval
		if cleanup <= 0 {
			cleanup = limiter.DefaultCleanUpInterval
		}
		store = memory.NewStoreWithOptions(limiter.StoreOptions{
			Prefix:          prefix,
			CleanUpInterval: cleanup,
		})
	}

	instance := limiter.New(store, rate)

	return mgin.NewMiddleware(instance, mgin.WithLimitReachedHandler(func(c *gin.Context) {
		config.AuditService.Log(c.Request.Context(), services.AuditLogEntry{
			EventType:     models.EventRateLimitExceeded,
			Severity:      models.SeverityWarning,
			ActorIP:       c.ClientIP(),
			Action:        "Rate limit exceeded",
			Details: models.AuditDetails{
				"limit_per_minute": config.RequestsPerMinute,
				"endpoint":         config.Endpoint,
			},
			Success:       false,
			UserAgent:     c.Request.UserAgent(),
			RequestPath:   c.Request.URL.Path,
			RequestMethod: c.Request.Method,
		})
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":             "rate_limit_exceeded",
			"error_description": "Too many requests. Please try again later.",
		})
	})), nil
}

func rateLimitPrefix(endpoint string) string {
	if endpoint == "" {
		return rateLimitKeyPrefix
	}
	return rateLimitKeyPrefix + ":" + endpoint
}
