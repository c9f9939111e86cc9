package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// User lookup mode constants
const (
	UserLookupModeLocal   = "local"
	UserLookupModeHTTPAPI = "http_api"
)

// Rate limit store constants
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

// Metrics cache type constants
const (
	MetricsCacheTypeMemory = "memory"
	MetricsCacheTypeRedis  = "redis"
)

// DefaultSessionSecret is the development fallback for SESSION_SECRET. It is
// public, so Validate rejects it in production.
const DefaultSessionSecret = "session-secret-change-in-production"

// ErrConfig is wrapped by every ConfigError so callers can match the class with errors.Is.
var ErrConfig = errors.New("invalid configuration")

// ConfigError reports a setting that prevents the process from starting.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s", e.Key, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfig
}

type Config struct {
	// Server settings
	ServerAddr  string
	BaseURL     string
	Environment string
	LogLevel    string
	LogJSON     bool

	// Signing and hashing secrets
	JWTSecret         string
	LicenseHMACSecret string
	TokenIssuer       string
	TokenAudience     string

	// Token lifetimes
	AccessTokenExpiration  time.Duration
	RefreshTokenExpiration time.Duration

	// Device code settings
	DeviceCodeExpiration    time.Duration
	PollingInterval         int // seconds
	DeviceCodeSweepInterval time.Duration
	VerificationPath        string
	MaxDevicesPerUser       int

	// Session settings (browser side of the approval step)
	SessionSecret string
	SessionMaxAge int // seconds

	// Database
	DatabaseDriver    string // "sqlite" or "postgres"
	DatabaseDSN       string
	DefaultAdminEmail string // seeded when the users table is empty

	// User lookup
	UserLookupMode string // "local" or "http_api"

	// External user directory
	UserAPIURL                string
	UserAPITimeout            time.Duration
	UserAPIInsecureSkipVerify bool
	UserAPIAuthMode           string // "none", "simple" or "hmac"
	UserAPIAuthSecret         string
	UserAPIAuthHeader         string
	UserAPIMaxRetries         int
	UserAPIRetryDelay         time.Duration
	UserAPIMaxRetryDelay      time.Duration

	// Rate limiting
	EnableRateLimit          bool
	RateLimitStore           string // "memory" or "redis"
	RateLimitCleanupInterval time.Duration
	DeviceCodeRateLimit      int // requests per minute per IP
	PollRateLimit            int // device code polling
	TokenRateLimit           int // refresh and logout
	AuthorizeRateLimit       int

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Metrics
	MetricsEnabled             bool
	MetricsToken               string
	MetricsGaugeUpdateEnabled  bool
	MetricsGaugeUpdateInterval time.Duration
	MetricsCacheType           string // "memory" or "redis"

	// Audit
	EnableAuditLogging bool
	AuditLogRetention  time.Duration
	AuditLogBufferSize int

	// Error reporting
	SentryDSN string

	// Timeouts
	DBInitTimeout         time.Duration
	RedisConnTimeout      time.Duration
	CacheInitTimeout      time.Duration
	ServerShutdownTimeout time.Duration
	AuditShutdownTimeout  time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", "deviceauth.db")
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	baseURL := strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/")
	pollingInterval := getEnvInt("POLLING_INTERVAL", 5)

	return &Config{
		ServerAddr:  getEnv("SERVER_ADDR", ":8080"),
		BaseURL:     baseURL,
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogJSON:     getEnvBool("LOG_JSON", false),

		JWTSecret:         getEnv("JWT_SECRET", ""),
		LicenseHMACSecret: getEnv("LICENSE_HMAC_SECRET", ""),
		TokenIssuer:       getEnv("TOKEN_ISSUER", baseURL),
		TokenAudience:     getEnv("TOKEN_AUDIENCE", "desktop-client"),

		AccessTokenExpiration:  getEnvDuration("ACCESS_TOKEN_EXPIRATION", 15*time.Minute),
		RefreshTokenExpiration: getEnvDuration("REFRESH_TOKEN_EXPIRATION", 720*time.Hour),

		DeviceCodeExpiration:    getEnvDuration("DEVICE_CODE_EXPIRATION", 10*time.Minute),
		PollingInterval:         pollingInterval,
		DeviceCodeSweepInterval: getEnvDuration("DEVICE_CODE_SWEEP_INTERVAL", time.Minute),
		VerificationPath:        getEnv("VERIFICATION_PATH", "/device"),
		MaxDevicesPerUser:       getEnvInt("MAX_DEVICES_PER_USER", 3),

		SessionSecret: getEnv("SESSION_SECRET", DefaultSessionSecret),
		SessionMaxAge: getEnvInt("SESSION_MAX_AGE", 3600),

		DatabaseDriver:    driver,
		DatabaseDSN:       dsn,
		DefaultAdminEmail: getEnv("DEFAULT_ADMIN_EMAIL", "admin@localhost"),

		UserLookupMode: getEnv("USER_LOOKUP_MODE", UserLookupModeLocal),

		UserAPIURL:                getEnv("USER_API_URL", ""),
		UserAPITimeout:            getEnvDuration("USER_API_TIMEOUT", 10*time.Second),
		UserAPIInsecureSkipVerify: getEnvBool("USER_API_INSECURE_SKIP_VERIFY", false),
		UserAPIAuthMode:           getEnv("USER_API_AUTH_MODE", "none"),
		UserAPIAuthSecret:         getEnv("USER_API_AUTH_SECRET", ""),
		UserAPIAuthHeader:         getEnv("USER_API_AUTH_HEADER", "X-API-Secret"),
		UserAPIMaxRetries:         getEnvInt("USER_API_MAX_RETRIES", 3),
		UserAPIRetryDelay:         getEnvDuration("USER_API_RETRY_DELAY", 1*time.Second),
		UserAPIMaxRetryDelay:      getEnvDuration("USER_API_MAX_RETRY_DELAY", 10*time.Second),

		EnableRateLimit:          getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:           getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		RateLimitCleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		DeviceCodeRateLimit:      getEnvInt("DEVICE_CODE_RATE_LIMIT", 10),
		PollRateLimit:            getEnvInt("POLL_RATE_LIMIT", defaultPollRateLimit(pollingInterval)),
		TokenRateLimit:           getEnvInt("TOKEN_RATE_LIMIT", 20),
		AuthorizeRateLimit:       getEnvInt("AUTHORIZE_RATE_LIMIT", 10),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MetricsEnabled:             getEnvBool("METRICS_ENABLED", false),
		MetricsToken:               getEnv("METRICS_TOKEN", ""),
		MetricsGaugeUpdateEnabled:  getEnvBool("METRICS_GAUGE_UPDATE_ENABLED", true),
		MetricsGaugeUpdateInterval: getEnvDuration("METRICS_GAUGE_UPDATE_INTERVAL", 5*time.Minute),
		MetricsCacheType:           getEnv("METRICS_CACHE_TYPE", MetricsCacheTypeMemory),

		EnableAuditLogging: getEnvBool("AUDIT_LOG_ENABLED", true),
		AuditLogRetention:  getEnvDuration("AUDIT_LOG_RETENTION", 90*24*time.Hour),
		AuditLogBufferSize: getEnvInt("AUDIT_LOG_BUFFER_SIZE", 1000),

		SentryDSN: getEnv("SENTRY_DSN", ""),

		DBInitTimeout:         getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),
		RedisConnTimeout:      getEnvDuration("REDIS_CONN_TIMEOUT", 5*time.Second),
		CacheInitTimeout:      getEnvDuration("CACHE_INIT_TIMEOUT", 5*time.Second),
		ServerShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
		AuditShutdownTimeout:  getEnvDuration("AUDIT_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// VerificationURL is the page a user opens in the browser to approve a code.
func (c *Config) VerificationURL() string {
	return c.BaseURL + c.VerificationPath
}

// Validate returns a *ConfigError for the first setting that would make the
// service unusable. It is called once at startup.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return &ConfigError{Key: "JWT_SECRET", Reason: "signing key is required"}
	}
	if c.LicenseHMACSecret == "" {
		return &ConfigError{Key: "LICENSE_HMAC_SECRET", Reason: "hashing secret is required"}
	}
	if c.AccessTokenExpiration <= 0 {
		return &ConfigError{Key: "ACCESS_TOKEN_EXPIRATION", Reason: "must be positive"}
	}
	if c.RefreshTokenExpiration <= c.AccessTokenExpiration {
		return &ConfigError{
			Key:    "REFRESH_TOKEN_EXPIRATION",
			Reason: "must be longer than ACCESS_TOKEN_EXPIRATION",
		}
	}
	if c.DeviceCodeExpiration <= 0 {
		return &ConfigError{Key: "DEVICE_CODE_EXPIRATION", Reason: "must be positive"}
	}
	if c.PollingInterval <= 0 {
		return &ConfigError{Key: "POLLING_INTERVAL", Reason: "must be positive"}
	}
	if c.MaxDevicesPerUser < 0 {
		return &ConfigError{Key: "MAX_DEVICES_PER_USER", Reason: "must not be negative (0 disables the cap)"}
	}
	if c.SessionSecret == "" {
		return &ConfigError{Key: "SESSION_SECRET", Reason: "session signing key is required"}
	}
	if c.IsProduction() && c.SessionSecret == DefaultSessionSecret {
		return &ConfigError{Key: "SESSION_SECRET", Reason: "the built-in default must not be used in production"}
	}

	switch c.UserLookupMode {
	case UserLookupModeLocal:
	case UserLookupModeHTTPAPI:
		if c.UserAPIURL == "" {
			return &ConfigError{
				Key:    "USER_API_URL",
				Reason: "required when USER_LOOKUP_MODE=http_api",
			}
		}
	default:
		return &ConfigError{
			Key:    "USER_LOOKUP_MODE",
			Reason: fmt.Sprintf("invalid value %q (must be: local, http_api)", c.UserLookupMode),
		}
	}

	if c.RateLimitStore != RateLimitStoreMemory && c.RateLimitStore != RateLimitStoreRedis {
		return &ConfigError{
			Key:    "RATE_LIMIT_STORE",
			Reason: fmt.Sprintf("invalid value %q (must be: memory, redis)", c.RateLimitStore),
		}
	}
	if c.MetricsCacheType != MetricsCacheTypeMemory && c.MetricsCacheType != MetricsCacheTypeRedis {
		return &ConfigError{
			Key:    "METRICS_CACHE_TYPE",
			Reason: fmt.Sprintf("invalid value %q (must be: memory, redis)", c.MetricsCacheType),
		}
	}

	return nil
}

// pollClientsPerIP is how many devices behind one address may poll at the
// advertised interval before the poll limiter rejects them.
const pollClientsPerIP = 8

// defaultPollRateLimit sizes the per-IP poll budget from the interval that
// clients are told to respect.
func defaultPollRateLimit(intervalSeconds int) int {
	if intervalSeconds <= 0 {
		intervalSeconds = 1
	}
	return pollClientsPerIP * max(60/intervalSeconds, 1)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
