package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		JWTSecret:              "jwt-secret",
		LicenseHMACSecret:      "hmac-secret",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 720 * time.Hour,
		DeviceCodeExpiration:   10 * time.Minute,
		PollingInterval:        5,
		MaxDevicesPerUser:      3,
		UserLookupMode:         UserLookupModeLocal,
		RateLimitStore:         RateLimitStoreMemory,
		MetricsCacheType:       MetricsCacheTypeMemory,
		SessionSecret:          "session-secret",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		expectKey string
	}{
		{
			name:   "valid defaults",
			mutate: func(c *Config) {},
		},
		{
			name:   "valid redis store",
			mutate: func(c *Config) { c.RateLimitStore = RateLimitStoreRedis },
		},
		{
			name:      "missing signing key",
			mutate:    func(c *Config) { c.JWTSecret = "" },
			expectKey: "JWT_SECRET",
		},
		{
			name:      "missing hmac secret",
			mutate:    func(c *Config) { c.LicenseHMACSecret = "" },
			expectKey: "LICENSE_HMAC_SECRET",
		},
		{
			name:      "refresh shorter than access",
			mutate:    func(c *Config) { c.RefreshTokenExpiration = time.Minute },
			expectKey: "REFRESH_TOKEN_EXPIRATION",
		},
		{
			name:   "zero device cap means unlimited",
			mutate: func(c *Config) { c.MaxDevicesPerUser = 0 },
		},
		{
			name:      "negative device cap",
			mutate:    func(c *Config) { c.MaxDevicesPerUser = -1 },
			expectKey: "MAX_DEVICES_PER_USER",
		},
		{
			name:      "missing session secret",
			mutate:    func(c *Config) { c.SessionSecret = "" },
			expectKey: "SESSION_SECRET",
		},
		{
			name:   "default session secret outside production",
			mutate: func(c *Config) { c.SessionSecret = DefaultSessionSecret },
		},
		{
			name: "default session secret in production",
			mutate: func(c *Config) {
				c.Environment = "production"
				c.SessionSecret = DefaultSessionSecret
			},
			expectKey: "SESSION_SECRET",
		},
		{
			name:      "http lookup without url",
			mutate:    func(c *Config) { c.UserLookupMode = UserLookupModeHTTPAPI },
			expectKey: "USER_API_URL",
		},
		{
			name:      "unknown lookup mode",
			mutate:    func(c *Config) { c.UserLookupMode = "ldap" },
			expectKey: "USER_LOOKUP_MODE",
		},
		{
			name:      "invalid store typo",
			mutate:    func(c *Config) { c.RateLimitStore = "reddis" },
			expectKey: "RATE_LIMIT_STORE",
		},
		{
			name:      "invalid metrics cache",
			mutate:    func(c *Config) { c.MetricsCacheType = "memcache" },
			expectKey: "METRICS_CACHE_TYPE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.expectKey == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfig)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.expectKey, cfgErr.Key)
		})
	}
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("LICENSE_HMAC_SECRET", "hmac-from-env")
	t.Setenv("BASE_URL", "https://auth.example.com/")
	t.Setenv("ACCESS_TOKEN_EXPIRATION", "5m")
	t.Setenv("MAX_DEVICES_PER_USER", "7")
	t.Setenv("ENABLE_RATE_LIMIT", "false")

	cfg := Load()

	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, "hmac-from-env", cfg.LicenseHMACSecret)
	assert.Equal(t, "https://auth.example.com", cfg.BaseURL)
	assert.Equal(t, "https://auth.example.com", cfg.TokenIssuer)
	assert.Equal(t, "https://auth.example.com/device", cfg.VerificationURL())
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenExpiration)
	assert.Equal(t, 7, cfg.MaxDevicesPerUser)
	assert.False(t, cfg.EnableRateLimit)
	require.NoError(t, cfg.Validate())
}

func TestLoad_SessionSecretDefault(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("LICENSE_HMAC_SECRET", "hmac-from-env")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SESSION_SECRET", "")

	cfg := Load()
	assert.Equal(t, DefaultSessionSecret, cfg.SessionSecret)

	var cfgErr *ConfigError
	require.ErrorAs(t, cfg.Validate(), &cfgErr)
	assert.Equal(t, "SESSION_SECRET", cfgErr.Key)

	t.Setenv("SESSION_SECRET", "a-real-secret")
	require.NoError(t, Load().Validate())
}

func TestLoad_PollRateLimitFollowsInterval(t *testing.T) {
	t.Setenv("POLL_RATE_LIMIT", "")
	t.Setenv("POLLING_INTERVAL", "5")
	assert.Equal(t, 96, Load().PollRateLimit, "eight clients at 12 polls a minute")

	t.Setenv("POLLING_INTERVAL", "10")
	assert.Equal(t, 48, Load().PollRateLimit)

	t.Setenv("POLL_RATE_LIMIT", "30")
	assert.Equal(t, 30, Load().PollRateLimit)
}

func TestLoad_IgnoresMalformedValues(t *testing.T) {
	t.Setenv("POLLING_INTERVAL", "fast")
	t.Setenv("DEVICE_CODE_EXPIRATION", "ten minutes")

	cfg := Load()

	assert.Equal(t, 5, cfg.PollingInterval)
	assert.Equal(t, 10*time.Minute, cfg.DeviceCodeExpiration)
}
