package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-authgate/deviceauth/internal/cache"
	"github.com/go-authgate/deviceauth/internal/config"
	"github.com/go-authgate/deviceauth/internal/metrics"
	"github.com/go-authgate/deviceauth/internal/mocks"
	"github.com/go-authgate/deviceauth/internal/services"
	"github.com/go-authgate/deviceauth/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func testConfig() *config.Config {
	return &config.Config{
		ServerAddr:             ":0",
		BaseURL:                "http://localhost:8080",
		Environment:            "test",
		JWTSecret:              "test-jwt-secret",
		LicenseHMACSecret:      "test-hmac-secret",
		TokenIssuer:            "http://localhost:8080",
		TokenAudience:          "desktop-client",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 720 * time.Hour,
		DeviceCodeExpiration:   10 * time.Minute,
		PollingInterval:        5,
		VerificationPath:       "/device",
		MaxDevicesPerUser:      3,
		SessionSecret:          "test-session-secret",
		SessionMaxAge:          3600,
		DatabaseDriver:         "sqlite",
		DatabaseDSN:            ":memory:",
		DefaultAdminEmail:      "admin@localhost",
		UserLookupMode:         config.UserLookupModeLocal,
		RateLimitStore:         config.RateLimitStoreMemory,
		DeviceCodeRateLimit:    2,
		PollRateLimit:          96,
		TokenRateLimit:         20,
		AuthorizeRateLimit:     10,
		MetricsCacheType:       config.MetricsCacheTypeMemory,
		DBInitTimeout:          5 * time.Second,
		CacheInitTimeout:       time.Second,
	}
}

func TestInitializeMetrics(t *testing.T) {
	m := initializeMetrics(&config.Config{MetricsEnabled: false})
	require.NotNil(t, m)
	assert.IsType(t, &metrics.NoopMetrics{}, m)
}

func TestInitializeMetricsCacheDisabled(t *testing.T) {
	ctx := context.Background()

	// Metrics disabled - no cache
	c, closer, err := initializeMetricsCache(
		ctx,
		&config.Config{MetricsEnabled: false, MetricsGaugeUpdateEnabled: true},
	)
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.Nil(t, closer)

	// Gauge updates disabled - no cache
	c, closer, err = initializeMetricsCache(
		ctx,
		&config.Config{MetricsEnabled: true, MetricsGaugeUpdateEnabled: false},
	)
	require.NoError(t, err)
	assert.Nil(t, c)
	assert.Nil(t, closer)
}

func TestInitializeMetricsCacheMemory(t *testing.T) {
	cfg := &config.Config{
		MetricsEnabled:            true,
		MetricsGaugeUpdateEnabled: true,
		MetricsCacheType:          config.MetricsCacheTypeMemory,
		CacheInitTimeout:          time.Second,
	}
	c, closer, err := initializeMetricsCache(context.Background(), cfg)
	require.NoError(t, err)
	require.NotNil(t, c)
	require.NotNil(t, closer)
	_ = closer()
}

func TestInitializeRateLimitRedisClient_NotNeeded(t *testing.T) {
	ctx := context.Background()

	client, err := initializeRateLimitRedisClient(ctx, &config.Config{EnableRateLimit: false})
	require.NoError(t, err)
	assert.Nil(t, client)

	client, err = initializeRateLimitRedisClient(ctx, &config.Config{
		EnableRateLimit: true,
		RateLimitStore:  config.RateLimitStoreMemory,
	})
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestInitializeDatabase_SeedsAdmin(t *testing.T) {
	db, err := initializeDatabase(context.Background(), testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// A second seed is a no-op once a user exists
	seeded, err := db.SeedAdmin(context.Background(), "other@localhost")
	require.NoError(t, err)
	assert.Nil(t, seeded)
}

func TestInitializeUserLookup(t *testing.T) {
	cfg := testConfig()
	db, err := store.New(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	users, err := initializeUserLookup(cfg, db, metrics.NewNoopMetrics())
	require.NoError(t, err)
	assert.Equal(t, "local", users.Name())

	cfg.UserLookupMode = config.UserLookupModeHTTPAPI
	cfg.UserAPIURL = "http://users.example.com/lookup"
	cfg.UserAPIAuthMode = "simple"
	cfg.UserAPIAuthSecret = "secret"
	cfg.UserAPIAuthHeader = "X-API-Secret"
	cfg.UserAPITimeout = time.Second
	cfg.UserAPIMaxRetries = 1
	cfg.UserAPIRetryDelay = 10 * time.Millisecond
	cfg.UserAPIMaxRetryDelay = 100 * time.Millisecond

	users, err = initializeUserLookup(cfg, db, metrics.NewNoopMetrics())
	require.NoError(t, err)
	assert.Equal(t, "http_api", users.Name())
}

func TestInitializeServices_RequiresSigningKey(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = ""

	_, _, err := initializeServices(cfg, nil, nil, nil, metrics.NewNoopMetrics())
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfig)
}

func TestSetupRateLimitingDisabled(t *testing.T) {
	limiters, err := setupRateLimiting(&config.Config{EnableRateLimit: false}, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, limiters.deviceCode)
	require.NotNil(t, limiters.poll)
	require.NotNil(t, limiters.token)
	require.NotNil(t, limiters.authorize)

	// Verify noop middlewares don't panic
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	assert.NotPanics(t, func() { limiters.deviceCode(c) })
}

func TestSetupRateLimitingInvalid(t *testing.T) {
	cfg := testConfig()
	cfg.EnableRateLimit = true
	cfg.PollRateLimit = 0

	_, err := setupRateLimiting(cfg, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device_poll")
}

func newTestRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	ctx := context.Background()

	db, err := initializeDatabase(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	recorder := metrics.NewNoopMetrics()
	audit := services.NewAuditService(db, false, 0)
	users, err := initializeUserLookup(cfg, db, recorder)
	require.NoError(t, err)
	ds, ts, err := initializeServices(cfg, db, users, audit, recorder)
	require.NoError(t, err)

	r, err := setupRouter(routerDeps{
		cfg:          cfg,
		db:           db,
		handlers:     initializeHandlers(cfg, ds, ts, audit),
		metrics:      recorder,
		tokenService: ts,
		users:        users,
		auditService: audit,
	})
	require.NoError(t, err)
	return r
}

func TestSetupRouter_Routes(t *testing.T) {
	cfg := testConfig()
	cfg.EnableRateLimit = true
	r := newTestRouter(t, cfg)

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusNotFound},
		{http.MethodGet, "/api/auth/verify", http.StatusUnauthorized},
		{http.MethodGet, "/api/devices", http.StatusUnauthorized},
		{http.MethodGet, "/api/admin/audit", http.StatusUnauthorized},
		{http.MethodGet, "/api/device/lookup?user_code=ABCD-1234", http.StatusUnauthorized},
		{http.MethodPost, "/api/auth/logout", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestSetupRouter_DeviceCodeRateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.EnableRateLimit = true
	cfg.DeviceCodeRateLimit = 2
	r := newTestRouter(t, cfg)

	statuses := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/device/code", nil)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		statuses = append(statuses, w.Code)
	}

	// Empty bodies are rejected, but every request still counts
	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, statuses)
}

func TestSetupRouter_PollingHasItsOwnBudget(t *testing.T) {
	cfg := testConfig()
	cfg.EnableRateLimit = true
	cfg.PollRateLimit = 5
	cfg.TokenRateLimit = 1
	r := newTestRouter(t, cfg)

	post := func(path string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	for i := range 5 {
		assert.NotEqual(t, http.StatusTooManyRequests, post("/api/device/token"), "poll %d", i+1)
	}
	assert.Equal(t, http.StatusTooManyRequests, post("/api/device/token"))

	// Refresh and logout draw on the token budget, untouched by polling
	assert.Equal(t, http.StatusBadRequest, post("/api/token/refresh"))
	assert.Equal(t, http.StatusTooManyRequests, post("/api/auth/logout"))
}

func TestUpdateGaugeMetricsWithCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	ms := mocks.NewMockMetricsStore(ctrl)
	ms.EXPECT().CountActiveRefreshTokens(gomock.Any()).Return(int64(7), nil)
	ms.EXPECT().CountActiveDevices(gomock.Any()).Return(int64(3), nil)
	ms.EXPECT().CountTotalDeviceCodes(gomock.Any()).Return(int64(0), errors.New("db down"))
	ms.EXPECT().CountPendingDeviceCodes(gomock.Any()).Return(int64(2), nil)

	rec := mocks.NewMockRecorder(ctrl)
	rec.EXPECT().SetActiveRefreshTokensCount(7)
	rec.EXPECT().SetActiveDevicesCount(3)
	rec.EXPECT().RecordDatabaseQueryError("count_total_device_codes")
	rec.EXPECT().SetActiveDeviceCodesCount(0, 2)

	wrapper := metrics.NewCacheWrapper(ms, cache.NewMemoryCache[int64]())
	updateGaugeMetricsWithCache(ctx, wrapper, rec, time.Minute)
}

func TestCreateHTTPServer(t *testing.T) {
	srv := createHTTPServer(
		&config.Config{ServerAddr: ":8080"},
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}),
	)
	require.NotNil(t, srv)
	assert.Equal(t, ":8080", srv.Addr)
}

func TestGinModeMap(t *testing.T) {
	assert.Equal(t, gin.ReleaseMode, ginModeMap[true])
	assert.Equal(t, gin.DebugMode, ginModeMap[false])
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, parseLogLevel(""))
	assert.Equal(t, zerolog.DebugLevel, parseLogLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLogLevel("warn"))
	assert.Equal(t, zerolog.InfoLevel, parseLogLevel("loud"))
}

func TestInitSentryWithoutDSN(t *testing.T) {
	assert.False(t, initSentry(&config.Config{}))
}

func TestErrorLogger(t *testing.T) {
	el := newErrorLogger()
	require.NotNil(t, el)

	assert.True(t, el.logIfNeeded("test_op", assert.AnError))
	assert.False(t, el.logIfNeeded("test_op", assert.AnError), "second error inside the window is suppressed")
	assert.True(t, el.logIfNeeded("other_op", assert.AnError))
}

func TestRunPeriodically(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	done := make(chan struct{})

	go func() {
		defer close(done)
		runPeriodically(ctx, time.Hour, func(context.Context) {
			calls++
			cancel()
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("runPeriodically did not return after cancel")
	}
	assert.Equal(t, 1, calls, "runs once immediately")
}
