package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-authgate/deviceauth/internal/config"
	"github.com/go-authgate/deviceauth/internal/metrics"
	"github.com/go-authgate/deviceauth/internal/models"
	"github.com/go-authgate/deviceauth/internal/store"
	"github.com/go-authgate/deviceauth/internal/token"
	"github.com/go-authgate/deviceauth/internal/util"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testConfig() *config.Config {
	return &config.Config{
		BaseURL:                "http://localhost:8080",
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
	}
}

// testClock is a settable clock shared by the services under test
type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	store   *store.Store
	config  *config.Config
	clock   *testClock
	devices *DeviceService
	tokens  *TokenService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	s := setupTestStore(t)
	cfg := testConfig()

	hasher := util.NewTokenHasher(cfg.LicenseHMACSecret)
	issuer, err := token.NewAccessTokenIssuer(cfg)
	require.NoError(t, err)

	audit := NewAuditService(s, false, 0)
	m := metrics.NewNoopMetrics()
	clock := &testClock{now: time.Now().UTC()}

	ds := NewDeviceService(s, cfg, hasher, NewStoreDeviceLimitPolicy(s, cfg.MaxDevicesPerUser), audit, m)
	ds.now = clock.Now
	ts := NewTokenService(s, cfg, hasher, issuer, NewLocalUserLookup(s), audit, m)
	ts.now = clock.Now

	return &testEnv{store: s, config: cfg, clock: clock, devices: ds, tokens: ts}
}

func (e *testEnv) createUser(t *testing.T, role string) *models.User {
	t.Helper()
	id := uuid.New().String()
	user := &models.User{
		ID:    id,
		Email: id + "@example.com",
		Name:  "Test User",
		Role:  role,
	}
	require.NoError(t, e.store.CreateUser(context.Background(), user))
	return user
}

func (e *testEnv) requestCode(t *testing.T, deviceID string) *models.DeviceCode {
	t.Helper()
	dc, err := e.devices.RequestCode(context.Background(), DeviceCodeRequest{
		DeviceID:   deviceID,
		DeviceName: "Workstation",
		Platform:   "linux",
	})
	require.NoError(t, err)
	return dc
}

func TestRequestCode(t *testing.T) {
	env := newTestEnv(t)

	dc := env.requestCode(t, "device-1")

	assert.NotEmpty(t, dc.DeviceCode)
	assert.Equal(t, util.NewTokenHasher("test-hmac-secret").Hash(dc.DeviceCode), dc.DeviceCodeHash)
	assert.True(t, util.IsValidUserCode(dc.UserCode))
	assert.Equal(t, 5, dc.Interval)
	assert.WithinDuration(t, env.clock.Now().Add(10*time.Minute), dc.ExpiresAt, time.Second)

	stored, err := env.store.GetDeviceCodeByUserCode(context.Background(), dc.UserCode)
	require.NoError(t, err)
	assert.Equal(t, dc.ID, stored.ID)
	assert.Empty(t, stored.DeviceCode, "raw device code is never persisted")
}

func TestRequestCode_RequiresDeviceID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.devices.RequestCode(context.Background(), DeviceCodeRequest{DeviceID: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestRequestCode_SecondRequestEvictsFirst(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := env.requestCode(t, "device-1")
	second := env.requestCode(t, "device-1")
	assert.NotEqual(t, first.UserCode, second.UserCode)

	_, err := env.devices.LookupUserCode(ctx, first.UserCode)
	assert.ErrorIs(t, err, ErrUserCodeNotFound)

	result, err := env.tokens.Poll(ctx, first.DeviceCode)
	require.NoError(t, err)
	assert.Equal(t, PollExpired, result.Status)

	found, err := env.devices.LookupUserCode(ctx, second.UserCode)
	require.NoError(t, err)
	assert.Equal(t, second.ID, found.ID)
}

func TestLookupUserCode_NormalizesInput(t *testing.T) {
	env := newTestEnv(t)
	dc := env.requestCode(t, "device-1")

	sloppy := " " + dc.UserCode[:4] + " " + dc.UserCode[5:] + " "
	found, err := env.devices.LookupUserCode(context.Background(), sloppy)
	require.NoError(t, err)
	assert.Equal(t, dc.ID, found.ID)
}

func TestAuthorizeUserCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, models.RoleUser)
	dc := env.requestCode(t, "device-1")

	authorized, err := env.devices.AuthorizeUserCode(ctx, dc.UserCode, user)
	require.NoError(t, err)
	require.NotNil(t, authorized.AuthorizedUserID)
	assert.Equal(t, user.ID, *authorized.AuthorizedUserID)

	_, err = env.devices.AuthorizeUserCode(ctx, dc.UserCode, user)
	assert.ErrorIs(t, err, ErrAlreadyAuthorized)

	_, err = env.devices.LookupUserCode(ctx, dc.UserCode)
	assert.ErrorIs(t, err, ErrAlreadyAuthorized)
}

func TestAuthorizeUserCode_Guards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, models.RoleUser)

	_, err := env.devices.AuthorizeUserCode(ctx, "not-a-code", user)
	assert.ErrorIs(t, err, ErrUserCodeNotFound)

	_, err = env.devices.AuthorizeUserCode(ctx, "ABCD-2345", user)
	assert.ErrorIs(t, err, ErrUserCodeNotFound)

	dc := env.requestCode(t, "device-1")
	env.clock.Advance(env.config.DeviceCodeExpiration)
	_, err = env.devices.AuthorizeUserCode(ctx, dc.UserCode, user)
	assert.ErrorIs(t, err, ErrDeviceCodeExpired)

	// Expired codes are discarded on sight
	_, err = env.devices.AuthorizeUserCode(ctx, dc.UserCode, user)
	assert.ErrorIs(t, err, ErrUserCodeNotFound)
}

func TestAuthorizeUserCode_ExpiryBoundary(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, models.RoleUser)
	dc := env.requestCode(t, "device-1")

	env.clock.Advance(env.config.DeviceCodeExpiration - time.Millisecond)
	_, err := env.devices.AuthorizeUserCode(ctx, dc.UserCode, user)
	require.NoError(t, err)

	env.clock.Advance(2 * time.Millisecond)
	result, err := env.tokens.Poll(ctx, dc.DeviceCode)
	require.NoError(t, err)
	assert.Equal(t, PollExpired, result.Status)
}

func TestAuthorizeUserCode_DeviceLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, models.RoleUser)

	for i := range env.config.MaxDevicesPerUser {
		deviceID := "device-" + string(rune('a'+i))
		dc := env.requestCode(t, deviceID)
		_, err := env.devices.AuthorizeUserCode(ctx, dc.UserCode, user)
		require.NoError(t, err)
		result, err := env.tokens.Poll(ctx, dc.DeviceCode)
		require.NoError(t, err)
		require.Equal(t, PollAuthorized, result.Status)
	}

	dc := env.requestCode(t, "device-over-limit")
	_, err := env.devices.AuthorizeUserCode(ctx, dc.UserCode, user)
	assert.ErrorIs(t, err, ErrDeviceLimitReached)

	// Signing an already active device in again does not count against the cap
	again := env.requestCode(t, "device-a")
	_, err = env.devices.AuthorizeUserCode(ctx, again.UserCode, user)
	assert.NoError(t, err)
}

func TestAuthorizeUserCode_ConcurrentApprovals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dc := env.requestCode(t, "device-1")

	users := []*models.User{
		env.createUser(t, models.RoleUser),
		env.createUser(t, models.RoleUser),
		env.createUser(t, models.RoleUser),
		env.createUser(t, models.RoleUser),
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for _, u := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.devices.AuthorizeUserCode(ctx, dc.UserCode, u)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, ErrAlreadyAuthorized)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestSweepExpired(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.requestCode(t, "device-1")
	env.requestCode(t, "device-2")

	n, err := env.devices.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	env.clock.Advance(env.config.DeviceCodeExpiration)
	n, err = env.devices.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
