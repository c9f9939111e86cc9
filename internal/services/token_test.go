package services

import (
	"context"
	"sync"
	"testing"

	"github.com/go-authgate/deviceauth/internal/models"
	"github.com/go-authgate/deviceauth/internal/token"
	"github.com/go-authgate/deviceauth/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// signIn runs the whole device flow for user and returns the first pair
func (e *testEnv) signIn(t *testing.T, user *models.User, deviceID string) *TokenPair {
	t.Helper()
	ctx := context.Background()

	dc := e.requestCode(t, deviceID)
	_, err := e.devices.AuthorizeUserCode(ctx, dc.UserCode, user)
	require.NoError(t, err)

	result, err := e.tokens.Poll(ctx, dc.DeviceCode)
	require.NoError(t, err)
	require.Equal(t, PollAuthorized, result.Status)
	require.NotNil(t, result.Pair)
	return result.Pair
}

func TestDeviceFlow_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, models.RoleUser)

	dc := env.requestCode(t, "device-1")

	result, err := env.tokens.Poll(ctx, dc.DeviceCode)
	require.NoError(t, err)
	assert.Equal(t, PollPending, result.Status)
	assert.Equal(t, 5, result.Interval)

	_, err = env.devices.AuthorizeUserCode(ctx, dc.UserCode, user)
	require.NoError(t, err)

	result, err = env.tokens.Poll(ctx, dc.DeviceCode)
	require.NoError(t, err)
	require.Equal(t, PollAuthorized, result.Status)
	assert.Equal(t, user.ID, result.User.ID)

	pair := result.Pair
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, token.TokenTypeBearer, pair.TokenType)
	assert.Equal(t, 900, pair.ExpiresIn)

	claims, err := env.tokens.VerifyAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID())
	assert.Equal(t, "device-1", claims.DeviceID)

	device, err := env.store.GetDevice(ctx, "device-1")
	require.NoError(t, err)
	assert.True(t, device.IsActive)
	assert.Equal(t, user.ID, device.UserID)
	assert.Equal(t, "Workstation", device.Name)

	// The code is consumed; a replay sees it as expired
	result, err = env.tokens.Poll(ctx, dc.DeviceCode)
	require.NoError(t, err)
	assert.Equal(t, PollExpired, result.Status)
	assert.Nil(t, result.Pair)
}

func TestPoll_UnknownCode(t *testing.T) {
	env := newTestEnv(t)

	for _, code := range []string{"", "unknown-device-code"} {
		result, err := env.tokens.Poll(context.Background(), code)
		require.NoError(t, err)
		assert.Equal(t, PollExpired, result.Status)
	}
}

func TestPoll_BlockedUserDenied(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, models.RoleUser)
	dc := env.requestCode(t, "device-1")

	_, err := env.devices.AuthorizeUserCode(ctx, dc.UserCode, user)
	require.NoError(t, err)
	require.NoError(t, env.store.UpdateUserRole(ctx, user.ID, models.RoleBlocked))

	_, err = env.tokens.Poll(ctx, dc.DeviceCode)
	assert.ErrorIs(t, err, ErrAccessDenied)

	// No device or token was created for the denied sign-in
	_, err = env.store.GetDevice(ctx, "device-1")
	assert.Error(t, err)

	result, err := env.tokens.Poll(ctx, dc.DeviceCode)
	require.NoError(t, err)
	assert.Equal(t, PollExpired, result.Status)
}

func TestPoll_ConcurrentExactlyOneAuthorized(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, models.RoleUser)
	dc := env.requestCode(t, "device-1")
	_, err := env.devices.AuthorizeUserCode(ctx, dc.UserCode, user)
	require.NoError(t, err)

	const pollers = 8
	statuses := make([]PollStatus, pollers)
	var g errgroup.Group
	for i := range pollers {
		g.Go(func() error {
			result, err := env.tokens.Poll(ctx, dc.DeviceCode)
			if err != nil {
				return err
			}
			statuses[i] = result.Status
			return nil
		})
	}
	require.NoError(t, g.Wait())

	authorized := 0
	for _, s := range statuses {
		if s == PollAuthorized {
			authorized++
		} else {
			assert.Equal(t, PollExpired, s)
		}
	}
	assert.Equal(t, 1, authorized)

	count, err := env.store.CountActiveRefreshTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRefresh_Rotates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, models.RoleUser)
	first := env.signIn(t, user, "device-1")

	second, err := env.tokens.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.NotEqual(t, first.AccessToken, second.AccessToken)

	hasher := util.NewTokenHasher(env.config.LicenseHMACSecret)
	old, err := env.store.GetRefreshTokenByHash(ctx, hasher.Hash(first.RefreshToken))
	require.NoError(t, err)
	assert.True(t, old.IsRevoked())

	successor, err := env.store.GetRefreshTokenByHash(ctx, hasher.Hash(second.RefreshToken))
	require.NoError(t, err)
	assert.Equal(t, old.ID, successor.ParentID)
	assert.False(t, successor.IsRevoked())

	// The old token is now a reuse
	_, err = env.tokens.Refresh(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = env.tokens.Refresh(ctx, second.RefreshToken)
	assert.NoError(t, err)
}

func TestRefresh_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.tokens.Refresh(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = env.tokens.Refresh(ctx, "not-a-refresh-token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	user := env.createUser(t, models.RoleUser)
	pair := env.signIn(t, user, "device-1")
	env.clock.Advance(env.config.RefreshTokenExpiration)
	_, err = env.tokens.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefresh_BlockedAccount(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, models.RoleUser)
	pair := env.signIn(t, user, "device-1")

	require.NoError(t, env.store.UpdateUserRole(ctx, user.ID, models.RoleBlocked))

	_, err := env.tokens.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrAccountBlocked)
}

func TestRefresh_ConcurrentOneWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, models.RoleUser)
	pair := env.signIn(t, user, "device-1")

	const callers = 2
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		wins    int
		revoked int
	)
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.tokens.Refresh(ctx, pair.RefreshToken)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			default:
				assert.ErrorIs(t, err, ErrTokenRevoked)
				revoked++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins)
	assert.Equal(t, 1, revoked)

	count, err := env.store.CountActiveRefreshTokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "exactly one successor is persisted")
}

func TestDeactivateDevice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, models.RoleUser)
	pair := env.signIn(t, user, "device-1")
	other := env.signIn(t, user, "device-2")

	n, err := env.tokens.DeactivateDevice(ctx, user.ID, "device-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = env.tokens.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// Other devices are unaffected
	_, err = env.tokens.Refresh(ctx, other.RefreshToken)
	assert.NoError(t, err)

	// Access tokens stay valid until they expire
	_, err = env.tokens.VerifyAccessToken(pair.AccessToken)
	assert.NoError(t, err)

	_, err = env.tokens.DeactivateDevice(ctx, "someone-else", "device-2")
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	devices, err := env.tokens.ListDevices(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, devices, 2)
	active := map[string]bool{}
	for _, d := range devices {
		active[d.DeviceID] = d.IsActive
	}
	assert.False(t, active["device-1"])
	assert.True(t, active["device-2"])
}

func TestDeviceReclaimedByAnotherUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.createUser(t, models.RoleUser)
	bob := env.createUser(t, models.RoleUser)

	alicePair := env.signIn(t, alice, "shared-device")
	bobPair := env.signIn(t, bob, "shared-device")

	_, err := env.tokens.Refresh(ctx, alicePair.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	_, err = env.tokens.Refresh(ctx, bobPair.RefreshToken)
	require.NoError(t, err)

	device, err := env.store.GetDevice(ctx, "shared-device")
	require.NoError(t, err)
	assert.Equal(t, bob.ID, device.UserID)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, models.RoleUser)

	t.Run("by refresh token", func(t *testing.T) {
		pair := env.signIn(t, user, "device-1")
		n, err := env.tokens.Logout(ctx, LogoutRequest{RefreshToken: pair.RefreshToken})
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)

		n, err = env.tokens.Logout(ctx, LogoutRequest{RefreshToken: pair.RefreshToken})
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("current device", func(t *testing.T) {
		pair := env.signIn(t, user, "device-1")
		keep := env.signIn(t, user, "device-2")
		claims, err := env.tokens.VerifyAccessToken(pair.AccessToken)
		require.NoError(t, err)

		_, err = env.tokens.Logout(ctx, LogoutRequest{Claims: claims})
		require.NoError(t, err)

		_, err = env.tokens.Refresh(ctx, pair.RefreshToken)
		assert.ErrorIs(t, err, ErrTokenRevoked)
		_, err = env.tokens.Refresh(ctx, keep.RefreshToken)
		assert.NoError(t, err)
	})

	t.Run("all devices", func(t *testing.T) {
		a := env.signIn(t, user, "device-1")
		b := env.signIn(t, user, "device-2")
		claims, err := env.tokens.VerifyAccessToken(a.AccessToken)
		require.NoError(t, err)

		_, err = env.tokens.Logout(ctx, LogoutRequest{Claims: claims, AllDevices: true})
		require.NoError(t, err)

		_, err = env.tokens.Refresh(ctx, a.RefreshToken)
		assert.ErrorIs(t, err, ErrTokenRevoked)
		_, err = env.tokens.Refresh(ctx, b.RefreshToken)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})

	t.Run("nothing to revoke", func(t *testing.T) {
		_, err := env.tokens.Logout(ctx, LogoutRequest{})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestVerifyAccessToken_Invalid(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.tokens.VerifyAccessToken("garbage")
	assert.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestPollStatus_String(t *testing.T) {
	assert.Equal(t, "pending", PollPending.String())
	assert.Equal(t, "expired", PollExpired.String())
	assert.Equal(t, "authorized", PollAuthorized.String())
	assert.Equal(t, "unknown", PollStatus(0).String())
}
