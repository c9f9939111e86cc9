package models

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserContext(t *testing.T) {
	tests := []struct {
		name          string
		user          *User
		expectedID    string
		expectedEmail string
	}{
		{
			name:          "Valid user",
			user:          &User{ID: "user-123", Email: "test@example.com"},
			expectedID:    "user-123",
			expectedEmail: "test@example.com",
		},
		{
			name: "Nil user",
			user: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := SetUserContext(context.Background(), tt.user)

			assert.Equal(t, tt.expectedID, GetUserIDFromContext(ctx))
			assert.Equal(t, tt.expectedEmail, GetEmailFromContext(ctx))
			if tt.user == nil {
				assert.Nil(t, GetUserFromContext(ctx))
			} else {
				assert.Same(t, tt.user, GetUserFromContext(ctx))
			}
		})
	}
}

func TestDeviceCode_ExpiredAt(t *testing.T) {
	expiresAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	dc := &DeviceCode{ExpiresAt: expiresAt}

	assert.False(t, dc.ExpiredAt(expiresAt.Add(-time.Millisecond)))
	assert.True(t, dc.ExpiredAt(expiresAt))
	assert.True(t, dc.ExpiredAt(expiresAt.Add(time.Millisecond)))
}

func TestDeviceCode_IsAuthorized(t *testing.T) {
	userID := "user-1"
	now := time.Now()

	assert.False(t, (&DeviceCode{}).IsAuthorized())
	assert.False(t, (&DeviceCode{AuthorizedUserID: &userID}).IsAuthorized())
	assert.True(t, (&DeviceCode{AuthorizedUserID: &userID, AuthorizedAt: &now}).IsAuthorized())
}

func TestRefreshToken_State(t *testing.T) {
	now := time.Now()

	active := &RefreshToken{ExpiresAt: now.Add(time.Hour)}
	assert.False(t, active.IsExpired())
	assert.False(t, active.IsRevoked())

	revoked := &RefreshToken{ExpiresAt: now.Add(time.Hour), RevokedAt: &now}
	assert.True(t, revoked.IsRevoked())

	expired := &RefreshToken{ExpiresAt: now.Add(-time.Second)}
	assert.True(t, expired.IsExpired())
	assert.True(t, (&RefreshToken{}).IsExpired(), "zero time is expired")
}

func TestUser_Roles(t *testing.T) {
	assert.True(t, (&User{Role: RoleBlocked}).IsBlocked())
	assert.False(t, (&User{Role: RoleUser}).IsBlocked())
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
}
