package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token type constants
const (
	TokenTypeBearer = "Bearer"
)

// Identity is the account and device an access token is minted for.
type Identity struct {
	UserID   string
	Email    string
	Name     string
	Role     string
	DeviceID string
}

// AccessTokenClaims are the claims carried by an access token. Subject is the
// user id; issuer, audience and expiry come from the registered claims.
type AccessTokenClaims struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	DeviceID string `json:"device_id"`
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *AccessTokenClaims) UserID() string {
	return c.Subject
}

// AccessToken is a signed access token and its expiry.
type AccessToken struct {
	TokenString string
	TokenType   string
	ExpiresAt   time.Time
	Claims      *AccessTokenClaims
}
