package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-authgate/deviceauth/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenIssuer signs and verifies HS256 access tokens with a
// server-held key. Verification is stateless.
type AccessTokenIssuer struct {
	key      []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time
}

// NewAccessTokenIssuer returns a *config.ConfigError when the signing key is
// missing, so the process refuses to start instead of failing per request.
func NewAccessTokenIssuer(cfg *config.Config) (*AccessTokenIssuer, error) {
	if cfg.JWTSecret == "" {
		return nil, &config.ConfigError{Key: "JWT_SECRET", Reason: "signing key is required"}
	}
	if cfg.AccessTokenExpiration <= 0 {
		return nil, &config.ConfigError{
			Key:    "ACCESS_TOKEN_EXPIRATION",
			Reason: "must be positive",
		}
	}
	return &AccessTokenIssuer{
		key:      []byte(cfg.JWTSecret),
		issuer:   cfg.TokenIssuer,
		audience: cfg.TokenAudience,
		ttl:      cfg.AccessTokenExpiration,
		now:      time.Now,
	}, nil
}

// TTL returns the fixed access token lifetime
func (i *AccessTokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue mints an access token for the identity
func (i *AccessTokenIssuer) Issue(id Identity) (*AccessToken, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)

	claims := &AccessTokenClaims{
		Email:    id.Email,
		Name:     id.Name,
		Role:     id.Role,
		DeviceID: id.DeviceID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(i.key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	return &AccessToken{
		TokenString: tokenString,
		TokenType:   TokenTypeBearer,
		ExpiresAt:   expiresAt,
		Claims:      claims,
	}, nil
}

// Verify checks signature, algorithm, expiry, issuer and audience
func (i *AccessTokenIssuer) Verify(tokenString string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (any, error) {
			return i.key, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithAudience(i.audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
