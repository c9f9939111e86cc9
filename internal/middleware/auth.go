package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-authgate/deviceauth/internal/core"
	"github.com/go-authgate/deviceauth/internal/models"
	"github.com/go-authgate/deviceauth/internal/services"
	"github.com/go-authgate/deviceauth/internal/token"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	// SessionUserID is the session key the web dashboard sets on sign-in
	SessionUserID = "user_id"

	claimsKey = "access_token_claims"
)

// bearerToken returns the token from an "Authorization: Bearer" header
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return tokenString, tokenString != ""
}

func abortUnauthorized(c *gin.Context, code, description string) {
	c.Header("WWW-Authenticate", `Bearer error="`+code+`"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":             code,
		"error_description": description,
	})
}

// setUser stores the caller on the request context for services and handlers
func setUser(c *gin.Context, user *models.User) {
	c.Request = c.Request.WithContext(models.SetUserContext(c.Request.Context(), user))
}

// authenticateBearer verifies the access token and records its claims.
// It aborts the request and returns false on failure.
func authenticateBearer(c *gin.Context, ts *services.TokenService, tokenString string) bool {
	claims, err := ts.VerifyAccessToken(tokenString)
	if err != nil {
		if errors.Is(err, token.ErrExpiredToken) {
			abortUnauthorized(c, "token_expired", "Access token has expired")
		} else {
			abortUnauthorized(c, "invalid_token", "Access token is invalid")
		}
		return false
	}

	c.Set(claimsKey, claims)
	setUser(c, &models.User{
		ID:    claims.UserID(),
		Email: claims.Email,
		Name:  claims.Name,
		Role:  claims.Role,
	})
	return true
}

// RequireBearer admits requests carrying a valid access token
func RequireBearer(ts *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "invalid_token", "Bearer token required")
			return
		}
		if authenticateBearer(c, ts, tokenString) {
			c.Next()
		}
	}
}

// OptionalBearer authenticates the request when it carries a bearer token and
// passes it through untouched when it does not. A token that is present but
// invalid is still rejected.
func OptionalBearer(ts *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		if authenticateBearer(c, ts, tokenString) {
			c.Next()
		}
	}
}

// RequireUser admits a signed-in person, identified either by an access
// token or by the dashboard session cookie.
func RequireUser(ts *services.TokenService, users core.UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString, ok := bearerToken(c); ok {
			if authenticateBearer(c, ts, tokenString) {
				c.Next()
			}
			return
		}

		userID, _ := sessions.Default(c).Get(SessionUserID).(string)
		if userID == "" {
			abortUnauthorized(c, "login_required", "Sign in to continue")
			return
		}

		user, err := users.GetUser(c.Request.Context(), userID)
		if err != nil {
			if !errors.Is(err, core.ErrUserNotFound) {
				log.Error().Err(err).Str("user_id", userID).Msg("failed to load session user")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":             "server_error",
					"error_description": "Failed to load user",
				})
				return
			}
			abortUnauthorized(c, "login_required", "Sign in to continue")
			return
		}

		setUser(c, user)
		c.Next()
	}
}

// RequireAdmin must run after RequireBearer or RequireUser
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := models.GetUserFromContext(c.Request.Context())
		if user == nil || !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":             "forbidden",
				"error_description": "Admin access required",
			})
			return
		}
		c.Next()
	}
}

// GetClaims returns the verified access token claims, if the request was
// authenticated with a bearer token.
func GetClaims(c *gin.Context) (*token.AccessTokenClaims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*token.AccessTokenClaims)
	return claims, ok
}
