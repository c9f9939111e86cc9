package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-authgate/deviceauth/internal/config"
	"github.com/go-authgate/deviceauth/internal/metrics"
	"github.com/go-authgate/deviceauth/internal/models"
	"github.com/go-authgate/deviceauth/internal/services"
	"github.com/go-authgate/deviceauth/internal/store"
	"github.com/go-authgate/deviceauth/internal/token"
	"github.com/go-authgate/deviceauth/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	store  *store.Store
	tokens *services.TokenService
	users  *services.LocalUserLookup
	issuer *token.AccessTokenIssuer
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:              "test-jwt-secret",
		LicenseHMACSecret:      "test-hmac-secret",
		TokenIssuer:            "http://localhost:8080",
		TokenAudience:          "desktop-client",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
	}

	s, err := store.New(context.Background(), "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	issuer, err := token.NewAccessTokenIssuer(cfg)
	require.NoError(t, err)

	users := services.NewLocalUserLookup(s)
	ts := services.NewTokenService(
		s,
		cfg,
		util.NewTokenHasher(cfg.LicenseHMACSecret),
		issuer,
		users,
		services.NewAuditService(s, false, 0),
		metrics.NewNoopMetrics(),
	)
	return &authFixture{store: s, tokens: ts, users: users, issuer: issuer}
}

func (f *authFixture) accessToken(t *testing.T, userID, role string) string {
	t.Helper()
	result, err := f.issuer.Issue(token.Identity{
		UserID:   userID,
		Email:    userID + "@example.com",
		Role:     role,
		DeviceID: "device-1",
	})
	require.NoError(t, err)
	return result.TokenString
}

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.GET("/login/:user_id", func(c *gin.Context) {
		session := sessions.Default(c)
		session.Set(SessionUserID, c.Param("user_id"))
		_ = session.Save()
		c.Status(http.StatusNoContent)
	})
	return r
}

func echoCaller(c *gin.Context) {
	user := models.GetUserFromContext(c.Request.Context())
	_, bearer := GetClaims(c)
	c.JSON(http.StatusOK, gin.H{"user_id": user.ID, "role": user.Role, "bearer": bearer})
}

func TestRequireBearer(t *testing.T) {
	f := newAuthFixture(t)
	r := setupTestRouter()
	r.GET("/api/devices", RequireBearer(f.tokens), echoCaller)

	expired := func() string {
		now := time.Now()
		claims := &token.AccessTokenClaims{
			Role: models.RoleUser,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				Issuer:    "http://localhost:8080",
				Audience:  jwt.ClaimStrings{"desktop-client"},
				IssuedAt:  jwt.NewNumericDate(now.Add(-time.Hour)),
				ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
			SignedString([]byte("test-jwt-secret"))
		require.NoError(t, err)
		return signed
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer " + f.accessToken(t, "user-1", models.RoleUser), http.StatusOK, `"user_id":"user-1"`},
		{"missing header", "", http.StatusUnauthorized, "invalid_token"},
		{"expired token", "Bearer " + expired(), http.StatusUnauthorized, "token_expired"},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, "invalid_token"},
		{"wrong scheme", "Token abc", http.StatusUnauthorized, "invalid_token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/devices", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestRequireUser_Session(t *testing.T) {
	f := newAuthFixture(t)
	require.NoError(t, f.store.CreateUser(context.Background(), &models.User{
		ID:    "user-1",
		Email: "ada@example.com",
		Role:  models.RoleUser,
	}))

	r := setupTestRouter()
	r.POST("/api/device/authorize", RequireUser(f.tokens, f.users), echoCaller)

	// No session, no token
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/device/authorize", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "login_required")

	login := func(userID string) []*http.Cookie {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login/"+userID, nil))
		require.Equal(t, http.StatusNoContent, w.Code)
		return w.Result().Cookies()
	}

	req := httptest.NewRequest(http.MethodPost, "/api/device/authorize", nil)
	for _, c := range login("user-1") {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"user-1"`)
	assert.Contains(t, w.Body.String(), `"bearer":false`)

	// Session for an account that no longer exists
	req = httptest.NewRequest(http.MethodPost, "/api/device/authorize", nil)
	for _, c := range login("ghost") {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireUser_Bearer(t *testing.T) {
	f := newAuthFixture(t)
	r := setupTestRouter()
	r.POST("/api/device/authorize", RequireUser(f.tokens, f.users), echoCaller)

	req := httptest.NewRequest(http.MethodPost, "/api/device/authorize", nil)
	req.Header.Set("Authorization", "Bearer "+f.accessToken(t, "user-2", models.RoleUser))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"user-2"`)
	assert.Contains(t, w.Body.String(), `"bearer":true`)
}

func TestRequireAdmin(t *testing.T) {
	f := newAuthFixture(t)
	r := setupTestRouter()
	r.GET("/api/admin/audit", RequireBearer(f.tokens), RequireAdmin(), echoCaller)

	tests := []struct {
		role       string
		wantStatus int
	}{
		{models.RoleAdmin, http.StatusOK},
		{models.RoleUser, http.StatusForbidden},
		{models.RoleBlocked, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/audit", nil)
			req.Header.Set("Authorization", "Bearer "+f.accessToken(t, "user-"+tt.role, tt.role))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
