package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-authgate/deviceauth/internal/core"
	"github.com/go-authgate/deviceauth/internal/models"
	"github.com/go-authgate/deviceauth/internal/store"

	retry "github.com/appleboy/go-httpretry"
)

var (
	_ core.UserLookup = (*LocalUserLookup)(nil)
	_ core.UserLookup = (*HTTPUserLookup)(nil)
)

// LocalUserLookup resolves accounts from the users table
type LocalUserLookup struct {
	store *store.Store
}

func NewLocalUserLookup(s *store.Store) *LocalUserLookup {
	return &LocalUserLookup{store: s}
}

func (l *LocalUserLookup) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := l.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (l *LocalUserLookup) Name() string {
	return "local"
}

// UserAPIRequest is the payload sent to the external user directory
type UserAPIRequest struct {
	UserID string `json:"user_id"`
}

// UserAPIResponse is the expected response from the external user directory
type UserAPIResponse struct {
	Success bool   `json:"success"`
	UserID  string `json:"user_id,omitempty"`
	Email   string `json:"email,omitempty"`
	Name    string `json:"name,omitempty"`
	Role    string `json:"role,omitempty"`
	Message string `json:"message,omitempty"`
}

// HTTPUserLookup resolves accounts through an external directory over HTTP.
// Authentication headers and retries come from the retry client.
type HTTPUserLookup struct {
	url         string
	retryClient *retry.Client
	metrics     core.Recorder
}

func NewHTTPUserLookup(url string, retryClient *retry.Client, m core.Recorder) *HTTPUserLookup {
	return &HTTPUserLookup{
		url:         url,
		retryClient: retryClient,
		metrics:     m,
	}
}

// GetUser posts the id to the directory. A 404 or success=false means the
// account does not exist.
func (h *HTTPUserLookup) GetUser(ctx context.Context, id string) (*models.User, error) {
	jsonData, err := json.Marshal(UserAPIRequest{UserID: id})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	start := time.Now()
	resp, err := h.retryClient.Post(
		ctx,
		h.url,
		retry.WithBody("application/json", bytes.NewBuffer(jsonData)),
	)
	h.metrics.RecordExternalAPICall(h.Name(), time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserAPIConnection, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response", ErrUserAPIInvalidResp)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, core.ErrUserNotFound
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiResp UserAPIResponse
		if err := json.Unmarshal(body, &apiResp); err == nil && apiResp.Message != "" {
			return nil, fmt.Errorf(
				"%w: HTTP %d - %s",
				ErrUserAPIAuthFailed,
				resp.StatusCode,
				apiResp.Message,
			)
		}
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		return nil, fmt.Errorf(
			"%w: HTTP %d - %s",
			ErrUserAPIInvalidResp,
			resp.StatusCode,
			bodyPreview,
		)
	}

	var apiResp UserAPIResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUserAPIInvalidResp, err)
	}

	if !apiResp.Success {
		return nil, core.ErrUserNotFound
	}

	if apiResp.UserID == "" {
		return nil, fmt.Errorf(
			"%w: external API returned success=true but missing user_id",
			ErrUserAPIInvalidResp,
		)
	}
	if apiResp.UserID != id {
		return nil, fmt.Errorf(
			"%w: requested user %q but got %q",
			ErrUserAPIInvalidResp,
			id,
			apiResp.UserID,
		)
	}

	return &models.User{
		ID:    apiResp.UserID,
		Email: apiResp.Email,
		Name:  apiResp.Name,
		Role:  normalizeRole(apiResp.Role),
	}, nil
}

func (h *HTTPUserLookup) Name() string {
	return "http_api"
}

// normalizeRole maps unknown directory roles to a regular user
func normalizeRole(role string) string {
	switch role {
	case models.RoleAdmin, models.RoleBlocked:
		return role
	default:
		return models.RoleUser
	}
}
