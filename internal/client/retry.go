package client

import (
	"fmt"
	"time"

	httpclient "github.com/appleboy/go-httpclient"
	retry "github.com/appleboy/go-httpretry"
)

// DirectoryConfig describes how to reach the external user directory
type DirectoryConfig struct {
	AuthMode           string // "none", "simple" or "hmac"
	AuthSecret         string
	AuthHeader         string
	Timeout            time.Duration
	InsecureSkipVerify bool

	MaxRetries    int
	RetryDelay    time.Duration
	MaxRetryDelay time.Duration
}

// NewDirectoryClient returns a client that signs every request for the
// configured auth mode and retries transient failures with backoff.
func NewDirectoryClient(cfg DirectoryConfig) (*retry.Client, error) {
	authClient, err := httpclient.NewAuthClient(
		cfg.AuthMode,
		cfg.AuthSecret,
		httpclient.WithTimeout(cfg.Timeout),
		httpclient.WithHeaderName(cfg.AuthHeader),
		httpclient.WithInsecureSkipVerify(cfg.InsecureSkipVerify),
	)
	if err != nil {
		return nil, fmt.Errorf("user directory auth client: %w", err)
	}

	c, err := retry.NewRealtimeClient(
		retry.WithHTTPClient(authClient),
		retry.WithMaxRetries(cfg.MaxRetries),
		retry.WithInitialRetryDelay(cfg.RetryDelay),
		retry.WithMaxRetryDelay(cfg.MaxRetryDelay),
	)
	if err != nil {
		return nil, fmt.Errorf("user directory retry client: %w", err)
	}
	return c, nil
}
