package core

import (
	"context"
	"time"
)

// Recorder defines the interface for recording application metrics.
// Implementations include Metrics (Prometheus-based) and NoopMetrics (no-op).
type Recorder interface {
	// Device authorization
	RecordDeviceCodeGenerated(success bool)
	RecordDeviceCodeAuthorized(authorizationTime time.Duration)
	RecordDeviceCodeRejected(reason string)
	RecordPoll(result string)
	RecordDeviceCodesSwept(count int64)

	// Token lifecycle
	RecordTokenIssued(grantType string, generationTime time.Duration)
	RecordTokenRefresh(result string)
	RecordTokenRevoked(reason string, count int64)
	RecordTokenValidation(result string, duration time.Duration)
	RecordDeviceDeactivated()

	// Collaborators
	RecordExternalAPICall(provider string, duration time.Duration)

	// Gauge Setters (for periodic updates)
	SetActiveRefreshTokensCount(count int)
	SetActiveDeviceCodesCount(total, pending int)
	SetActiveDevicesCount(count int)

	// Database Operations
	RecordDatabaseQueryError(operation string)
}

// MetricsStore defines the DB operations needed by CacheWrapper.
type MetricsStore interface {
	CountActiveRefreshTokens(ctx context.Context) (int64, error)
	CountTotalDeviceCodes(ctx context.Context) (int64, error)
	CountPendingDeviceCodes(ctx context.Context) (int64, error)
	CountActiveDevices(ctx context.Context) (int64, error)
}
