package metrics

import (
	"time"

	"github.com/go-authgate/deviceauth/internal/core"
)

// NoopMetrics is a no-operation implementation of core.Recorder
// All methods are empty and do nothing, providing zero overhead when metrics are disabled
type NoopMetrics struct{}

// Ensure NoopMetrics implements core.Recorder at compile time
var _ core.Recorder = (*NoopMetrics)(nil)

// NewNoopMetrics creates a new no-operation metrics recorder
func NewNoopMetrics() core.Recorder {
	return &NoopMetrics{}
}

// Device authorization - noop implementations
func (n *NoopMetrics) RecordDeviceCodeGenerated(success bool)                     {}
func (n *NoopMetrics) RecordDeviceCodeAuthorized(authorizationTime time.Duration) {}
func (n *NoopMetrics) RecordDeviceCodeRejected(reason string)                     {}
func (n *NoopMetrics) RecordPoll(result string)                                   {}
func (n *NoopMetrics) RecordDeviceCodesSwept(count int64)                         {}

// Token lifecycle - noop implementations
func (n *NoopMetrics) RecordTokenIssued(grantType string, generationTime time.Duration) {}
func (n *NoopMetrics) RecordTokenRefresh(result string)                                 {}
func (n *NoopMetrics) RecordTokenRevoked(reason string, count int64)                    {}
func (n *NoopMetrics) RecordTokenValidation(result string, duration time.Duration)      {}
func (n *NoopMetrics) RecordDeviceDeactivated()                                         {}

func (n *NoopMetrics) RecordExternalAPICall(provider string, duration time.Duration) {}

// Gauge Setters - noop implementations
func (n *NoopMetrics) SetActiveRefreshTokensCount(count int)       {}
func (n *NoopMetrics) SetActiveDeviceCodesCount(total, pending int) {}
func (n *NoopMetrics) SetActiveDevicesCount(count int)             {}

func (n *NoopMetrics) RecordDatabaseQueryError(operation string) {}
