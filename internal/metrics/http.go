package metrics

import (
	"strconv"
	"time"

	"github.com/go-authgate/deviceauth/internal/core"

	"github.com/gin-gonic/gin"
)

const (
	resultSuccess = "success"
	resultError   = "error"
)

// HTTPMetricsMiddleware creates a Gin middleware that records HTTP metrics
func HTTPMetricsMiddleware(m core.Recorder) gin.HandlerFunc {
	metrics, ok := m.(*Metrics)
	if !ok {
		// NoopMetrics or an unknown implementation
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		// Skip metrics endpoint to avoid self-recording
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()

		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		c.Next()

		duration := time.Since(start).Seconds()
		method := c.Request.Method
		path := normalizePath(c.FullPath()) // route pattern, not the raw path
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// normalizePath returns the route pattern (e.g. "/api/devices/:device_id"),
// or "unknown" for unmatched routes so label cardinality stays bounded.
func normalizePath(fullPath string) string {
	if fullPath == "" {
		return "unknown"
	}
	return fullPath
}

// RecordDeviceCodeGenerated records device code generation
func (m *Metrics) RecordDeviceCodeGenerated(success bool) {
	result := resultSuccess
	if !success {
		result = resultError
	}
	m.DeviceCodesTotal.WithLabelValues(result).Inc()

	if success {
		m.DeviceCodesActive.Inc()
		m.DeviceCodesPendingAuthorization.Inc()
	}
}

// RecordDeviceCodeAuthorized records a successful user authorization
func (m *Metrics) RecordDeviceCodeAuthorized(authorizationTime time.Duration) {
	m.DeviceCodesAuthorizedTotal.Inc()
	m.DeviceCodesPendingAuthorization.Dec()
	m.DeviceCodeAuthorizationDuration.Observe(authorizationTime.Seconds())
}

// RecordDeviceCodeRejected records a refused authorization attempt
func (m *Metrics) RecordDeviceCodeRejected(reason string) {
	m.DeviceCodesRejectedTotal.WithLabelValues(reason).Inc()
}

// RecordPoll records the outcome of a device poll
func (m *Metrics) RecordPoll(result string) {
	m.DeviceCodePollsTotal.WithLabelValues(result).Inc()

	// A consumed code leaves the active set
	if result == "authorized" {
		m.DeviceCodesActive.Dec()
	}
}

// RecordDeviceCodesSwept records expired codes removed by the sweeper
func (m *Metrics) RecordDeviceCodesSwept(count int64) {
	if count <= 0 {
		return
	}
	m.DeviceCodesSweptTotal.Add(float64(count))
}

// RecordTokenIssued records token pair issuance
func (m *Metrics) RecordTokenIssued(grantType string, generationTime time.Duration) {
	m.TokensIssuedTotal.WithLabelValues(grantType).Inc()
	m.RefreshTokensActive.Inc()
	m.TokenGenerationDuration.WithLabelValues(grantType).Observe(generationTime.Seconds())
}

// RecordTokenRefresh records a refresh attempt
func (m *Metrics) RecordTokenRefresh(result string) {
	m.TokensRefreshedTotal.WithLabelValues(result).Inc()
}

// RecordTokenRevoked records refresh token revocation
func (m *Metrics) RecordTokenRevoked(reason string, count int64) {
	if count <= 0 {
		return
	}
	m.TokensRevokedTotal.WithLabelValues(reason).Add(float64(count))
	m.RefreshTokensActive.Sub(float64(count))
}

// RecordTokenValidation records access token validation
func (m *Metrics) RecordTokenValidation(result string, duration time.Duration) {
	m.TokenValidationTotal.WithLabelValues(result).Inc()
	m.TokenValidationDuration.Observe(duration.Seconds())
}

// RecordDeviceDeactivated records a device deactivation
func (m *Metrics) RecordDeviceDeactivated() {
	m.DevicesDeactivatedTotal.Inc()
	m.DevicesActive.Dec()
}

// RecordExternalAPICall records external API call duration
func (m *Metrics) RecordExternalAPICall(provider string, duration time.Duration) {
	m.ExternalAPIDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// SetActiveRefreshTokensCount sets the current count of active refresh tokens
func (m *Metrics) SetActiveRefreshTokensCount(count int) {
	m.RefreshTokensActive.Set(float64(count))
}

// SetActiveDeviceCodesCount sets the current count of active device codes
func (m *Metrics) SetActiveDeviceCodesCount(total, pending int) {
	m.DeviceCodesActive.Set(float64(total))
	m.DeviceCodesPendingAuthorization.Set(float64(pending))
}

// SetActiveDevicesCount sets the current count of active devices
func (m *Metrics) SetActiveDevicesCount(count int) {
	m.DevicesActive.Set(float64(count))
}

// RecordDatabaseQueryError records a database query error during metric collection
func (m *Metrics) RecordDatabaseQueryError(operation string) {
	m.DatabaseQueryErrorsTotal.WithLabelValues(operation).Inc()
}
