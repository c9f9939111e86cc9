package metrics

import (
	"sync"

	"github.com/go-authgate/deviceauth/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ensure Metrics implements core.Recorder at compile time
var _ core.Recorder = (*Metrics)(nil)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// Device Authorization Metrics
	DeviceCodesTotal                *prometheus.CounterVec
	DeviceCodesAuthorizedTotal      prometheus.Counter
	DeviceCodesRejectedTotal        *prometheus.CounterVec
	DeviceCodePollsTotal            *prometheus.CounterVec
	DeviceCodesSweptTotal           prometheus.Counter
	DeviceCodesActive               prometheus.Gauge
	DeviceCodesPendingAuthorization prometheus.Gauge
	DeviceCodeAuthorizationDuration prometheus.Histogram

	// Token Metrics
	TokensIssuedTotal       *prometheus.CounterVec
	TokensRevokedTotal      *prometheus.CounterVec
	TokensRefreshedTotal    *prometheus.CounterVec
	TokenValidationTotal    *prometheus.CounterVec
	RefreshTokensActive     prometheus.Gauge
	TokenGenerationDuration *prometheus.HistogramVec
	TokenValidationDuration prometheus.Histogram

	// Device Metrics
	DevicesActive            prometheus.Gauge
	DevicesDeactivatedTotal  prometheus.Counter
	ExternalAPIDuration      *prometheus.HistogramVec
	DatabaseQueryErrorsTotal *prometheus.CounterVec

	// HTTP Request Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

// Init initializes metrics based on enabled flag
// If enabled=true, returns Prometheus-based Metrics
// If enabled=false, returns NoopMetrics (zero overhead)
// Uses sync.Once to ensure Prometheus metrics are only registered once
func Init(enabled bool) core.Recorder {
	if !enabled {
		return NewNoopMetrics()
	}

	once.Do(func() {
		defaultMetrics = initMetrics()
	})
	return defaultMetrics
}

// initMetrics creates and registers all Prometheus metrics
func initMetrics() *Metrics {
	m := &Metrics{
		DeviceCodesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "device_codes_total",
				Help: "Total number of device codes generated",
			},
			[]string{"result"}, // success, error
		),
		DeviceCodesAuthorizedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "device_codes_authorized_total",
				Help: "Total number of device codes authorized by users",
			},
		),
		DeviceCodesRejectedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "device_codes_rejected_total",
				Help: "Total number of rejected authorization attempts",
			},
			[]string{"reason"}, // not_found, expired, already_authorized, blocked, device_limit
		),
		DeviceCodePollsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "device_code_polls_total",
				Help: "Total number of device code polls by outcome",
			},
			[]string{"result"}, // pending, expired, authorized, denied
		),
		DeviceCodesSweptTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "device_codes_swept_total",
				Help: "Total number of expired device codes removed by the sweeper",
			},
		),
		DeviceCodesActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "device_codes_active",
				Help: "Current number of unexpired device codes",
			},
		),
		DeviceCodesPendingAuthorization: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "device_codes_pending_authorization",
				Help: "Current number of device codes pending user authorization",
			},
		),
		DeviceCodeAuthorizationDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "device_code_authorization_duration_seconds",
				Help:    "Time between code issuance and user authorization",
				Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
			},
		),

		TokensIssuedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokens_issued_total",
				Help: "Total number of token pairs issued",
			},
			[]string{"grant_type"}, // device_code, refresh_token
		),
		TokensRevokedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokens_revoked_total",
				Help: "Total number of refresh tokens revoked",
			},
			[]string{"reason"}, // logout, rotation, device_deactivated, device_reclaimed, reuse
		),
		TokensRefreshedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tokens_refreshed_total",
				Help: "Total number of token refresh attempts",
			},
			[]string{"result"}, // success, invalid, expired, revoked, reuse
		),
		TokenValidationTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "token_validation_total",
				Help: "Total number of access token validations",
			},
			[]string{"result"}, // valid, invalid, expired
		),
		RefreshTokensActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "refresh_tokens_active",
				Help: "Current number of unrevoked, unexpired refresh tokens",
			},
		),
		TokenGenerationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "token_generation_duration_seconds",
				Help:    "Time taken to issue a token pair",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"grant_type"},
		),
		TokenValidationDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "token_validation_duration_seconds",
				Help:    "Time taken to validate access tokens",
				Buckets: prometheus.DefBuckets,
			},
		),

		DevicesActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "devices_active",
				Help: "Current number of active devices",
			},
		),
		DevicesDeactivatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "devices_deactivated_total",
				Help: "Total number of devices deactivated",
			},
		),
		ExternalAPIDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "external_api_duration_seconds",
				Help:    "Time taken for external user lookup calls",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"}, // http_api
		),
		DatabaseQueryErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "database_query_errors_total",
				Help: "Total number of database query errors during metric collection",
			},
			[]string{"operation"},
		),

		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "HTTP request latency in seconds",
				Buckets: []float64{
					0.001,
					0.005,
					0.010,
					0.025,
					0.050,
					0.100,
					0.250,
					0.500,
					1.0,
					2.5,
					5.0,
					10.0,
				},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Current number of HTTP requests being served",
			},
		),
	}

	return m
}
