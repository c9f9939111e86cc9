package bootstrap

import (
	"github.com/go-authgate/deviceauth/internal/config"
	"github.com/go-authgate/deviceauth/internal/version"

	"github.com/getsentry/sentry-go"
	"github.com/rs/zerolog/log"
)

// initSentry enables error reporting when SENTRY_DSN is set. A failed init is
// logged and the service runs without it.
func initSentry(cfg *config.Config) bool {
	if cfg.SentryDSN == "" {
		return false
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		EnableTracing:    true,
		TracesSampleRate: 0.2,
		Environment:      cfg.Environment,
		Release:          version.App + "@" + version.String(),
	}); err != nil {
		log.Error().Err(err).Msg("Sentry init failed")
		return false
	}

	log.Info().Str("environment", cfg.Environment).Msg("Sentry error reporting enabled")
	return true
}
