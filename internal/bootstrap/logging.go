package bootstrap

import (
	"os"
	"strings"
	"time"

	"github.com/go-authgate/deviceauth/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// initLogger configures the global zerolog logger. Production defaults to
// JSON output; development gets the console writer unless LOG_JSON is set.
func initLogger(cfg *config.Config) {
	zerolog.SetGlobalLevel(parseLogLevel(cfg.LogLevel))
	zerolog.TimeFieldFormat = time.RFC3339

	logger := log.With().Timestamp().Logger()
	if !cfg.LogJSON && !cfg.IsProduction() {
		logger = logger.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		})
	}

	log.Logger = logger
}

func parseLogLevel(level string) zerolog.Level {
	if level == "" {
		return zerolog.InfoLevel
	}
	parsed, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		log.Warn().Err(err).Str("level", level).Msg("Invalid log level, defaulting to info")
		return zerolog.InfoLevel
	}
	return parsed
}
