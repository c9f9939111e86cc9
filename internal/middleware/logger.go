package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Requests to these are logged at debug level
var quietPaths = []string{
	"GET /health",
	"HEAD /health",
	"GET /metrics",
}

func isQuiet(method, path string) bool {
	key := method + " " + path
	for _, prefix := range quietPaths {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}

// RequestLogger logs one line per request, with the level chosen by status class
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		method := c.Request.Method
		path := c.Request.URL.Path

		var event *zerolog.Event
		switch {
		case isQuiet(method, path):
			event = log.Debug()
		case status >= 500:
			event = log.Error()
		case status >= 400:
			event = log.Warn()
		default:
			event = log.Info()
		}

		if len(c.Errors) > 0 {
			event = event.Str("errors", c.Errors.String())
		}

		event.
			Str("method", method).
			Str("path", path).
			Str("client_ip", c.ClientIP()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}
