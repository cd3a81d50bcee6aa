package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func setupServer(config *Config, services *Services) *http.Server {
	mux := http.NewServeMux()

	// Setup CORS middleware
	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
		},
		AllowedOrigins: config.HTTP.AllowedOrigins,
		AllowedHeaders: []string{"*"},
	})

	// Register relay routes
	services.Gateway.RegisterRoutes(mux)

	// Add health check endpoint
	mux.Handle("/health", newHealthChecker(services))

	// Wrap with CORS and access logging
	handler := accessLog(log.Logger)(c.Handler(mux))

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Port),
		Handler: h2c.NewHandler(handler, &http2.Server{}),
	}
}

// accessLog logs one line per request
func accessLog(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		h := hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Info().
				Str("method", r.Method).
				Stringer("url", r.URL).
				Int("status", status).
				Int("size", size).
				Dur("duration", duration).
				Msg("request")
		})(next)
		h = hlog.UserAgentHandler("user_agent")(h)
		h = hlog.RemoteAddrHandler("remote_addr")(h)
		return hlog.NewHandler(logger)(h)
	}
}

func newHealthChecker(services *Services) *HealthChecker {
	var feed connectionStatus
	if services.NATS != nil {
		feed = services.NATS
	}
	return NewHealthChecker(services.Gateway, feed, 2*time.Second)
}
