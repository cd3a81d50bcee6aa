package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/voterelay/go/internal/relay/gateway"
)

type relayStats interface {
	Stats(ctx context.Context) (gateway.StatsResponse, error)
}

type connectionStatus interface {
	IsConnected() bool
}

type HealthStatus struct {
	Healthy      bool     `json:"healthy"`
	RelayRunning bool     `json:"relay_running"`
	Connections  int      `json:"connections"`
	Clients      int      `json:"clients"`
	HasHost      bool     `json:"has_host"`
	OutcomeFeed  string   `json:"outcome_feed"`
	Errors       []string `json:"errors"`
}

// HealthChecker reports whether the relay loop is answering and whether the
// outcome feed, when enabled, is connected
type HealthChecker struct {
	relay   relayStats
	feed    connectionStatus // nil when the outcome feed is disabled
	timeout time.Duration
}

func NewHealthChecker(relay relayStats, feed connectionStatus, timeout time.Duration) *HealthChecker {
	return &HealthChecker{relay: relay, feed: feed, timeout: timeout}
}

func (h *HealthChecker) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Healthy:     true,
		OutcomeFeed: "disabled",
		Errors:      []string{},
	}

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	stats, err := h.relay.Stats(ctx)
	if err != nil {
		status.Healthy = false
		status.Errors = append(status.Errors, "relay loop not responding: "+err.Error())
	} else {
		status.RelayRunning = true
		status.Connections = stats.Connections
		status.Clients = stats.Clients
		status.HasHost = stats.HasHost
	}

	if h.feed != nil {
		if h.feed.IsConnected() {
			status.OutcomeFeed = "connected"
		} else {
			// Decisions still resolve without the feed
			status.OutcomeFeed = "disconnected"
			status.Errors = append(status.Errors, "NATS disconnected")
		}
	}

	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to write health check response")
	}
}
