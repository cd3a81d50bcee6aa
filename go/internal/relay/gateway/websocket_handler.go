package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/voterelay/go/internal/relay"
)

// StatsProvider reports relay state for the stats endpoint. *relay.Loop implements it.
type StatsProvider interface {
	Stats(ctx context.Context) (relay.Stats, error)
}

// WebSocketHandler serves the relay WebSocket and, for plain HTTP requests on
// the same path, the static game client
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	stats             StatsProvider
	static            http.Handler
}

// NewWebSocketHandler creates a new WebSocket handler. staticDir may be empty
// to disable static file serving.
func NewWebSocketHandler(cm *ConnectionManager, stats StatsProvider, staticDir string) *WebSocketHandler {
	h := &WebSocketHandler{
		connectionManager: cm,
		stats:             stats,
	}
	if staticDir != "" {
		h.static = http.FileServer(http.Dir(staticDir))
	}
	return h
}

// HandleRoot upgrades WebSocket requests and serves static files otherwise
func (h *WebSocketHandler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) {
		h.HandleConnection(w, r)
		return
	}
	if h.static == nil {
		http.NotFound(w, r)
		return
	}
	h.static.ServeHTTP(w, r)
}

// HandleConnection upgrades the request and hands the connection to the relay
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	if err := h.connectionManager.UpgradeConnection(w, r); err != nil {
		// The upgrader has already replied to the client
		log.Error().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Msg("failed to upgrade WebSocket connection")
	}
}

// StatsResponse is the body of the stats endpoint
type StatsResponse struct {
	Connections int `json:"connections"`
	relay.Stats
}

// HandleStats returns connection and relay statistics
func (h *WebSocketHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	stats, err := h.stats.Stats(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to collect relay stats")
		http.Error(w, "relay unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(StatsResponse{
		Connections: h.connectionManager.Count(),
		Stats:       stats,
	}); err != nil {
		log.Error().Err(err).Msg("failed to write stats response")
	}
}

// RegisterRoutes registers the relay routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", h.HandleRoot)
	mux.HandleFunc("/stats", h.HandleStats)
}
