package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/voterelay/go/internal/relay"
)

// Service wires the WebSocket transport to the relay loop
type Service struct {
	loop              *relay.Loop
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
}

// Config holds configuration for the relay gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	RouterConfig     relay.RouterConfig
	LoopConfig       relay.LoopConfig
	StaticDir        string
}

// DefaultConfig returns default configuration for the relay gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		RouterConfig:     relay.DefaultRouterConfig(),
		LoopConfig:       relay.DefaultLoopConfig(),
		StaticDir:        "public",
	}
}

// NewService creates a new relay gateway service
func NewService(config Config) (*Service, error) {
	router, err := relay.NewRouter(config.RouterConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	loop := relay.NewLoop(router, config.LoopConfig)
	connectionManager := NewConnectionManager(config.ConnectionConfig, loop)
	wsHandler := NewWebSocketHandler(connectionManager, loop, config.StaticDir)

	return &Service{
		loop:              loop,
		connectionManager: connectionManager,
		wsHandler:         wsHandler,
	}, nil
}

// Start runs the relay loop until ctx is cancelled, then closes every connection
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting relay gateway service")

	err := s.loop.Run(ctx)
	s.connectionManager.CloseAll()

	log.Info().Msg("relay gateway service stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Stats returns relay statistics from the running loop
func (s *Service) Stats(ctx context.Context) (StatsResponse, error) {
	stats, err := s.loop.Stats(ctx)
	if err != nil {
		return StatsResponse{}, err
	}
	return StatsResponse{Connections: s.connectionManager.Count(), Stats: stats}, nil
}

// RegisterRoutes registers the WebSocket and stats routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("relay gateway routes registered")
}
