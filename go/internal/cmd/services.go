package main

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/voterelay/go/internal/relay"
	"github.com/mcdev12/voterelay/go/internal/relay/gateway"
	"github.com/mcdev12/voterelay/go/internal/relay/outcome"
)

type Services struct {
	Gateway *gateway.Service
	NATS    *nats.Conn // nil when the outcome feed is disabled
}

func setupServices(config *Config) (*Services, error) {
	// Wire up: outcome sink → router → loop → WebSocket transport
	services := &Services{}

	var sink relay.OutcomeSink = relay.NoOpOutcomeSink{}
	if config.NATS.URL != "" {
		natsConfig := outcome.DefaultNATSConfig()
		natsConfig.URL = config.NATS.URL
		natsConfig.Subject = config.NATS.Subject

		publisher, nc, err := outcome.Connect(natsConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to set up outcome feed: %w", err)
		}
		sink = publisher
		services.NATS = nc
	} else {
		log.Info().Msg("NATS_URL not set, outcome feed disabled")
	}

	clock := clockwork.NewRealClock()

	gatewayConfig := gateway.DefaultConfig()
	gatewayConfig.ConnectionConfig = connectionConfig(config)
	gatewayConfig.RouterConfig = relay.RouterConfig{
		WindowSeconds: config.Decision.WindowSeconds,
		Sink:          sink,
		Clock:         clock,
	}
	gatewayConfig.LoopConfig.Clock = clock
	gatewayConfig.LoopConfig.TickInterval = config.Decision.TickInterval
	gatewayConfig.StaticDir = config.HTTP.StaticDir

	gatewayService, err := gateway.NewService(gatewayConfig)
	if err != nil {
		services.Close()
		return nil, fmt.Errorf("failed to create gateway service: %w", err)
	}
	services.Gateway = gatewayService

	return services, nil
}

// connectionConfig overrides the gateway defaults with the configured WebSocket settings
func connectionConfig(config *Config) gateway.ConnectionConfig {
	cc := gateway.DefaultConnectionConfig()
	cc.WriteTimeout = config.WebSocket.WriteTimeout
	cc.ReadTimeout = config.WebSocket.ReadTimeout
	cc.PingInterval = config.WebSocket.PingInterval
	cc.MaxMessageSize = config.WebSocket.MaxMessageSize
	cc.SendBufferSize = config.WebSocket.SendBuffer
	cc.MessagesPerSecond = config.WebSocket.MessagesPerSecond
	cc.Burst = config.WebSocket.Burst
	return cc
}

// Close releases connections owned by the services
func (s *Services) Close() {
	if s.NATS != nil {
		if err := s.NATS.Drain(); err != nil {
			log.Error().Err(err).Msg("failed to drain NATS connection")
		}
	}
}
