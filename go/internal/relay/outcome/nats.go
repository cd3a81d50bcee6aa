package outcome

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/voterelay/go/internal/relay"
)

// NATSConfig holds configuration for the outcome feed
type NATSConfig struct {
	URL           string
	Subject       string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns default outcome feed configuration
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Subject:       "relay.decisions",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
	}
}

// Publisher is the subset of *nats.Conn the feed needs
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes resolved decisions to a NATS subject
type NATSPublisher struct {
	conn    Publisher
	subject string
}

// NewNATSPublisher publishes on an existing connection
func NewNATSPublisher(conn Publisher, subject string) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: subject}
}

// Connect dials NATS with reconnect logging and returns a publisher bound to it.
// The caller owns the returned connection.
func Connect(config NATSConfig) (*NATSPublisher, *nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("voterelay"),
		nats.MaxReconnects(config.MaxReconnects),
		nats.ReconnectWait(config.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	log.Info().
		Str("url", nc.ConnectedUrl()).
		Str("subject", config.Subject).
		Msg("outcome feed connected")

	return NewNATSPublisher(nc, config.Subject), nc, nil
}

// Publish implements relay.OutcomeSink
func (p *NATSPublisher) Publish(ctx context.Context, outcome relay.Outcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("marshal outcome: %w", err)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish outcome to %s: %w", p.subject, err)
	}

	log.Debug().
		Str("subject", p.subject).
		Str("decision_key", outcome.Key).
		Int("size", len(data)).
		Msg("outcome published")

	return nil
}

var _ relay.OutcomeSink = (*NATSPublisher)(nil)
