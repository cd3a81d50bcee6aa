package relay

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/voterelay/go/internal/relay/decision"
	"github.com/mcdev12/voterelay/go/internal/relay/events"
	"github.com/mcdev12/voterelay/go/internal/relay/registry"
	"github.com/mcdev12/voterelay/go/internal/relay/tally"
)

// Connection is the transport's view of a peer. Send is fire-and-forget.
type Connection interface {
	ID() string
	Send(payload []byte)
}

// RouterConfig holds configuration for the router
type RouterConfig struct {
	WindowSeconds int
	Sink          OutcomeSink
	Clock         clockwork.Clock
}

// DefaultRouterConfig returns the reference decision window with no outcome feed
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		WindowSeconds: decision.DefaultWindowSeconds,
		Sink:          NoOpOutcomeSink{},
		Clock:         clockwork.NewRealClock(),
	}
}

// Router owns all relay state: the host and client registry, the vote tally
// and the decision countdown. None of its methods are safe for concurrent
// use; Loop serializes every call.
type Router struct {
	registry  *registry.Registry[Connection]
	tally     *tally.Tally
	countdown *decision.Countdown
	sink      OutcomeSink
	clock     clockwork.Clock
}

// NewRouter creates a router with an empty registry and tally
func NewRouter(config RouterConfig) (*Router, error) {
	countdown, err := decision.NewCountdown(config.WindowSeconds)
	if err != nil {
		return nil, fmt.Errorf("create decision countdown: %w", err)
	}
	if config.Sink == nil {
		config.Sink = NoOpOutcomeSink{}
	}
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}

	return &Router{
		registry:  registry.New[Connection](),
		tally:     tally.New(),
		countdown: countdown,
		sink:      config.Sink,
		clock:     config.Clock,
	}, nil
}

// OnOpen records a new transport connection. Roles are only assigned by Identify.
func (r *Router) OnOpen(conn Connection) {
	log.Info().Str("connection_id", conn.ID()).Msg("new connection")
}

// OnMessage decodes a raw message and dispatches every valid event by role
func (r *Router) OnMessage(conn Connection, raw []byte) {
	log.Debug().
		Str("connection_id", conn.ID()).
		Bytes("message", raw).
		Msg("message received")

	decoded, rejections := events.Decode(raw)
	for _, rej := range rejections {
		log.Warn().
			Err(rej).
			Str("connection_id", conn.ID()).
			Int("entry", rej.Index).
			Msg("dropping malformed game event")
	}

	for _, e := range decoded {
		switch e.ClientType {
		case events.ClientTypeServer:
			r.handleHostEvent(conn, e)
		case events.ClientTypeClient:
			r.handleClientEvent(conn, e)
		}
	}
}

// OnClose forgets a disconnected connection. Clients are not told when the
// host goes away.
func (r *Router) OnClose(conn Connection) {
	switch r.registry.Disconnect(conn) {
	case registry.RoleHost:
		log.Info().Str("connection_id", conn.ID()).Msg("host has disconnected")
	case registry.RoleClient:
		log.Info().
			Str("connection_id", conn.ID()).
			Int("clients", r.registry.ClientCount()).
			Msg("client has disconnected")
	default:
		log.Debug().Str("connection_id", conn.ID()).Msg("unidentified connection closed")
	}
}

func (r *Router) handleHostEvent(conn Connection, e events.Event) {
	switch e.Type {
	case events.TypeIdentify:
		r.registry.IdentifyAsHost(conn)
		log.Info().Str("connection_id", conn.ID()).Msg("host identified")

	case events.TypeMonsterEnergyChange:
		r.broadcastToClients([]events.Event{e}, nil)

	default:
		log.Debug().
			Str("connection_id", conn.ID()).
			Str("event_type", e.Type).
			Msg("ignoring host event")
	}
}

func (r *Router) handleClientEvent(conn Connection, e events.Event) {
	switch e.Type {
	case events.TypeIdentify:
		r.registry.IdentifyAsClient(conn)
		log.Info().
			Str("connection_id", conn.ID()).
			Int("clients", r.registry.ClientCount()).
			Msg("client identified")
		r.broadcastVoteCount()

	case events.TypeOpponentAdvantage, events.TypeMonsterDisadvantage:
		key := events.DecisionKey(e.Type, e.SubType)
		count := r.tally.Add(key)
		log.Debug().
			Str("connection_id", conn.ID()).
			Str("decision_key", key).
			Int("votes", count).
			Msg("vote counted")
		r.broadcastVoteCount()

	default:
		log.Debug().
			Str("connection_id", conn.ID()).
			Str("event_type", e.Type).
			Msg("ignoring client event")
	}
}

func (r *Router) broadcastVoteCount() {
	r.broadcastToClients([]events.Event{events.NewVoteCount(r.tally.Snapshot())}, nil)
}

// OnTick advances the decision countdown by one interval. A resolution
// drains the tally, announces the winner to clients and notifies the host.
func (r *Router) OnTick(ctx context.Context) {
	tr := r.countdown.Advance()
	if tr.Kind == decision.KindTick {
		r.broadcastToClients([]events.Event{events.NewDecisionTimeTick(tr.Remaining)}, nil)
		return
	}

	result, ok := r.tally.Drain()
	batch := []events.Event{events.NewDecisionTimeReset(tr.Remaining)}
	if ok {
		batch = append(batch, events.NewDecisionTimeWinner(result.Winner))
	}
	r.broadcastToClients(batch, nil)

	if !ok {
		log.Debug().Msg("decision window elapsed without votes")
		return
	}

	log.Info().
		Str("decision_key", result.Winner).
		Int("votes", result.Votes).
		Int("options", len(result.Counts)).
		Msg("decision resolved")

	r.unicastToHost([]events.Event{events.NewResolvedDecision(result.Winner)})

	outcome := NewOutcome(result, r.clock.Now())
	if err := r.sink.Publish(ctx, outcome); err != nil {
		log.Error().
			Err(err).
			Str("decision_key", result.Winner).
			Msg("failed to publish decision outcome")
	}
}

// Stats returns a snapshot of the relay state
func (r *Router) Stats() Stats {
	return Stats{
		Clients:          r.registry.ClientCount(),
		HasHost:          r.registry.HasHost(),
		SecondsRemaining: r.countdown.Remaining(),
		Tally:            r.tally.Snapshot(),
	}
}

// Stats is a point-in-time view of the relay state
type Stats struct {
	Clients          int            `json:"clients"`
	HasHost          bool           `json:"has_host"`
	SecondsRemaining int            `json:"seconds_remaining"`
	Tally            map[string]int `json:"tally"`
}
