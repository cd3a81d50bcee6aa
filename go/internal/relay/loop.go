package relay

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ErrLoopStopped is returned when the loop is no longer accepting commands
var ErrLoopStopped = errors.New("relay loop has exited")

// LoopConfig holds configuration for the relay loop
type LoopConfig struct {
	Clock        clockwork.Clock
	TickInterval time.Duration
	InboxSize    int
}

// DefaultLoopConfig ticks once per second on the real clock
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		Clock:        clockwork.NewRealClock(),
		TickInterval: time.Second,
		InboxSize:    1024,
	}
}

type commandKind int

const (
	commandOpened commandKind = iota
	commandInbound
	commandClosed
	commandStats
)

type command struct {
	kind  commandKind
	conn  Connection
	raw   []byte
	stats chan Stats
}

// Loop is the single consumer of everything that mutates relay state:
// transport callbacks and decision ticks are processed one at a time, in
// arrival order, each running to completion.
type Loop struct {
	router   *Router
	clock    clockwork.Clock
	interval time.Duration

	inbox chan command
	done  chan struct{}
}

// NewLoop creates a loop around router
func NewLoop(router *Router, config LoopConfig) *Loop {
	if config.Clock == nil {
		config.Clock = clockwork.NewRealClock()
	}
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}
	return &Loop{
		router:   router,
		clock:    config.Clock,
		interval: config.TickInterval,
		inbox:    make(chan command, config.InboxSize),
		done:     make(chan struct{}),
	}
}

// Run processes commands and ticks until ctx is cancelled. It must be called once.
func (l *Loop) Run(ctx context.Context) error {
	select {
	case <-l.done:
		return ErrLoopStopped
	default:
	}
	defer close(l.done)

	ticker := l.clock.NewTicker(l.interval)
	defer ticker.Stop()

	log.Info().
		Dur("tick_interval", l.interval).
		Int("window_seconds", l.router.countdown.Window()).
		Msg("relay loop started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("relay loop shutting down")
			return ctx.Err()

		case <-ticker.Chan():
			l.router.OnTick(ctx)

		case cmd := <-l.inbox:
			l.handle(cmd)
		}
	}
}

func (l *Loop) handle(cmd command) {
	switch cmd.kind {
	case commandOpened:
		l.router.OnOpen(cmd.conn)
	case commandInbound:
		l.router.OnMessage(cmd.conn, cmd.raw)
	case commandClosed:
		l.router.OnClose(cmd.conn)
	case commandStats:
		cmd.stats <- l.router.Stats()
	}
}

// Opened reports a newly accepted connection
func (l *Loop) Opened(conn Connection) error {
	return l.enqueue(command{kind: commandOpened, conn: conn})
}

// Inbound hands a raw message from conn to the loop. Messages from the same
// connection are processed in the order they are enqueued.
func (l *Loop) Inbound(conn Connection, raw []byte) error {
	return l.enqueue(command{kind: commandInbound, conn: conn, raw: raw})
}

// Closed reports that conn has gone away
func (l *Loop) Closed(conn Connection) error {
	return l.enqueue(command{kind: commandClosed, conn: conn})
}

// Stats returns a snapshot of the relay state, taken between commands
func (l *Loop) Stats(ctx context.Context) (Stats, error) {
	rsp := make(chan Stats, 1)
	select {
	case <-l.done:
		return Stats{}, ErrLoopStopped
	default:
	}

	select {
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	case <-l.done:
		return Stats{}, ErrLoopStopped
	case l.inbox <- command{kind: commandStats, stats: rsp}:
	}

	select {
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	case <-l.done:
		return Stats{}, ErrLoopStopped
	case s := <-rsp:
		return s, nil
	}
}

func (l *Loop) enqueue(cmd command) error {
	select {
	case <-l.done:
		return ErrLoopStopped
	default:
	}

	select {
	case <-l.done:
		return ErrLoopStopped
	case l.inbox <- cmd:
		return nil
	}
}
