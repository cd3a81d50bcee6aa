package relay

import (
	"context"
	"time"

	"github.com/mcdev12/voterelay/go/internal/relay/events"
	"github.com/mcdev12/voterelay/go/internal/relay/tally"
)

// Outcome is a resolved decision as reported to outcome sinks
type Outcome struct {
	Key        string         `json:"key"`
	Type       string         `json:"type"`
	SubType    string         `json:"sub_type,omitempty"`
	Votes      int            `json:"votes"`
	Counts     map[string]int `json:"counts"`
	ResolvedAt time.Time      `json:"resolved_at"`
}

// NewOutcome builds an outcome from a drained tally
func NewOutcome(result tally.Result, resolvedAt time.Time) Outcome {
	eventType, subType := events.SplitDecisionKey(result.Winner)
	return Outcome{
		Key:        result.Winner,
		Type:       eventType,
		SubType:    subType,
		Votes:      result.Votes,
		Counts:     result.Counts,
		ResolvedAt: resolvedAt,
	}
}

// OutcomeSink receives every resolution that produced a winner
type OutcomeSink interface {
	Publish(ctx context.Context, outcome Outcome) error
}

// NoOpOutcomeSink discards outcomes
type NoOpOutcomeSink struct{}

func (NoOpOutcomeSink) Publish(ctx context.Context, outcome Outcome) error { return nil }
