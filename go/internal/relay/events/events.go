package events

import (
	"encoding/json"
	"strings"
)

// ClientType is the role whose semantics apply to an event
type ClientType string

const (
	ClientTypeServer ClientType = "Server"
	ClientTypeClient ClientType = "Client"
)

// Valid reports whether c is one of the two known roles
func (c ClientType) Valid() bool {
	return c == ClientTypeServer || c == ClientTypeClient
}

// Event types exchanged with hosts and clients
const (
	TypeIdentify            = "Identify"
	TypeMonsterEnergyChange = "MonsterEnergyChange"
	TypeOpponentAdvantage   = "OpponentAdvantage"
	TypeMonsterDisadvantage = "MonsterDisadvantage"
	TypeVoteCount           = "VoteCount"
	TypeDecisionTimeTick    = "DecisionTimeTick"
	TypeDecisionTimeReset   = "DecisionTimeReset"
	TypeDecisionTimeWinner  = "DecisionTimeWinner"
)

// Event is a single game event as carried on the wire.
// SubType is empty when the event has none.
type Event struct {
	ClientType ClientType `json:"clientType"`
	Type       string     `json:"type"`
	SubType    string     `json:"subType,omitempty"`
	Value      Value      `json:"value"`
}

// Value is the payload of an event. The concrete type depends on Event.Type.
type Value interface {
	json.Marshaler
	value()
}

// Raw is an opaque payload forwarded without interpretation
type Raw json.RawMessage

// Seconds carries a countdown value
type Seconds int

// Winner carries a winning decision key
type Winner string

// Tally carries a vote count snapshot keyed by decision key
type Tally map[string]int

// Flag carries a boolean notification
type Flag bool

func (r Raw) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return json.RawMessage(r).MarshalJSON()
}

func (s Seconds) MarshalJSON() ([]byte, error) { return json.Marshal(int(s)) }
func (w Winner) MarshalJSON() ([]byte, error)  { return json.Marshal(string(w)) }
func (f Flag) MarshalJSON() ([]byte, error)    { return json.Marshal(bool(f)) }

func (t Tally) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]int(t))
}

func (Raw) value()     {}
func (Seconds) value() {}
func (Winner) value()  {}
func (Tally) value()   {}
func (Flag) value()    {}

// decisionKeySeparator joins type and subType in a decision key
const decisionKeySeparator = "_"

// DecisionKey returns the tally key for a vote event: the type alone, or
// type_subType when a subtype is present.
func DecisionKey(eventType, subType string) string {
	if subType == "" {
		return eventType
	}
	return eventType + decisionKeySeparator + subType
}

// SplitDecisionKey is the inverse of DecisionKey. It splits on the first
// separator, so a type that itself contains "_" does not round-trip.
func SplitDecisionKey(key string) (eventType, subType string) {
	eventType, subType, _ = strings.Cut(key, decisionKeySeparator)
	return eventType, subType
}

// NewVoteCount builds the VoteCount broadcast for a tally snapshot
func NewVoteCount(snapshot map[string]int) Event {
	return Event{
		ClientType: ClientTypeClient,
		Type:       TypeVoteCount,
		SubType:    TypeVoteCount,
		Value:      Tally(snapshot),
	}
}

// NewDecisionTimeTick builds the per-second countdown broadcast
func NewDecisionTimeTick(remaining int) Event {
	return Event{ClientType: ClientTypeClient, Type: TypeDecisionTimeTick, Value: Seconds(remaining)}
}

// NewDecisionTimeReset builds the broadcast sent when a decision window restarts
func NewDecisionTimeReset(window int) Event {
	return Event{ClientType: ClientTypeClient, Type: TypeDecisionTimeReset, Value: Seconds(window)}
}

// NewDecisionTimeWinner builds the broadcast announcing the winning decision key
func NewDecisionTimeWinner(key string) Event {
	return Event{ClientType: ClientTypeClient, Type: TypeDecisionTimeWinner, Value: Winner(key)}
}

// NewResolvedDecision builds the host notification for a winning key
func NewResolvedDecision(key string) Event {
	eventType, subType := SplitDecisionKey(key)
	return Event{
		ClientType: ClientTypeServer,
		Type:       eventType,
		SubType:    subType,
		Value:      Flag(true),
	}
}
