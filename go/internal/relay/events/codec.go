package events

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotArray   = errors.New("not an array")
	ErrEmptyBatch = errors.New("empty array")
	ErrNotObject  = errors.New("not an object")
	ErrClientType = errors.New("unknown clientType")
	ErrType       = errors.New("invalid type")
	ErrValue      = errors.New("invalid value")
	ErrSubType    = errors.New("invalid subType")
)

// Rejection describes an inbound entry that was dropped during decode.
// Index is -1 when the whole message was rejected.
type Rejection struct {
	Index int
	Err   error
}

func (r Rejection) Error() string {
	if r.Index < 0 {
		return fmt.Sprintf("bad message: %v", r.Err)
	}
	return fmt.Sprintf("bad message entry %d: %v", r.Index, r.Err)
}

func (r Rejection) Unwrap() error { return r.Err }

// Decode parses a raw wire message into events. It never fails: malformed
// entries are skipped and reported as rejections, and a message that is not
// a non-empty JSON array yields no events at all.
func Decode(raw []byte) ([]Event, []Rejection) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, []Rejection{{Index: -1, Err: ErrNotArray}}
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(trimmed, &entries); err != nil {
		return nil, []Rejection{{Index: -1, Err: fmt.Errorf("%w: %v", ErrNotArray, err)}}
	}
	if len(entries) == 0 {
		return nil, []Rejection{{Index: -1, Err: ErrEmptyBatch}}
	}

	var (
		decoded    []Event
		rejections []Rejection
	)
	for i, entry := range entries {
		event, err := decodeEntry(entry)
		if err != nil {
			rejections = append(rejections, Rejection{Index: i, Err: err})
			continue
		}
		decoded = append(decoded, event)
	}

	return decoded, rejections
}

func decodeEntry(entry json.RawMessage) (Event, error) {
	trimmed := bytes.TrimSpace(entry)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Event{}, ErrNotObject
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Event{}, ErrNotObject
	}

	var clientType ClientType
	if err := json.Unmarshal(fields["clientType"], &clientType); err != nil || !clientType.Valid() {
		return Event{}, fmt.Errorf("%w %s", ErrClientType, string(fields["clientType"]))
	}

	var eventType string
	if err := json.Unmarshal(fields["type"], &eventType); err != nil || eventType == "" {
		return Event{}, fmt.Errorf("%w %s", ErrType, string(fields["type"]))
	}

	rawValue, ok := fields["value"]
	if !ok || isNull(rawValue) {
		return Event{}, fmt.Errorf("%w for %s", ErrValue, eventType)
	}
	value, err := decodeValue(eventType, rawValue)
	if err != nil {
		return Event{}, fmt.Errorf("%w for %s: %v", ErrValue, eventType, err)
	}

	subType, err := decodeSubType(fields["subType"])
	if err != nil {
		return Event{}, fmt.Errorf("%w %s", ErrSubType, string(fields["subType"]))
	}

	return Event{
		ClientType: clientType,
		Type:       eventType,
		SubType:    subType,
		Value:      value,
	}, nil
}

// decodeSubType keeps scalar subTypes as their text so they still form a
// distinct decision key: 5 becomes "5". Objects and arrays are rejected.
func decodeSubType(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || isNull(trimmed) {
		return "", nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	case '{', '[':
		return "", ErrSubType
	default:
		var scalar any
		if err := json.Unmarshal(trimmed, &scalar); err != nil {
			return "", err
		}
		return string(trimmed), nil
	}
}

// decodeValue narrows the payload to the concrete type registered for the
// event type. Types without a registered shape stay opaque.
//
// Narrowing is stricter than the wire contract: a VoteCount or DecisionTime*
// entry with a mismatched payload is rejected rather than forwarded. Only the
// relay emits those types, so no inbound handler loses anything.
func decodeValue(eventType string, raw json.RawMessage) (Value, error) {
	switch eventType {
	case TypeVoteCount:
		var t map[string]int
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return Tally(t), nil

	case TypeDecisionTimeTick, TypeDecisionTimeReset:
		var s int
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return Seconds(s), nil

	case TypeDecisionTimeWinner:
		var w string
		if err := json.Unmarshal(raw, &w); err != nil {
			return nil, err
		}
		return Winner(w), nil

	default:
		return Raw(bytes.Clone(raw)), nil
	}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// Encode serializes events as a JSON array. Nothing is validated; a single
// event becomes a one-element array.
func Encode(batch ...Event) ([]byte, error) {
	if batch == nil {
		batch = []Event{}
	}
	data, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("encode events: %w", err)
	}
	return data, nil
}
