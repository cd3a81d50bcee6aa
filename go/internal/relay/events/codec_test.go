package events

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDecode_ValidBatch(t *testing.T) {
	raw := []byte(`[
		{"clientType":"Client","type":"Identify","value":1},
		{"clientType":"Client","type":"OpponentAdvantage","subType":"Fire","value":1},
		{"clientType":"Server","type":"MonsterEnergyChange","value":{"energy":42}}
	]`)

	got, rejections := Decode(raw)
	if len(rejections) != 0 {
		t.Fatalf("expected no rejections, got %v", rejections)
	}

	want := []Event{
		{ClientType: ClientTypeClient, Type: TypeIdentify, Value: Raw(`1`)},
		{ClientType: ClientTypeClient, Type: TypeOpponentAdvantage, SubType: "Fire", Value: Raw(`1`)},
		{ClientType: ClientTypeServer, Type: TypeMonsterEnergyChange, Value: Raw(`{"energy":42}`)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded events mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_RejectsWholeMessage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"object", `{"clientType":"Client","type":"Identify","value":1}`, ErrNotArray},
		{"null", `null`, ErrNotArray},
		{"garbage", `not json`, ErrNotArray},
		{"truncated", `[{"clientType":"Client"`, ErrNotArray},
		{"empty", `[]`, ErrEmptyBatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rejections := Decode([]byte(tt.raw))
			if len(got) != 0 {
				t.Fatalf("expected no events, got %v", got)
			}
			if len(rejections) != 1 {
				t.Fatalf("expected 1 rejection, got %d", len(rejections))
			}
			if rejections[0].Index != -1 {
				t.Fatalf("rejection index = %d, want -1", rejections[0].Index)
			}
			if !errors.Is(rejections[0], tt.want) {
				t.Fatalf("rejection = %v, want %v", rejections[0], tt.want)
			}
		})
	}
}

func TestDecode_SkipsBadEntries(t *testing.T) {
	raw := []byte(`[
		5,
		null,
		"Identify",
		{"clientType":"Spectator","type":"Identify","value":1},
		{"type":"Identify","value":1},
		{"clientType":"Client","type":"","value":1},
		{"clientType":"Client","type":7,"value":1},
		{"clientType":"Client","type":"Identify"},
		{"clientType":"Client","type":"Identify","value":null},
		{"clientType":"Client","type":"DecisionTimeTick","value":"soon"},
		{"clientType":"Client","type":"Identify","value":false}
	]`)

	got, rejections := Decode(raw)

	want := []Event{{ClientType: ClientTypeClient, Type: TypeIdentify, Value: Raw(`false`)}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded events mismatch (-want +got):\n%s", diff)
	}

	wantErrs := []error{
		ErrNotObject, ErrNotObject, ErrNotObject,
		ErrClientType, ErrClientType,
		ErrType, ErrType,
		ErrValue, ErrValue, ErrValue,
	}
	if len(rejections) != len(wantErrs) {
		t.Fatalf("expected %d rejections, got %d: %v", len(wantErrs), len(rejections), rejections)
	}
	for i, r := range rejections {
		if r.Index != i {
			t.Fatalf("rejection %d index = %d, want %d", i, r.Index, i)
		}
		if !errors.Is(r, wantErrs[i]) {
			t.Fatalf("rejection %d = %v, want %v", i, r, wantErrs[i])
		}
	}
}

func TestDecode_SubTypeHandling(t *testing.T) {
	raw := []byte(`[
		{"clientType":"Client","type":"MonsterDisadvantage","value":1},
		{"clientType":"Client","type":"MonsterDisadvantage","subType":null,"value":1},
		{"clientType":"Client","type":"OpponentAdvantage","subType":5,"value":1},
		{"clientType":"Client","type":"OpponentAdvantage","subType":true,"value":1},
		{"clientType":"Client","type":"MonsterDisadvantage","subType":"Slow","value":1},
		{"clientType":"Client","type":"OpponentAdvantage","subType":{"element":"Fire"},"value":1},
		{"clientType":"Client","type":"OpponentAdvantage","subType":["Fire"],"value":1}
	]`)

	got, rejections := Decode(raw)

	wantKeys := []string{
		"MonsterDisadvantage",
		"MonsterDisadvantage",
		"OpponentAdvantage_5",
		"OpponentAdvantage_true",
		"MonsterDisadvantage_Slow",
	}
	var gotKeys []string
	for _, e := range got {
		gotKeys = append(gotKeys, DecisionKey(e.Type, e.SubType))
	}
	if diff := cmp.Diff(wantKeys, gotKeys); diff != "" {
		t.Fatalf("decision keys mismatch (-want +got):\n%s", diff)
	}

	if len(rejections) != 2 {
		t.Fatalf("rejections = %v, want 2", rejections)
	}
	for i, r := range rejections {
		if r.Index != 5+i || !errors.Is(r, ErrSubType) {
			t.Fatalf("rejection %d = index %d %v, want index %d ErrSubType", i, r.Index, r, 5+i)
		}
	}
}

func TestDecode_NarrowsKnownPayloads(t *testing.T) {
	raw := []byte(`[
		{"clientType":"Client","type":"VoteCount","subType":"VoteCount","value":{"OpponentAdvantage_Fire":2}},
		{"clientType":"Client","type":"DecisionTimeTick","value":4},
		{"clientType":"Client","type":"DecisionTimeWinner","value":"MonsterDisadvantage"}
	]`)

	got, rejections := Decode(raw)
	if len(rejections) != 0 {
		t.Fatalf("expected no rejections, got %v", rejections)
	}

	want := []Event{
		NewVoteCount(map[string]int{"OpponentAdvantage_Fire": 2}),
		NewDecisionTimeTick(4),
		NewDecisionTimeWinner("MonsterDisadvantage"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded events mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_SingleEventIsArray(t *testing.T) {
	data, err := Encode(NewResolvedDecision("MonsterDisadvantage"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	want := `[{"clientType":"Server","type":"MonsterDisadvantage","value":true}]`
	if string(data) != want {
		t.Fatalf("encoded = %s, want %s", data, want)
	}
}

func TestEncode_Batch(t *testing.T) {
	data, err := Encode(NewDecisionTimeReset(10), NewDecisionTimeWinner("OpponentAdvantage_Fire"))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	want := `[{"clientType":"Client","type":"DecisionTimeReset","value":10},` +
		`{"clientType":"Client","type":"DecisionTimeWinner","value":"OpponentAdvantage_Fire"}]`
	if string(data) != want {
		t.Fatalf("encoded = %s, want %s", data, want)
	}
}

func TestEncode_EmptyTallyIsObject(t *testing.T) {
	data, err := Encode(NewVoteCount(nil))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	want := `[{"clientType":"Client","type":"VoteCount","subType":"VoteCount","value":{}}]`
	if string(data) != want {
		t.Fatalf("encoded = %s, want %s", data, want)
	}
}

func TestEncode_ForwardsRawPayload(t *testing.T) {
	in := []byte(`[{"clientType":"Server","type":"MonsterEnergyChange","value":{"energy":3,"max":10}}]`)
	decoded, _ := Decode(in)

	data, err := Encode(decoded...)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	var got, want any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal encoded: %v", err)
	}
	if err := json.Unmarshal(in, &want); err != nil {
		t.Fatalf("unmarshal input: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("forwarded payload mismatch (-want +got):\n%s", diff)
	}
}

func TestDecisionKey_RoundTrip(t *testing.T) {
	tests := []struct {
		eventType, subType, key string
	}{
		{TypeOpponentAdvantage, "Fire", "OpponentAdvantage_Fire"},
		{TypeMonsterDisadvantage, "", "MonsterDisadvantage"},
		{TypeOpponentAdvantage, "Ice_Storm", "OpponentAdvantage_Ice_Storm"},
	}

	for _, tt := range tests {
		key := DecisionKey(tt.eventType, tt.subType)
		if key != tt.key {
			t.Fatalf("DecisionKey(%q, %q) = %q, want %q", tt.eventType, tt.subType, key, tt.key)
		}
		gotType, gotSub := SplitDecisionKey(key)
		if gotType != tt.eventType || gotSub != tt.subType {
			t.Fatalf("SplitDecisionKey(%q) = (%q, %q), want (%q, %q)", key, gotType, gotSub, tt.eventType, tt.subType)
		}
	}
}

func TestDecisionKey_TypeWithSeparatorDoesNotRoundTrip(t *testing.T) {
	key := DecisionKey("Opponent_Advantage", "")

	gotType, gotSub := SplitDecisionKey(key)
	if gotType != "Opponent" || gotSub != "Advantage" {
		t.Fatalf("SplitDecisionKey(%q) = (%q, %q), want (%q, %q)", key, gotType, gotSub, "Opponent", "Advantage")
	}
}
