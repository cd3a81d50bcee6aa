package tally

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTally_CountsPerKey(t *testing.T) {
	tl := New()
	votes := []string{"OpponentAdvantage_Fire", "MonsterDisadvantage", "OpponentAdvantage_Fire", "OpponentAdvantage_Ice"}
	for _, k := range votes {
		tl.Add(k)
	}

	want := map[string]int{
		"OpponentAdvantage_Fire": 2,
		"MonsterDisadvantage":    1,
		"OpponentAdvantage_Ice":  1,
	}
	if diff := cmp.Diff(want, tl.Snapshot()); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
	if got := tl.Total(); got != len(votes) {
		t.Fatalf("total = %d, want %d", got, len(votes))
	}
}

func TestTally_LeaderTieGoesToFirstInserted(t *testing.T) {
	tl := New()
	tl.Add("A")
	tl.Add("B")
	tl.Add("B")
	tl.Add("A")

	key, votes, ok := tl.Leader()
	if !ok {
		t.Fatalf("expected a leader")
	}
	if key != "A" || votes != 2 {
		t.Fatalf("leader = (%s, %d), want (A, 2)", key, votes)
	}
}

func TestTally_LeaderStrictMaximum(t *testing.T) {
	tl := New()
	tl.Add("A")
	tl.Add("B")
	tl.Add("C")
	tl.Add("C")
	tl.Add("B")
	tl.Add("C")

	if key, votes, _ := tl.Leader(); key != "C" || votes != 3 {
		t.Fatalf("leader = (%s, %d), want (C, 3)", key, votes)
	}
}

func TestTally_EmptyHasNoLeader(t *testing.T) {
	if _, _, ok := New().Leader(); ok {
		t.Fatalf("empty tally should have no leader")
	}
}

func TestTally_DrainResets(t *testing.T) {
	tl := New()
	tl.Add("B")
	tl.Add("A")

	res, ok := tl.Drain()
	if !ok || res.Winner != "B" || res.Votes != 1 {
		t.Fatalf("drain = %+v, %v; want winner B with 1 vote", res, ok)
	}
	if diff := cmp.Diff(map[string]int{"A": 1, "B": 1}, res.Counts); diff != "" {
		t.Fatalf("drained counts mismatch (-want +got):\n%s", diff)
	}
	if tl.Len() != 0 {
		t.Fatalf("tally should be empty after drain, has %d keys", tl.Len())
	}

	// insertion order starts over after a reset
	tl.Add("A")
	tl.Add("B")
	if key, _, _ := tl.Leader(); key != "A" {
		t.Fatalf("leader after reset = %s, want A", key)
	}
}
