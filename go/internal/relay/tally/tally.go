package tally

// Tally counts votes per decision key and remembers the order in which keys
// were first seen since the last reset.
type Tally struct {
	counts map[string]int
	order  []string
}

// New returns an empty tally
func New() *Tally {
	return &Tally{counts: make(map[string]int)}
}

// Add records one vote for key and returns the new count
func (t *Tally) Add(key string) int {
	if _, ok := t.counts[key]; !ok {
		t.counts[key] = 0
		t.order = append(t.order, key)
	}
	t.counts[key]++
	return t.counts[key]
}

// Count returns the votes recorded for key
func (t *Tally) Count(key string) int {
	return t.counts[key]
}

// Len returns the number of distinct keys
func (t *Tally) Len() int {
	return len(t.order)
}

// Total returns the number of votes across all keys
func (t *Tally) Total() int {
	total := 0
	for _, n := range t.counts {
		total += n
	}
	return total
}

// Snapshot returns a copy of the counts
func (t *Tally) Snapshot() map[string]int {
	out := make(map[string]int, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

// Reset clears every count and forgets insertion order
func (t *Tally) Reset() {
	t.counts = make(map[string]int)
	t.order = nil
}

// Leader returns the key with the most votes. Equal counts go to the key
// inserted first. ok is false when the tally is empty.
func (t *Tally) Leader() (key string, votes int, ok bool) {
	for _, k := range t.order {
		if n := t.counts[k]; !ok || n > votes {
			key, votes, ok = k, n, true
		}
	}
	return key, votes, ok
}

// Drain returns the leader and a snapshot of the counts, then resets the tally
func (t *Tally) Drain() (Result, bool) {
	key, votes, ok := t.Leader()
	res := Result{Winner: key, Votes: votes, Counts: t.Snapshot()}
	t.Reset()
	return res, ok
}

// Result is the outcome of a drained tally
type Result struct {
	Winner string
	Votes  int
	Counts map[string]int
}
