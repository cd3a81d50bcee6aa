package decision

import "fmt"

// DefaultWindowSeconds is the length of a decision window
const DefaultWindowSeconds = 10

// Kind distinguishes ordinary ticks from resolutions
type Kind string

const (
	KindTick       Kind = "tick"
	KindResolution Kind = "resolution"
)

// Transition is the result of advancing the countdown by one tick
type Transition struct {
	Kind      Kind
	Remaining int
}

// Countdown is the decision timer. It only ever counts: every Advance
// decrements the remaining seconds, and dropping below zero resolves the
// window and starts the next one.
type Countdown struct {
	window    int
	remaining int
}

// NewCountdown creates a countdown starting at window seconds
func NewCountdown(window int) (*Countdown, error) {
	if window < 0 {
		return nil, fmt.Errorf("decision window must not be negative, got %d", window)
	}
	return &Countdown{window: window, remaining: window}, nil
}

// Advance moves the countdown one tick forward
func (c *Countdown) Advance() Transition {
	c.remaining--
	if c.remaining < 0 {
		c.remaining = c.window
		return Transition{Kind: KindResolution, Remaining: c.remaining}
	}
	return Transition{Kind: KindTick, Remaining: c.remaining}
}

// Remaining returns the seconds left in the current window
func (c *Countdown) Remaining() int {
	return c.remaining
}

// Window returns the configured window length
func (c *Countdown) Window() int {
	return c.window
}
