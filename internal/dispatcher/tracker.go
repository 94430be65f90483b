package dispatcher

import (
	"fmt"
)

// AttemptState is the lifecycle state of one send attempt.
type AttemptState string

const (
	StatePending   AttemptState = "PENDING"
	StateRendering AttemptState = "RENDERING"
	StateSending   AttemptState = "SENDING"
	StateSent      AttemptState = "SENT"
	StateFailed    AttemptState = "FAILED"
)

// Valid transitions:
// PENDING → RENDERING | FAILED
// RENDERING → SENDING | FAILED
// SENDING → SENT | FAILED
// SENT, FAILED are terminal
var validTransitions = map[AttemptState][]AttemptState{
	StatePending:   {StateRendering, StateFailed},
	StateRendering: {StateSending, StateFailed},
	StateSending:   {StateSent, StateFailed},
	StateSent:      {},
	StateFailed:    {},
}

// ValidateTransition checks if a state transition is allowed.
func ValidateTransition(from, to AttemptState) bool {
	allowed, exists := validTransitions[from]
	if !exists {
		return false
	}
	for _, valid := range allowed {
		if valid == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are possible.
func (s AttemptState) Terminal() bool {
	return s == StateSent || s == StateFailed
}

// attempt tracks the state of a single contact's send.
type attempt struct {
	row   int
	state AttemptState
	trail []AttemptState
}

func newAttempt(row int) *attempt {
	return &attempt{row: row, state: StatePending, trail: []AttemptState{StatePending}}
}

// advance moves to the next state. An invalid transition is a programming
// error, reported rather than silently ignored.
func (a *attempt) advance(to AttemptState) error {
	if !ValidateTransition(a.state, to) {
		return fmt.Errorf("row %d: invalid attempt transition: %s → %s", a.row, a.state, to)
	}
	a.state = to
	a.trail = append(a.trail, to)
	return nil
}
