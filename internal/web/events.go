package web

import (
	"encoding/json"
	"fmt"

	"github.com/blockedby/autorecruit/internal/publisher"
)

// WebSocket event types
const (
	EventAttempt      = "outreach.attempt"
	EventRunStarted   = "run.started"
	EventRunFinished  = "run.finished"
	EventHistoryClear = "history.cleared"
)

// WSEvent represents a structured WebSocket message
type WSEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// EventFromNATS converts a message from the outreach stream into a
// WebSocket event.
func EventFromNATS(subject string, data []byte) (WSEvent, error) {
	switch subject {
	case publisher.SubjectAttempt:
		var ev publisher.AttemptEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return WSEvent{}, fmt.Errorf("decode attempt event: %w", err)
		}
		return WSEvent{Type: EventAttempt, Payload: ev}, nil

	case publisher.SubjectRun:
		var ev publisher.RunEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			return WSEvent{}, fmt.Errorf("decode run event: %w", err)
		}
		typ := EventRunStarted
		if ev.Phase == publisher.PhaseFinished {
			typ = EventRunFinished
		}
		return WSEvent{Type: typ, Payload: ev.Run}, nil

	default:
		return WSEvent{}, fmt.Errorf("unexpected subject %q", subject)
	}
}

// RelayHandler returns a NATS handler that forwards outreach events to the
// hub. Undecodable messages are dropped, not redelivered.
func RelayHandler(hub *Hub) func(subject string, data []byte) error {
	return func(subject string, data []byte) error {
		ev, err := EventFromNATS(subject, data)
		if err != nil {
			hub.log.Warn().Err(err).Str("subject", subject).Msg("dropping event")
			return nil
		}
		hub.Broadcast(ev)
		return nil
	}
}
