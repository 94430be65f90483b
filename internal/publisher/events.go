package publisher

import (
	"time"

	"github.com/google/uuid"

	"github.com/blockedby/autorecruit/internal/models"
)

// Subjects and stream for outreach events.
const (
	StreamName     = "OUTREACH"
	SubjectAll     = "outreach.>"
	SubjectAttempt = "outreach.attempt"
	SubjectRun     = "outreach.run"
)

// Run phases carried by RunEvent.
const (
	PhaseStarted  = "started"
	PhaseFinished = "finished"
)

// AttemptEvent is published after each logged send attempt.
type AttemptEvent struct {
	RunID      uuid.UUID             `json:"run_id"`
	Seq        int                   `json:"seq"`
	Planned    int                   `json:"planned"`
	Row        int                   `json:"row"`
	AgencyName string                `json:"agency_name"`
	Email      string                `json:"email"`
	Status     models.DeliveryStatus `json:"status"`
	Detail     string                `json:"detail,omitempty"`
	Subject    string                `json:"subject,omitempty"`
	Timestamp  time.Time             `json:"timestamp"`
}

// RunEvent is published when a run starts and when it ends.
type RunEvent struct {
	Phase string     `json:"phase"`
	Run   models.Run `json:"run"`
}

// NewAttemptEvent describes entry e, the latest attempt of run.
func NewAttemptEvent(run models.Run, e models.LogEntry) AttemptEvent {
	return AttemptEvent{
		RunID:      run.ID,
		Seq:        run.Attempted(),
		Planned:    run.Planned,
		Row:        e.Row,
		AgencyName: e.AgencyName,
		Email:      e.Email,
		Status:     e.Status,
		Detail:     e.Detail,
		Subject:    e.Subject,
		Timestamp:  e.Timestamp,
	}
}
