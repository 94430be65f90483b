package models

import (
	"time"

	"github.com/google/uuid"
)

// Run summarizes one dispatcher run. Planned is known at start; the counters
// and FinishedAt are filled in when the run ends.
type Run struct {
	ID         uuid.UUID  `json:"id"`
	Source     string     `json:"source,omitempty"`
	DryRun     bool       `json:"dry_run"`
	Planned    int        `json:"planned"`
	Sent       int        `json:"sent"`
	Failed     int        `json:"failed"`
	Cancelled  bool       `json:"cancelled"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Attempted returns the number of logged attempts.
func (r Run) Attempted() int {
	return r.Sent + r.Failed
}
