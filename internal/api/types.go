package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/blockedby/autorecruit/internal/models"
	"github.com/blockedby/autorecruit/internal/repository"
)

// ============================================================================
// Common Types
// ============================================================================

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string `json:"status" example:"ok" description:"Health status"`
	Version string `json:"version" example:"dev" description:"Application version"`
}

// ============================================================================
// Runs Types
// ============================================================================

// RunResponse represents a run in API responses.
type RunResponse struct {
	ID         uuid.UUID  `json:"id" description:"Run identifier"`
	Source     string     `json:"source,omitempty" description:"Contacts file the run was started from"`
	DryRun     bool       `json:"dry_run" description:"Whether messages were only rendered"`
	Planned    int        `json:"planned" description:"Contacts scheduled for the run"`
	Sent       int        `json:"sent" description:"Messages accepted by the provider"`
	Failed     int        `json:"failed" description:"Attempts that failed"`
	Cancelled  bool       `json:"cancelled" description:"Whether the run was stopped early"`
	StartedAt  time.Time  `json:"started_at" description:"Run start time"`
	FinishedAt *time.Time `json:"finished_at,omitempty" description:"Run end time, absent while running"`
}

// RunsListResponse represents a list of runs.
type RunsListResponse struct {
	Runs  []RunResponse `json:"runs"`
	Total int           `json:"total"`
}

// EntryResponse represents one delivery log entry.
type EntryResponse struct {
	Timestamp  time.Time `json:"timestamp" description:"Attempt time"`
	Row        int       `json:"row" description:"1-based row in the contacts file"`
	AgencyName string    `json:"agency_name"`
	Email      string    `json:"email"`
	Status     string    `json:"status" description:"SENT or FAILED"`
	Detail     string    `json:"detail,omitempty" description:"Failure reason"`
	MessageID  string    `json:"message_id,omitempty"`
	Subject    string    `json:"subject,omitempty"`
	Preview    string    `json:"preview,omitempty" description:"Start of the rendered body"`
}

// EntriesListResponse represents the entries of a run.
type EntriesListResponse struct {
	RunID   uuid.UUID       `json:"run_id"`
	Entries []EntryResponse `json:"entries"`
	Total   int             `json:"total"`
}

// ClearEntriesResponse reports a history wipe.
type ClearEntriesResponse struct {
	Deleted int64 `json:"deleted"`
}

// RunFromModel converts a run to its API form.
func RunFromModel(r models.Run) RunResponse {
	return RunResponse{
		ID:         r.ID,
		Source:     r.Source,
		DryRun:     r.DryRun,
		Planned:    r.Planned,
		Sent:       r.Sent,
		Failed:     r.Failed,
		Cancelled:  r.Cancelled,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

// RunsFromModel converts a slice of runs.
func RunsFromModel(runs []models.Run) []RunResponse {
	result := make([]RunResponse, len(runs))
	for i, r := range runs {
		result[i] = RunFromModel(r)
	}
	return result
}

// EntriesFromModel converts log entries.
func EntriesFromModel(entries []models.LogEntry) []EntryResponse {
	result := make([]EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryResponse{
			Timestamp:  e.Timestamp,
			Row:        e.Row,
			AgencyName: e.AgencyName,
			Email:      e.Email,
			Status:     string(e.Status),
			Detail:     e.Detail,
			MessageID:  e.MessageID,
			Subject:    e.Subject,
			Preview:    e.Preview,
		}
	}
	return result
}

// ============================================================================
// Stats Types
// ============================================================================

// StatsResponse represents aggregated history.
type StatsResponse struct {
	TotalRuns      int64   `json:"total_runs"`
	TotalAttempts  int64   `json:"total_attempts"`
	Sent           int64   `json:"sent"`
	Failed         int64   `json:"failed"`
	UniqueContacts int64   `json:"unique_contacts"`
	SuccessRate    float64 `json:"success_rate" description:"Share of attempts that were sent, 0..1"`
}

// StatsFromRepo converts repository stats.
func StatsFromRepo(s *repository.DashboardStats) StatsResponse {
	resp := StatsResponse{
		TotalRuns:      s.TotalRuns,
		TotalAttempts:  s.TotalAttempts,
		Sent:           s.Sent,
		Failed:         s.Failed,
		UniqueContacts: s.UniqueContacts,
	}
	if s.TotalAttempts > 0 {
		resp.SuccessRate = float64(s.Sent) / float64(s.TotalAttempts)
	}
	return resp
}

// ============================================================================
// Preview Types
// ============================================================================

// PreviewRequest renders a template against one contact's fields.
type PreviewRequest struct {
	Subject string            `json:"subject" validate:"required" description:"Subject template"`
	Body    string            `json:"body" validate:"required" description:"Body template"`
	Fields  map[string]string `json:"fields" description:"Column values of the contact, keyed by header"`
}

// PreviewResponse is the rendered message.
type PreviewResponse struct {
	Subject      string   `json:"subject"`
	Body         string   `json:"body"`
	Placeholders []string `json:"placeholders" description:"Placeholders referenced by the template"`
}
