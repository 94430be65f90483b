// Package api provides HTTP handlers for the REST API.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-fuego/fuego"
	"github.com/google/uuid"

	"github.com/blockedby/autorecruit/internal/deliverylog"
	"github.com/blockedby/autorecruit/internal/render"
)

// ============================================================================
// Health
// ============================================================================

func (s *Server) healthCheck(c fuego.ContextNoBody) (HealthResponse, error) {
	return HealthResponse{
		Status:  "ok",
		Version: s.version,
	}, nil
}

// ============================================================================
// Runs Handlers
// ============================================================================

func (s *Server) listRuns(c fuego.ContextNoBody) (RunsListResponse, error) {
	limit := parseIntWithDefault(c.QueryParam("limit"), 50)
	if limit <= 0 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	runs, err := s.deps.HistoryRepo.ListRuns(c.Context(), limit)
	if err != nil {
		return RunsListResponse{}, fuego.InternalServerError{Detail: err.Error()}
	}

	return RunsListResponse{
		Runs:  RunsFromModel(runs),
		Total: len(runs),
	}, nil
}

func (s *Server) getRun(c fuego.ContextNoBody) (RunResponse, error) {
	id, err := uuid.Parse(c.PathParam("id"))
	if err != nil {
		return RunResponse{}, fuego.BadRequestError{Detail: "Invalid run ID"}
	}

	run, err := s.deps.HistoryRepo.GetRun(c.Context(), id)
	if err != nil {
		return RunResponse{}, fuego.InternalServerError{Detail: err.Error()}
	}
	if run == nil {
		return RunResponse{}, fuego.NotFoundError{Detail: "Run not found"}
	}

	return RunFromModel(*run), nil
}

func (s *Server) listEntries(c fuego.ContextNoBody) (EntriesListResponse, error) {
	id, err := uuid.Parse(c.PathParam("id"))
	if err != nil {
		return EntriesListResponse{}, fuego.BadRequestError{Detail: "Invalid run ID"}
	}

	run, err := s.deps.HistoryRepo.GetRun(c.Context(), id)
	if err != nil {
		return EntriesListResponse{}, fuego.InternalServerError{Detail: err.Error()}
	}
	if run == nil {
		return EntriesListResponse{}, fuego.NotFoundError{Detail: "Run not found"}
	}

	entries, err := s.deps.HistoryRepo.ListEntries(c.Context(), id)
	if err != nil {
		return EntriesListResponse{}, fuego.InternalServerError{Detail: err.Error()}
	}

	return EntriesListResponse{
		RunID:   id,
		Entries: EntriesFromModel(entries),
		Total:   len(entries),
	}, nil
}

// downloadLog serves a run's delivery log in the same CSV format the CLI
// writes.
func (s *Server) downloadLog(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "Invalid run ID", http.StatusBadRequest)
		return
	}

	run, err := s.deps.HistoryRepo.GetRun(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if run == nil {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}

	entries, err := s.deps.HistoryRepo.ListEntries(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="application_log_%s.csv"`, id))
	if err := deliverylog.WriteCSV(w, entries); err != nil {
		_ = err // Client disconnected
	}
}

func (s *Server) clearEntries(c fuego.ContextNoBody) (ClearEntriesResponse, error) {
	deleted, err := s.deps.HistoryRepo.ClearEntries(c.Context())
	if err != nil {
		return ClearEntriesResponse{}, fuego.InternalServerError{Detail: err.Error()}
	}

	// Notify WebSocket clients
	if s.deps.Hub != nil {
		s.deps.Hub.Broadcast(map[string]interface{}{
			"type":    "history.cleared",
			"payload": map[string]int64{"deleted": deleted},
		})
	}

	return ClearEntriesResponse{Deleted: deleted}, nil
}

// ============================================================================
// Stats Handlers
// ============================================================================

func (s *Server) getStats(c fuego.ContextNoBody) (StatsResponse, error) {
	stats, err := s.deps.StatsRepo.Stats(c.Context())
	if err != nil {
		return StatsResponse{}, fuego.InternalServerError{Detail: err.Error()}
	}

	return StatsFromRepo(stats), nil
}

// ============================================================================
// Preview Handlers
// ============================================================================

func (s *Server) previewTemplate(c fuego.ContextWithBody[PreviewRequest]) (PreviewResponse, error) {
	body, err := c.Body()
	if err != nil {
		return PreviewResponse{}, fuego.BadRequestError{Detail: err.Error()}
	}

	tmpl := render.Template{Subject: body.Subject, Body: body.Body}
	msg, err := tmpl.RenderMap(body.Fields)
	if err != nil {
		var missing *render.MissingPlaceholderError
		if errors.As(err, &missing) {
			return PreviewResponse{}, fuego.BadRequestError{Detail: err.Error()}
		}
		return PreviewResponse{}, fuego.InternalServerError{Detail: err.Error()}
	}

	return PreviewResponse{
		Subject:      msg.Subject,
		Body:         msg.Body,
		Placeholders: tmpl.Placeholders(),
	}, nil
}

func parseIntWithDefault(s string, defaultVal int) int {
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
