// Package repository stores run history: runs and their delivery entries.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blockedby/autorecruit/internal/database"
	"github.com/blockedby/autorecruit/internal/logger"
	"github.com/blockedby/autorecruit/internal/models"
)

// HistoryRepository persists runs and delivery entries. It also observes a
// dispatcher run so history is written as the run progresses.
type HistoryRepository struct {
	db  *gorm.DB
	log *logger.Logger
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *gorm.DB, log *logger.Logger) *HistoryRepository {
	if log == nil {
		log = logger.Nop()
	}
	return &HistoryRepository{db: db, log: log}
}

// CreateRun stores a new run.
func (r *HistoryRepository) CreateRun(ctx context.Context, run models.Run) error {
	rec := toRunRecord(run)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// FinishRun updates a run's counters and completion time.
func (r *HistoryRepository) FinishRun(ctx context.Context, run models.Run) error {
	res := r.db.WithContext(ctx).
		Model(&database.RunRecord{}).
		Where("id = ?", run.ID).
		Updates(map[string]any{
			"sent":        run.Sent,
			"failed":      run.Failed,
			"cancelled":   run.Cancelled,
			"finished_at": run.FinishedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("finish run: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("finish run %s: run not found", run.ID)
	}
	return nil
}

// AppendEntry stores one entry of a run. seq orders entries within the run.
func (r *HistoryRepository) AppendEntry(ctx context.Context, runID uuid.UUID, seq int, e models.LogEntry) error {
	rec := toEntryRecord(runID, seq, e)
	if err := r.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 means no limit.
func (r *HistoryRepository) ListRuns(ctx context.Context, limit int) ([]models.Run, error) {
	q := r.db.WithContext(ctx).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var recs []database.RunRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	runs := make([]models.Run, 0, len(recs))
	for _, rec := range recs {
		runs = append(runs, fromRunRecord(rec))
	}
	return runs, nil
}

// GetRun returns a run by ID, or nil if it does not exist.
func (r *HistoryRepository) GetRun(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	var rec database.RunRecord
	err := r.db.WithContext(ctx).First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	run := fromRunRecord(rec)
	return &run, nil
}

// ListEntries returns a run's entries in send order.
func (r *HistoryRepository) ListEntries(ctx context.Context, runID uuid.UUID) ([]models.LogEntry, error) {
	var recs []database.EntryRecord
	err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("seq ASC").
		Find(&recs).Error
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	entries := make([]models.LogEntry, 0, len(recs))
	for _, rec := range recs {
		entries = append(entries, fromEntryRecord(rec))
	}
	return entries, nil
}

// ClearEntries deletes all runs and entries and reports how many entries
// were removed.
func (r *HistoryRepository) ClearEntries(ctx context.Context) (int64, error) {
	var removed int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&database.EntryRecord{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&database.RunRecord{}).Error
	})
	if err != nil {
		return 0, fmt.Errorf("clear entries: %w", err)
	}

	r.log.Info().Int64("entries", removed).Msg("cleared delivery history")
	return removed, nil
}

// RunStarted records the run.
func (r *HistoryRepository) RunStarted(ctx context.Context, run models.Run) {
	if err := r.CreateRun(ctx, run); err != nil {
		r.log.Error().Err(err).Str("run_id", run.ID.String()).Msg("failed to record run")
	}
}

// EntryLogged records the entry. The run counters already include it, so
// their sum is the entry's position in the run.
func (r *HistoryRepository) EntryLogged(ctx context.Context, run models.Run, e models.LogEntry) {
	if err := r.AppendEntry(ctx, run.ID, run.Attempted(), e); err != nil {
		r.log.Error().Err(err).Str("run_id", run.ID.String()).Int("row", e.Row).Msg("failed to record entry")
	}
}

// RunFinished records the final counters.
func (r *HistoryRepository) RunFinished(ctx context.Context, run models.Run) {
	if err := r.FinishRun(ctx, run); err != nil {
		r.log.Error().Err(err).Str("run_id", run.ID.String()).Msg("failed to finish run")
	}
}

func toRunRecord(run models.Run) database.RunRecord {
	return database.RunRecord{
		ID:         run.ID,
		Source:     run.Source,
		DryRun:     run.DryRun,
		Planned:    run.Planned,
		Sent:       run.Sent,
		Failed:     run.Failed,
		Cancelled:  run.Cancelled,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
}

func fromRunRecord(rec database.RunRecord) models.Run {
	run := models.Run{
		ID:        rec.ID,
		Source:    rec.Source,
		DryRun:    rec.DryRun,
		Planned:   rec.Planned,
		Sent:      rec.Sent,
		Failed:    rec.Failed,
		Cancelled: rec.Cancelled,
		StartedAt: rec.StartedAt.UTC(),
	}
	if rec.FinishedAt != nil {
		t := rec.FinishedAt.UTC()
		run.FinishedAt = &t
	}
	return run
}

func toEntryRecord(runID uuid.UUID, seq int, e models.LogEntry) database.EntryRecord {
	return database.EntryRecord{
		RunID:      runID,
		Seq:        seq,
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

func fromEntryRecord(rec database.EntryRecord) models.LogEntry {
	return models.LogEntry{
		Timestamp:  rec.Timestamp.UTC(),
		Row:        rec.Row,
		AgencyName: rec.AgencyName,
		Email:      rec.Email,
		Status:     models.DeliveryStatus(rec.Status),
		Detail:     rec.Detail,
		MessageID:  rec.MessageID,
		Subject:    rec.Subject,
		Preview:    rec.Preview,
	}
}
