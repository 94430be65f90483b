package repository

import (
	"context"
	"fmt"

	"github.com/blockedby/autorecruit/internal/database"
	"github.com/blockedby/autorecruit/internal/models"
)

// DashboardStats contains aggregated statistics for the dashboard.
type DashboardStats struct {
	TotalRuns      int64 `json:"total_runs"`
	TotalAttempts  int64 `json:"total_attempts"`
	Sent           int64 `json:"sent"`
	Failed         int64 `json:"failed"`
	UniqueContacts int64 `json:"unique_contacts"`
}

// Stats aggregates history across all runs. Dry runs are not counted as sends.
func (r *HistoryRepository) Stats(ctx context.Context) (*DashboardStats, error) {
	stats := &DashboardStats{}
	db := r.db.WithContext(ctx)

	if err := db.Model(&database.RunRecord{}).Count(&stats.TotalRuns).Error; err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	var row struct {
		Total  int64
		Sent   int64
		Failed int64
	}
	err := db.Model(&database.EntryRecord{}).
		Joins("JOIN runs ON runs.id = delivery_entries.run_id").
		Where("runs.dry_run = ?", false).
		Select(
			"COUNT(*) AS total, "+
				"COALESCE(SUM(CASE WHEN delivery_entries.status = ? THEN 1 ELSE 0 END), 0) AS sent, "+
				"COALESCE(SUM(CASE WHEN delivery_entries.status = ? THEN 1 ELSE 0 END), 0) AS failed",
			string(models.DeliveryStatusSent), string(models.DeliveryStatusFailed),
		).
		Scan(&row).Error
	if err != nil {
		return nil, fmt.Errorf("count entries: %w", err)
	}
	stats.TotalAttempts = row.Total
	stats.Sent = row.Sent
	stats.Failed = row.Failed

	err = db.Model(&database.EntryRecord{}).
		Joins("JOIN runs ON runs.id = delivery_entries.run_id").
		Where("runs.dry_run = ?", false).
		Where("delivery_entries.email <> ''").
		Select("COUNT(DISTINCT LOWER(delivery_entries.email))").
		Scan(&stats.UniqueContacts).Error
	if err != nil {
		return nil, fmt.Errorf("count contacts: %w", err)
	}

	return stats, nil
}
