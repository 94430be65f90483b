package api

import (
	"context"

	"github.com/google/uuid"

	"github.com/blockedby/autorecruit/internal/models"
	"github.com/blockedby/autorecruit/internal/repository"
)

// HistoryRepository defines the interface for run history access.
type HistoryRepository interface {
	ListRuns(ctx context.Context, limit int) ([]models.Run, error)
	GetRun(ctx context.Context, id uuid.UUID) (*models.Run, error)
	ListEntries(ctx context.Context, runID uuid.UUID) ([]models.LogEntry, error)
	ClearEntries(ctx context.Context) (int64, error)
}

// StatsRepository defines the interface for stats data access.
type StatsRepository interface {
	Stats(ctx context.Context) (*repository.DashboardStats, error)
}

// HubBroadcaster defines the interface for WebSocket broadcasting.
type HubBroadcaster interface {
	Broadcast(message interface{})
}
