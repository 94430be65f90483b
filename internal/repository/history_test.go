package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/blockedby/autorecruit/internal/database"
	"github.com/blockedby/autorecruit/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// a named shared-cache database per test keeps tests isolated
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newRun(started time.Time, dryRun bool) models.Run {
	return models.Run{
		ID:        uuid.New(),
		Source:    "recruiters.csv",
		DryRun:    dryRun,
		Planned:   2,
		StartedAt: started,
	}
}

func entry(row int, email string, status models.DeliveryStatus) models.LogEntry {
	return models.LogEntry{
		Timestamp:  time.Date(2026, 5, 1, 9, 0, row, 0, time.UTC),
		Row:        row,
		AgencyName: fmt.Sprintf("Agency %d", row),
		Email:      email,
		Status:     status,
		Subject:    "Application",
	}
}

// record plays a run through the observer methods.
func record(repo *HistoryRepository, run models.Run, entries ...models.LogEntry) models.Run {
	ctx := context.Background()
	repo.RunStarted(ctx, run)
	for _, e := range entries {
		if e.Failed() {
			run.Failed++
		} else {
			run.Sent++
		}
		repo.EntryLogged(ctx, run, e)
	}
	finished := run.StartedAt.Add(time.Minute)
	run.FinishedAt = &finished
	repo.RunFinished(ctx, run)
	return run
}

func TestHistoryRepository_RecordsRunThroughObserver(t *testing.T) {
	repo := NewHistoryRepository(setupTestDB(t), nil)
	ctx := context.Background()

	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	run := record(repo, newRun(start, false),
		entry(1, "a@x.com", models.DeliveryStatusSent),
		entry(2, "invalid-email", models.DeliveryStatusFailed),
	)

	got, err := repo.GetRun(ctx, run.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Sent)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, "recruiters.csv", got.Source)
	assert.True(t, got.StartedAt.Equal(start))
	require.NotNil(t, got.FinishedAt)
	assert.True(t, got.FinishedAt.Equal(start.Add(time.Minute)))

	entries, err := repo.ListEntries(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Row)
	assert.Equal(t, models.DeliveryStatusSent, entries[0].Status)
	assert.Equal(t, 2, entries[1].Row)
	assert.Equal(t, models.DeliveryStatusFailed, entries[1].Status)
	assert.True(t, entries[1].Timestamp.Equal(entry(2, "", "").Timestamp))
}

func TestHistoryRepository_GetRunMissing(t *testing.T) {
	repo := NewHistoryRepository(setupTestDB(t), nil)

	got, err := repo.GetRun(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestHistoryRepository_FinishUnknownRun(t *testing.T) {
	repo := NewHistoryRepository(setupTestDB(t), nil)

	err := repo.FinishRun(context.Background(), models.Run{ID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestHistoryRepository_ListRunsNewestFirst(t *testing.T) {
	repo := NewHistoryRepository(setupTestDB(t), nil)
	ctx := context.Background()

	base := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		run := newRun(base.Add(time.Duration(i)*time.Hour), false)
		require.NoError(t, repo.CreateRun(ctx, run))
		ids = append(ids, run.ID)
	}

	runs, err := repo.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[0], runs[2].ID)

	runs, err = repo.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestHistoryRepository_Stats(t *testing.T) {
	repo := NewHistoryRepository(setupTestDB(t), nil)
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	record(repo, newRun(start, false),
		entry(1, "a@x.com", models.DeliveryStatusSent),
		entry(2, "b@x.com", models.DeliveryStatusFailed),
	)
	record(repo, newRun(start.Add(time.Hour), false),
		entry(2, "B@x.com", models.DeliveryStatusSent),
	)
	// dry runs do not count as sends
	record(repo, newRun(start.Add(2*time.Hour), true),
		entry(1, "c@x.com", models.DeliveryStatusSent),
	)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalRuns)
	assert.Equal(t, int64(3), stats.TotalAttempts)
	assert.Equal(t, int64(2), stats.Sent)
	assert.Equal(t, int64(1), stats.Failed)
	// c@x.com was only reached by the dry run
	assert.Equal(t, int64(2), stats.UniqueContacts)
}

func TestHistoryRepository_StatsEmpty(t *testing.T) {
	repo := NewHistoryRepository(setupTestDB(t), nil)

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &DashboardStats{}, stats)
}

func TestHistoryRepository_ClearEntries(t *testing.T) {
	repo := NewHistoryRepository(setupTestDB(t), nil)
	ctx := context.Background()

	run := record(repo, newRun(time.Now().UTC(), false),
		entry(1, "a@x.com", models.DeliveryStatusSent),
		entry(2, "b@x.com", models.DeliveryStatusSent),
	)

	removed, err := repo.ClearEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	runs, err := repo.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)

	entries, err := repo.ListEntries(ctx, run.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
