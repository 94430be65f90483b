package database

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RunRecord is one dispatcher run.
type RunRecord struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	Source     string
	DryRun     bool
	Planned    int
	Sent       int
	Failed     int
	Cancelled  bool
	StartedAt  time.Time `gorm:"index"`
	FinishedAt *time.Time
	Entries    []EntryRecord `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the default table name.
func (RunRecord) TableName() string { return "runs" }

// EntryRecord is one logged send attempt.
type EntryRecord struct {
	ID         uint      `gorm:"primaryKey;autoIncrement"`
	RunID      uuid.UUID `gorm:"type:uuid;index"`
	Seq        int       `gorm:"index"`
	Timestamp  time.Time
	Row        int
	AgencyName string
	Email      string `gorm:"index"`
	Status     string `gorm:"size:16;index"`
	Detail     string
	MessageID  string
	Subject    string
	Preview    string
}

// TableName overrides the default table name.
func (EntryRecord) TableName() string { return "delivery_entries" }

// Migrate creates or updates the history tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&RunRecord{}, &EntryRecord{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
