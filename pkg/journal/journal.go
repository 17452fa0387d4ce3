// Package journal keeps a history of extension operations in postgres.
package journal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"invext/pkg/inventory"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Entry represents the extension_outcomes table
type Entry struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Operation string    `gorm:"not null" json:"operation"`
	ClassID   string    `gorm:"not null;index" json:"class_id"`
	ClassName string    `json:"class_name"`
	Status    string    `gorm:"not null" json:"status"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName overrides the default table name logic
func (Entry) TableName() string { return "extension_outcomes" }

// Connect opens the journal database
func Connect(dsn string) (*gorm.DB, error) {
	db, err := Open(postgres.Open(dsn))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to journal database: %w", err)
	}

	slog.Info("Connected to journal database", "component", "Journal")
	return db, nil
}

// Open opens a gorm session on dialector. Each outcome is a single insert, so writes skip gorm's implicit transaction.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Warn),
		SkipDefaultTransaction: true,
	})
}

// Recorder is an inventory.Reporter that stores every outcome.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Migrate creates or updates the journal table.
func (r *Recorder) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&Entry{})
}

// Report stores the outcome. A failed write is logged; it never affects the operation.
func (r *Recorder) Report(ctx context.Context, o inventory.Outcome) {
	entry := &Entry{
		Operation: string(o.Operation),
		ClassID:   o.ClassID,
		ClassName: o.ClassName,
		Status:    string(o.Status),
		Detail:    o.Detail,
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		slog.Error("Failed to journal outcome", "component", "Journal", "class_id", o.ClassID, "status", o.Status, "error", err)
	}
}

// List returns the journal of one class, oldest first.
func (r *Recorder) List(ctx context.Context, classID string) ([]*Entry, error) {
	var entries []*Entry
	result := r.db.WithContext(ctx).Where("class_id = ?", classID).Order("id").Find(&entries)
	return entries, result.Error
}
