package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// slotRecord is the gorm model behind the SQLite slot store.
type slotRecord struct {
	Name      string `gorm:"primaryKey"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (slotRecord) TableName() string { return "storage_slots" }

// SQLite stores slots in a local SQLite database through gorm.
type SQLite struct {
	db  *gorm.DB
	log *slog.Logger
}

// OpenSQLite opens (or creates) the SQLite database at path and migrates the slot table.
// An empty path opens an in-memory database.
func OpenSQLite(path string, log *slog.Logger) (*SQLite, error) {
	dsn := path
	if dsn == "" {
		dsn = "file::memory:"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if path == "" {
		// every new connection to :memory: would see its own empty database
		sqlDB, errDB := db.DB()
		if errDB != nil {
			return nil, fmt.Errorf("failed to access sqlite connection: %w", errDB)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return NewSQLite(db, log)
}

// NewSQLite wraps an existing gorm connection and migrates the slot table.
func NewSQLite(db *gorm.DB, log *slog.Logger) (*SQLite, error) {
	if err := db.AutoMigrate(&slotRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate storage_slots table: %w", err)
	}

	return &SQLite{db: db, log: log}, nil
}

// Read returns the value stored under name, or ErrSlotNotFound.
func (s *SQLite) Read(ctx context.Context, name string) (string, error) {
	var rec slotRecord
	err := s.db.WithContext(ctx).First(&rec, "name = ?", name).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrSlotNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read slot %q: %w", name, err)
	}

	s.log.DebugContext(ctx, "Slot read from sqlite", "slot", name, "bytes", len(rec.Value))

	return rec.Value, nil
}

// Write upserts the value stored under name.
func (s *SQLite) Write(ctx context.Context, name, value string) error {
	rec := slotRecord{Name: name, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to write slot %q: %w", name, err)
	}

	return nil
}

// Delete removes the slot. Deleting a missing slot is not an error.
func (s *SQLite) Delete(ctx context.Context, name string) error {
	if err := s.db.WithContext(ctx).Delete(&slotRecord{}, "name = ?", name).Error; err != nil {
		return fmt.Errorf("failed to delete slot %q: %w", name, err)
	}

	return nil
}

// Close releases the underlying connection.
func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}
