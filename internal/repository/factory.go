package repository

import (
	"context"
	"fmt"
	"log/slog"
)

// SlotType selects the durable storage backend.
type SlotType string

const (
	// SlotTypePostgres stores slots in PostgreSQL.
	SlotTypePostgres SlotType = "postgres"
	// SlotTypeSQLite stores slots in a local SQLite file.
	SlotTypeSQLite SlotType = "sqlite"
	// SlotTypeMemory keeps slots in process memory only.
	SlotTypeMemory SlotType = "memory"
)

// SlotConfig holds configuration for creating a slot store.
type SlotConfig struct {
	Type       SlotType     // Backend to create
	PostgresDB Database     // Open connection, required for postgres
	SQLitePath string       // Database file, empty for in-memory SQLite
	Logger     *slog.Logger // Logger for the backend
}

// NewSlot creates a slot store based on the provided configuration.
// The postgres backend gets its schema created on the way.
func NewSlot(ctx context.Context, cfg SlotConfig) (Slot, error) {
	switch cfg.Type {
	case SlotTypePostgres:
		if cfg.PostgresDB == nil {
			return nil, fmt.Errorf("database connection is required for %s slot", cfg.Type)
		}
		pg := NewPostgres(cfg.PostgresDB, cfg.Logger)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return pg, nil
	case SlotTypeSQLite:
		return OpenSQLite(cfg.SQLitePath, cfg.Logger)
	case SlotTypeMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported slot type: %s", cfg.Type)
	}
}
