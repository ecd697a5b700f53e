package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Database is the subset of pgxpool.Pool used by the Postgres slot.
type Database interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// Postgres stores slots in the storage_slots table.
type Postgres struct {
	db  Database
	log *slog.Logger
}

// NewDatabase opens a pgx connection pool and verifies it with a ping.
func NewDatabase(ctx context.Context, host, port, user, password, name string) (*pgxpool.Pool, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)

	return NewDatabaseFromDSN(ctx, dsn)
}

// NewDatabaseFromDSN opens a pgx connection pool for the given connection string.
func NewDatabaseFromDSN(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err = pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// NewPostgres creates a new Postgres slot store with the provided Database.
func NewPostgres(db Database, log *slog.Logger) *Postgres {
	return &Postgres{db: db, log: log}
}

// EnsureSchema creates the storage_slots table when it is missing.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS storage_slots (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`

	if _, err := p.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create storage_slots table: %w", err)
	}

	return nil
}

// Read returns the value stored under name, or ErrSlotNotFound.
func (p *Postgres) Read(ctx context.Context, name string) (string, error) {
	query := `
		SELECT value
		FROM storage_slots
		WHERE name = $1;
	`

	var value string
	err := p.db.QueryRow(ctx, query, name).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrSlotNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read slot %q: %w", name, err)
	}

	p.log.DebugContext(ctx, "Slot read from postgres", "slot", name, "bytes", len(value))

	return value, nil
}

// Write upserts the value stored under name.
func (p *Postgres) Write(ctx context.Context, name, value string) error {
	query := `
		INSERT INTO storage_slots (name, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET
			value = EXCLUDED.value,
			updated_at = EXCLUDED.updated_at;
	`

	if _, err := p.db.Exec(ctx, query, name, value); err != nil {
		return fmt.Errorf("failed to write slot %q: %w", name, err)
	}

	return nil
}

// Delete removes the slot. Deleting a missing slot is not an error.
func (p *Postgres) Delete(ctx context.Context, name string) error {
	query := `
		DELETE FROM storage_slots
		WHERE name = $1;
	`

	if _, err := p.db.Exec(ctx, query, name); err != nil {
		return fmt.Errorf("failed to delete slot %q: %w", name, err)
	}

	return nil
}

// Ping checks the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}
