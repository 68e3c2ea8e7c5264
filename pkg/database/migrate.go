package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Schedules are stored as one JSONB document per professional; version
// drives optimistic concurrency on writes.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS schedules (
		id              TEXT        PRIMARY KEY,
		professional_id TEXT        NOT NULL UNIQUE,
		version         BIGINT      NOT NULL,
		document        JSONB       NOT NULL,
		updated_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS service_durations (
		service_id       TEXT    PRIMARY KEY,
		duration_minutes INTEGER NOT NULL CHECK (duration_minutes >= 0),
		buffer_before    INTEGER NOT NULL DEFAULT 0 CHECK (buffer_before >= 0),
		buffer_after     INTEGER NOT NULL DEFAULT 0 CHECK (buffer_after >= 0)
	)`,
}

// Migrate creates the tables used by the postgres repositories. It is
// idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer tx.Rollback()

	for i, stmt := range migrations {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	return tx.Commit()
}
