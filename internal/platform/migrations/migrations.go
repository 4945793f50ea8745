// Package migrations creates the database schema. Statements are
// idempotent (IF NOT EXISTS) and run in order on every startup, so a
// fresh database and an up-to-date one both converge without a separate
// migration tool.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS game_categories (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_game_categories_name
		ON game_categories (LOWER(name))`,
	`CREATE TABLE IF NOT EXISTS game_words (
		id          TEXT PRIMARY KEY,
		category_id TEXT NOT NULL REFERENCES game_categories(id) ON DELETE CASCADE,
		word        TEXT NOT NULL,
		position    INTEGER NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_game_words_category
		ON game_words (category_id, position)`,
	`CREATE TABLE IF NOT EXISTS game_puzzles (
		date_key     TEXT PRIMARY KEY,
		source       TEXT NOT NULL,
		words        JSONB NOT NULL,
		categories   JSONB NOT NULL,
		generated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS game_sessions (
		id         TEXT PRIMARY KEY,
		date_key   TEXT NOT NULL,
		found      JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
}

// Apply runs every schema statement in order inside one transaction, so
// a failed startup never leaves a partial schema behind.
func Apply(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migrations: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
	}
	return tx.Commit()
}
