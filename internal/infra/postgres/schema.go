package postgres

import (
	"context"
	"fmt"
)

// schema is applied idempotently by Migrate.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS learner_completions (
		learner_id  TEXT PRIMARY KEY,
		completions JSONB NOT NULL DEFAULT '{}'::jsonb,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS learner_flagged (
		learner_id TEXT PRIMARY KEY,
		flagged    JSONB NOT NULL DEFAULT '[]'::jsonb,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS questions (
		certification_code TEXT    NOT NULL,
		quiz_id            TEXT    NOT NULL,
		position           INTEGER NOT NULL,
		question_id        TEXT    NOT NULL,
		prompt             TEXT    NOT NULL,
		options            JSONB   NOT NULL,
		correct_index      INTEGER NOT NULL,
		explanation        TEXT    NOT NULL DEFAULT '',
		domain             TEXT    NOT NULL DEFAULT '',
		difficulty         TEXT    NOT NULL DEFAULT '',
		PRIMARY KEY (certification_code, quiz_id, position)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS questions_question_id_idx ON questions (question_id)`,
}

// Migrate creates the tables the repositories need.
func Migrate(ctx context.Context, db DBTX) error {
	for _, stmt := range schema {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
