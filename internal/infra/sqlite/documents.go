package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aliskhannn/certprep/internal/domain/entities"
)

// LoadCompletions returns the learner's completion map, empty if none.
func (s *Store) LoadCompletions(ctx context.Context, learnerID string) (entities.Completions, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT completions FROM learner_completions WHERE learner_id = ?`, learnerID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return make(entities.Completions), nil
		}
		return nil, fmt.Errorf("load completions: %w", err)
	}

	completions := make(entities.Completions)
	if err := json.Unmarshal([]byte(raw), &completions); err != nil {
		return nil, fmt.Errorf("decode completions: %w", err)
	}
	return completions, nil
}

// SaveCompletions replaces the learner's completion document.
func (s *Store) SaveCompletions(ctx context.Context, learnerID string, completions entities.Completions) error {
	raw, err := json.Marshal(completions)
	if err != nil {
		return fmt.Errorf("encode completions: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO learner_completions (learner_id, completions, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (learner_id) DO UPDATE SET
			completions = excluded.completions,
			updated_at = excluded.updated_at
	`, learnerID, string(raw))
	if err != nil {
		return fmt.Errorf("save completions: %w", err)
	}
	return nil
}

// LoadFlagged returns the learner's flags in flag order, empty if none.
func (s *Store) LoadFlagged(ctx context.Context, learnerID string) ([]entities.FlaggedQuestion, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT flagged FROM learner_flagged WHERE learner_id = ?`, learnerID,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []entities.FlaggedQuestion{}, nil
		}
		return nil, fmt.Errorf("load flagged: %w", err)
	}

	var flagged []entities.FlaggedQuestion
	if err := json.Unmarshal([]byte(raw), &flagged); err != nil {
		return nil, fmt.Errorf("decode flagged: %w", err)
	}
	return flagged, nil
}

// SaveFlagged replaces the learner's flag list.
func (s *Store) SaveFlagged(ctx context.Context, learnerID string, flagged []entities.FlaggedQuestion) error {
	if flagged == nil {
		flagged = []entities.FlaggedQuestion{}
	}
	raw, err := json.Marshal(flagged)
	if err != nil {
		return fmt.Errorf("encode flagged: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO learner_flagged (learner_id, flagged, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (learner_id) DO UPDATE SET
			flagged = excluded.flagged,
			updated_at = excluded.updated_at
	`, learnerID, string(raw))
	if err != nil {
		return fmt.Errorf("save flagged: %w", err)
	}
	return nil
}

// DeleteLearner removes both documents of the learner in one transaction.
func (s *Store) DeleteLearner(ctx context.Context, learnerID string) error {
	return s.withinTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM learner_completions WHERE learner_id = ?`, learnerID); err != nil {
			return fmt.Errorf("delete learner_completions: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM learner_flagged WHERE learner_id = ?`, learnerID); err != nil {
			return fmt.Errorf("delete learner_flagged: %w", err)
		}
		return nil
	})
}
