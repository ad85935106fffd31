package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/certprep/internal/domain/entities"
	"github.com/aliskhannn/certprep/internal/infra/postgres"
)

// CompletionRepository stores each learner's completion map as one JSONB
// document. Writes replace the whole document.
type CompletionRepository struct {
	db postgres.DBTX
}

// NewCompletionRepository creates a new CompletionRepository.
func NewCompletionRepository(db postgres.DBTX) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// LoadCompletions returns the learner's completion map. A learner without a
// document gets an empty map.
func (r *CompletionRepository) LoadCompletions(ctx context.Context, learnerID string) (entities.Completions, error) {
	query := `
		SELECT completions
		FROM learner_completions
		WHERE learner_id = $1
	`

	var raw []byte
	err := r.db.QueryRow(ctx, query, learnerID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return make(entities.Completions), nil
		}
		return nil, fmt.Errorf("load completions: %w", err)
	}

	completions := make(entities.Completions)
	if err := json.Unmarshal(raw, &completions); err != nil {
		return nil, fmt.Errorf("decode completions: %w", err)
	}
	return completions, nil
}

// SaveCompletions replaces the learner's document with completions.
func (r *CompletionRepository) SaveCompletions(ctx context.Context, learnerID string, completions entities.Completions) error {
	query := `
		INSERT INTO learner_completions (learner_id, completions, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (learner_id) DO UPDATE SET
			completions = EXCLUDED.completions,
			updated_at = EXCLUDED.updated_at
	`

	raw, err := json.Marshal(completions)
	if err != nil {
		return fmt.Errorf("encode completions: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, learnerID, string(raw)); err != nil {
		return fmt.Errorf("save completions: %w", err)
	}
	return nil
}
