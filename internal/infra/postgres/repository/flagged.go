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

// FlaggedRepository stores each learner's flag list as one JSONB array.
type FlaggedRepository struct {
	db postgres.DBTX
}

// NewFlaggedRepository creates a new FlaggedRepository.
func NewFlaggedRepository(db postgres.DBTX) *FlaggedRepository {
	return &FlaggedRepository{db: db}
}

// LoadFlagged returns the learner's flags in flag order, empty if none.
func (r *FlaggedRepository) LoadFlagged(ctx context.Context, learnerID string) ([]entities.FlaggedQuestion, error) {
	query := `SELECT flagged FROM learner_flagged WHERE learner_id = $1`

	var raw []byte
	if err := r.db.QueryRow(ctx, query, learnerID).Scan(&raw); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return []entities.FlaggedQuestion{}, nil
		}
		return nil, fmt.Errorf("load flagged: %w", err)
	}

	var flagged []entities.FlaggedQuestion
	if err := json.Unmarshal(raw, &flagged); err != nil {
		return nil, fmt.Errorf("decode flagged: %w", err)
	}
	return flagged, nil
}

// SaveFlagged replaces the learner's flag list.
func (r *FlaggedRepository) SaveFlagged(ctx context.Context, learnerID string, flagged []entities.FlaggedQuestion) error {
	query := `
		INSERT INTO learner_flagged (learner_id, flagged, updated_at)
		VALUES ($1, $2::jsonb, NOW())
		ON CONFLICT (learner_id) DO UPDATE SET
			flagged = EXCLUDED.flagged,
			updated_at = EXCLUDED.updated_at
	`

	if flagged == nil {
		flagged = []entities.FlaggedQuestion{}
	}
	raw, err := json.Marshal(flagged)
	if err != nil {
		return fmt.Errorf("encode flagged: %w", err)
	}

	if _, err := r.db.Exec(ctx, query, learnerID, string(raw)); err != nil {
		return fmt.Errorf("save flagged: %w", err)
	}
	return nil
}
