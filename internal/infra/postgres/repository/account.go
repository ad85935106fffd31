package repository

import (
	"context"
	"fmt"

	"github.com/aliskhannn/certprep/internal/infra/postgres"
)

// AccountRepository removes a learner's remote documents.
type AccountRepository struct {
	tr *postgres.Transactor
}

func NewAccountRepository(tr *postgres.Transactor) *AccountRepository {
	return &AccountRepository{tr: tr}
}

// DeleteLearner deletes the completion and flag documents in one transaction.
func (r *AccountRepository) DeleteLearner(ctx context.Context, learnerID string) error {
	return r.tr.WithinTx(ctx, func(ctx context.Context, db postgres.DBTX) error {
		if _, err := db.Exec(ctx, `DELETE FROM learner_completions WHERE learner_id = $1`, learnerID); err != nil {
			return fmt.Errorf("delete learner_completions: %w", err)
		}
		if _, err := db.Exec(ctx, `DELETE FROM learner_flagged WHERE learner_id = $1`, learnerID); err != nil {
			return fmt.Errorf("delete learner_flagged: %w", err)
		}
		return nil
	})
}
