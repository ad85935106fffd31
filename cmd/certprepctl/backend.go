package main

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/aliskhannn/certprep/internal/config"
	"github.com/aliskhannn/certprep/internal/domain/entities"
	"github.com/aliskhannn/certprep/internal/infra/postgres"
	"github.com/aliskhannn/certprep/internal/infra/postgres/repository"
	"github.com/aliskhannn/certprep/internal/infra/sqlite"
	"github.com/aliskhannn/certprep/internal/logger"
	certrepo "github.com/aliskhannn/certprep/internal/repository"
	"github.com/aliskhannn/certprep/internal/service"
	"github.com/aliskhannn/certprep/internal/storage"
	"github.com/aliskhannn/certprep/internal/syncqueue"
)

// questionStore is a question source that can also be written to.
type questionStore interface {
	storage.QuestionSource
	ReplaceQuizzes(ctx context.Context, certCode string, quizzes map[string][]entities.Question) error
}

// backend is everything a command needs, opened from config.
type backend struct {
	cfg    *config.Config
	logger *zap.Logger

	questions   questionStore
	completions service.CompletionRepository
	flagged     service.FlaggedRepository
	accounts    service.AccountRepository
	migrate     func(ctx context.Context) error
	close       func()
}

func openBackend(ctx context.Context, configDir string) (*backend, error) {
	cfg, err := config.LoadFrom(configDir)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	b := &backend{cfg: cfg, logger: log}

	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		s, err := sqlite.Open(ctx, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		b.questions = s
		b.completions = s
		b.flagged = s
		b.accounts = s
		b.migrate = func(context.Context) error { return nil } // Open creates the schema
		b.close = func() { _ = s.Close() }

	default:
		dsn, err := cfg.Storage.DB.DSN()
		if err != nil {
			return nil, err
		}
		pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
			MaxConns:        int32(cfg.Storage.DB.MaxConnections),
			MaxConnLifetime: cfg.Storage.DB.MaxConnLifetime,
		})
		if err != nil {
			return nil, err
		}
		tr := postgres.NewTransactor(pool)

		b.questions = &txQuestionRepository{
			QuestionRepository: repository.NewQuestionRepository(pool),
			tr:                 tr,
		}
		b.completions = repository.NewCompletionRepository(pool)
		b.flagged = repository.NewFlaggedRepository(pool)
		b.accounts = repository.NewAccountRepository(tr)
		b.migrate = func(ctx context.Context) error { return postgres.Migrate(ctx, pool) }
		b.close = pool.Close
	}

	log.Debug("backend opened", zap.String("driver", cfg.Storage.Driver))
	return b, nil
}

// catalog loads the certification registry and builds a catalog service
// over the question store.
func (b *backend) catalog(counter service.QuestionCounter) (*service.CatalogService, error) {
	certs, err := certrepo.NewCertificationRepository(b.cfg.Catalog.MetadataPath)
	if err != nil {
		return nil, err
	}
	return service.NewCatalogService(
		certs,
		counter,
		entities.UnlockPolicy(b.cfg.Catalog.UnlockPolicy),
		b.cfg.Catalog.LookupConcurrency,
		b.logger,
	), nil
}

// openWorkspace signs learnerID in the same way a learner client does.
func (b *backend) openWorkspace(ctx context.Context, learnerID string) (*service.Workspace, error) {
	questions := storage.NewQuestionCache(b.questions)

	catalog, err := b.catalog(questions)
	if err != nil {
		return nil, err
	}

	return service.OpenWorkspace(ctx, learnerID, service.WorkspaceDeps{
		Questions:   questions,
		Completions: b.completions,
		Flagged:     b.flagged,
		Accounts:    b.accounts,
		Catalog:     catalog,
		Retry: syncqueue.RetryConfig{
			MaxAttempts: b.cfg.Sync.MaxAttempts,
			InitialWait: b.cfg.Sync.InitialWait,
			MaxWait:     b.cfg.Sync.MaxWait,
			Multiplier:  b.cfg.Sync.Multiplier,
		},
		ReconcileSpec: b.cfg.Sync.ReconcileSpec,
		FlushTimeout:  b.cfg.Sync.FlushTimeout,
		Logger:        b.logger,
	})
}

func (b *backend) Close() {
	_ = b.logger.Sync()
	b.close()
}

// txQuestionRepository replaces a whole question bank inside one
// transaction so a failed import leaves no quiz half-written.
type txQuestionRepository struct {
	*repository.QuestionRepository
	tr *postgres.Transactor
}

func (r *txQuestionRepository) ReplaceQuizzes(ctx context.Context, certCode string, quizzes map[string][]entities.Question) error {
	return r.tr.WithinTx(ctx, func(ctx context.Context, db postgres.DBTX) error {
		repo := repository.NewQuestionRepository(db)
		for _, quizID := range slices.Sorted(maps.Keys(quizzes)) {
			if err := repo.ReplaceQuiz(ctx, certCode, quizID, quizzes[quizID]); err != nil {
				return fmt.Errorf("quiz %s: %w", quizID, err)
			}
		}
		return nil
	})
}
