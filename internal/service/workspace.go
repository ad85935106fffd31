package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/certprep/internal/domain/entities"
	applog "github.com/aliskhannn/certprep/internal/logger"
	"github.com/aliskhannn/certprep/internal/syncqueue"
)

const defaultFlushTimeout = 5 * time.Second

// WorkspaceDeps are the collaborators shared by every learner workspace.
type WorkspaceDeps struct {
	Questions     QuestionSource
	Completions   CompletionRepository
	Flagged       FlaggedRepository
	Accounts      AccountRepository
	Catalog       *CatalogService
	Retry         syncqueue.RetryConfig
	ReconcileSpec string        // cron spec for re-pushing failed syncs, "" disables
	FlushTimeout  time.Duration // how long Close waits for pending pushes
	Logger        *zap.Logger
}

// Workspace holds the state of one signed-in learner. It is created at
// sign-in by OpenWorkspace and torn down at sign-out by Close.
type Workspace struct {
	learnerID    string
	logger       *zap.Logger
	queue        *syncqueue.Queue
	catalog      *CatalogService
	accounts     AccountRepository
	flushTimeout time.Duration

	Completions *CompletionStore
	Flags       *FlagStore
	Exam        *ExamService

	mu     sync.Mutex
	cron   *cron.Cron
	closed bool
}

// OpenWorkspace signs learnerID in: it hydrates both stores from the remote
// store and starts the background sync worker. Hydration failures are
// logged and the learner starts with empty progress.
func OpenWorkspace(ctx context.Context, learnerID string, deps WorkspaceDeps) (*Workspace, error) {
	learnerID = strings.TrimSpace(learnerID)
	if learnerID == "" {
		return nil, ErrEmptyLearnerID
	}

	base := deps.Logger
	if base == nil {
		base = zap.NewNop()
	}
	// Stores tag their own entries with learner_id.
	logger := applog.ForLearner(base, learnerID)

	flushTimeout := deps.FlushTimeout
	if flushTimeout <= 0 {
		flushTimeout = defaultFlushTimeout
	}

	queue := syncqueue.New(deps.Retry, logger)
	completions := NewCompletionStore(learnerID, deps.Completions, queue, base)
	flags := NewFlagStore(learnerID, deps.Flagged, queue, base)

	w := &Workspace{
		learnerID:    learnerID,
		logger:       logger,
		queue:        queue,
		catalog:      deps.Catalog,
		accounts:     deps.Accounts,
		flushTimeout: flushTimeout,
		Completions:  completions,
		Flags:        flags,
		Exam:         NewExamService(deps.Questions, completions, logger),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_ = completions.Hydrate(gctx)
		return nil
	})
	g.Go(func() error {
		_ = flags.Hydrate(gctx)
		return nil
	})
	_ = g.Wait()

	// The worker outlives the sign-in request.
	queue.Start(context.WithoutCancel(ctx))

	if deps.ReconcileSpec != "" {
		if err := w.startReconciler(deps.ReconcileSpec); err != nil {
			queue.Stop()
			return nil, err
		}
	}

	logger.Info("learner workspace opened")
	return w, nil
}

// LearnerID returns the identity the workspace is partitioned by.
func (w *Workspace) LearnerID() string {
	return w.learnerID
}

// Certifications lists every certification the learner can study.
func (w *Workspace) Certifications() []*entities.Certification {
	return w.catalog.Certifications()
}

// Certification resolves certCode case-insensitively.
func (w *Workspace) Certification(certCode string) (*entities.Certification, error) {
	return w.catalog.Certification(certCode)
}

// Catalog returns the quiz list of certCode with the learner's results.
func (w *Workspace) Catalog(ctx context.Context, certCode string) ([]entities.QuizCatalogEntry, error) {
	cert, err := w.catalog.Certification(certCode)
	if err != nil {
		return nil, err
	}
	return w.catalog.Build(ctx, cert.Code, w.Completions.ForCertification(cert.Code))
}

// Progress returns completion of certCode's whole catalog.
func (w *Workspace) Progress(certCode string) (entities.Progress, error) {
	cert, err := w.catalog.Certification(certCode)
	if err != nil {
		return entities.Progress{}, err
	}
	return w.Completions.GetProgress(cert.Code, cert.TotalQuizzes()), nil
}

// OverallProgress returns completion across every certification.
func (w *Workspace) OverallProgress() entities.Progress {
	return w.Completions.OverallProgress(w.catalog.Certifications())
}

// StartQuiz starts a catalog quiz with its catalog duration.
func (w *Workspace) StartQuiz(ctx context.Context, certCode, quizID string) (*entities.ExamSession, error) {
	if err := w.checkOpen(); err != nil {
		return nil, err
	}

	cert, err := w.catalog.Certification(certCode)
	if err != nil {
		return nil, err
	}
	minutes, err := w.catalog.DurationMinutes(cert.Code, quizID)
	if err != nil {
		return nil, err
	}
	return w.Exam.Start(ctx, cert.Code, quizID, minutes)
}

// FlagCurrentQuestion toggles the persisted flag of the question the active
// exam is showing and returns the new state.
func (w *Workspace) FlagCurrentQuestion() (bool, error) {
	es := w.Exam.Snapshot()
	if es == nil {
		return false, ErrNoActiveSession
	}
	return w.Flags.ToggleQuestion(es.CertificationCode, es.QuizID, es.CurrentQuestion()), nil
}

// DeleteAccount removes every remote document of the learner and clears
// local state. Pending pushes are dropped so they cannot recreate the
// documents afterwards. Progress recorded while the delete is running is
// kept and pushed once the old documents are gone.
func (w *Workspace) DeleteAccount(ctx context.Context) error {
	if err := w.checkOpen(); err != nil {
		return err
	}

	w.Exam.Reset()
	w.queue.Stop()
	w.Completions.Clear()
	w.Flags.Clear()
	dropped := w.queue.Discard()

	err := w.accounts.DeleteLearner(ctx, w.learnerID)

	// Anything enqueued during the delete snapshots lazily, so dropping it
	// and pushing again loses nothing and cannot run before the delete.
	dropped += w.queue.Discard()
	completions := w.Completions.pushIfNotEmpty()
	flags := w.Flags.pushIfNotEmpty()
	w.queue.Start(context.WithoutCancel(ctx))

	if err != nil {
		return fmt.Errorf("delete learner: %w", err)
	}

	w.logger.Info("learner account deleted",
		zap.Int("dropped_sync_tasks", dropped),
		zap.Bool("repushed_completions", completions),
		zap.Bool("repushed_flagged", flags),
	)
	return nil
}

// Close signs the learner out. An active exam is abandoned without a
// record and pending pushes get up to the flush timeout to finish. Store
// mutations after Close are dropped with a warning.
func (w *Workspace) Close(ctx context.Context) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	c := w.cron
	w.cron = nil
	w.mu.Unlock()

	w.Exam.Exit()
	if c != nil {
		<-c.Stop().Done()
	}
	w.Completions.markClosed()
	w.Flags.markClosed()

	ctx, cancel := context.WithTimeout(ctx, w.flushTimeout)
	defer cancel()

	if err := w.queue.Close(ctx); err != nil {
		w.logger.Warn("sign-out flush incomplete",
			zap.Int("pending", w.queue.Pending()),
			zap.Error(err),
		)
		return fmt.Errorf("flush pending sync: %w", err)
	}

	w.logger.Info("learner workspace closed")
	return nil
}

func (w *Workspace) checkOpen() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return ErrWorkspaceClosed
	}
	return nil
}
