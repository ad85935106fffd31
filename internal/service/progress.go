package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/aliskhannn/certprep/internal/domain/entities"
	"github.com/aliskhannn/certprep/internal/syncqueue"
)

const documentCompletions = "completions"

// CompletionStore caches a learner's completion records and mirrors them to
// the remote store. Local writes are applied first and never rolled back;
// every mutation pushes the whole map as a replace-all write.
type CompletionStore struct {
	learnerID string
	repo      CompletionRepository
	queue     SyncQueue
	logger    *zap.Logger

	mu          sync.RWMutex
	completions entities.Completions
	dirty       bool // last push failed
	closed      bool // learner signed out, mutations are rejected
}

// NewCompletionStore creates an empty store for learnerID.
func NewCompletionStore(learnerID string, repo CompletionRepository, queue SyncQueue, logger *zap.Logger) *CompletionStore {
	return &CompletionStore{
		learnerID:   learnerID,
		repo:        repo,
		queue:       queue,
		logger:      logger,
		completions: make(entities.Completions),
	}
}

// Hydrate replaces the cache with the remote document. On failure the cache
// is left empty and a *SyncReadError is returned for logging only.
func (s *CompletionStore) Hydrate(ctx context.Context) error {
	remote, err := s.repo.LoadCompletions(ctx, s.learnerID)
	if err != nil {
		s.logger.Warn("completions hydration failed, starting without progress",
			zap.String("learner_id", s.learnerID),
			zap.Error(err),
		)
		return &SyncReadError{Document: documentCompletions, LearnerID: s.learnerID, Err: err}
	}

	s.mu.Lock()
	s.completions = remote.Clone()
	s.dirty = false
	s.mu.Unlock()

	s.logger.Debug("completions hydrated",
		zap.String("learner_id", s.learnerID),
		zap.Int("certifications", len(remote)),
	)
	return nil
}

// RecordCompletion stores a completed record for (certCode, quizID),
// replacing any earlier attempt even if its score was higher, and schedules
// a remote push. After sign-out the record is returned but not stored.
func (s *CompletionStore) RecordCompletion(certCode, quizID string, score int) entities.CompletionRecord {
	rec := entities.NewCompletionRecord(certCode, quizID, score)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Warn("completion dropped",
			zap.String("learner_id", s.learnerID),
			zap.String("certification", certCode),
			zap.String("quiz_id", quizID),
			zap.Error(ErrWorkspaceClosed),
		)
		return rec
	}
	s.completions.Put(rec)
	// Enqueued under the lock so markClosed cannot slip in before the push.
	s.push()
	s.mu.Unlock()

	s.logger.Info("quiz completed",
		zap.String("learner_id", s.learnerID),
		zap.String("certification", certCode),
		zap.String("quiz_id", quizID),
		zap.Int("score", score),
	)
	return rec
}

// Get returns the record for (certCode, quizID).
func (s *CompletionStore) Get(certCode, quizID string) (entities.CompletionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completions.Get(certCode, quizID)
}

// Snapshot returns a copy of every cached record.
func (s *CompletionStore) Snapshot() entities.Completions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.completions.Clone()
}

// ForCertification returns a copy of the records of one certification.
func (s *CompletionStore) ForCertification(certCode string) map[string]entities.CompletionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]entities.CompletionRecord, len(s.completions[certCode]))
	for id, rec := range s.completions[certCode] {
		out[id] = rec
	}
	return out
}

// GetProgress reports how much of a totalQuizCount-sized catalog is done.
func (s *CompletionStore) GetProgress(certCode string, totalQuizCount int) entities.Progress {
	s.mu.RLock()
	completed := s.completions.CountCompleted(certCode)
	s.mu.RUnlock()

	completed = min(completed, max(totalQuizCount, 0))
	return entities.Progress{
		Completed:  completed,
		Total:      totalQuizCount,
		Percentage: Percentage(completed, totalQuizCount),
	}
}

// OverallProgress sums progress over every given certification.
func (s *CompletionStore) OverallProgress(certs []*entities.Certification) entities.Progress {
	var completed, total int
	for _, c := range certs {
		p := s.GetProgress(c.Code, c.TotalQuizzes())
		completed += p.Completed
		total += p.Total
	}
	return entities.Progress{
		Completed:  completed,
		Total:      total,
		Percentage: Percentage(completed, total),
	}
}

// Resync pushes again if the last push failed. It reports whether a push
// was scheduled.
func (s *CompletionStore) Resync() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty || s.closed {
		return false
	}
	s.push()
	return true
}

// Clear drops the cache without touching the remote store.
func (s *CompletionStore) Clear() {
	s.mu.Lock()
	s.completions = make(entities.Completions)
	s.dirty = false
	s.mu.Unlock()
}

// pushIfNotEmpty schedules a push when the cache holds any record.
func (s *CompletionStore) pushIfNotEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.completions) == 0 || s.closed {
		return false
	}
	s.push()
	return true
}

// markClosed makes every later mutation a no-op. Pushes enqueued before it
// returns are left to the sign-out flush.
func (s *CompletionStore) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *CompletionStore) push() {
	s.queue.Enqueue(syncqueue.Task{
		Key:    documentCompletions + ":" + s.learnerID,
		Run:    s.save,
		OnDone: s.markSynced,
	})
}

// save writes the latest snapshot, so a retried task never pushes stale data.
func (s *CompletionStore) save(ctx context.Context) error {
	if err := s.repo.SaveCompletions(ctx, s.learnerID, s.Snapshot()); err != nil {
		return &SyncWriteError{Document: documentCompletions, LearnerID: s.learnerID, Err: err}
	}
	return nil
}

func (s *CompletionStore) markSynced(err error) {
	s.mu.Lock()
	s.dirty = err != nil
	s.mu.Unlock()
}
