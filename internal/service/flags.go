package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/certprep/internal/domain/entities"
	"github.com/aliskhannn/certprep/internal/syncqueue"
)

const documentFlagged = "flagged"

// FlagStore keeps the learner's ordered list of flagged questions and
// mirrors it to the remote store with the same optimistic policy as
// CompletionStore.
type FlagStore struct {
	learnerID string
	repo      FlaggedRepository
	queue     SyncQueue
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.RWMutex
	flagged []entities.FlaggedQuestion
	dirty   bool
	closed  bool
}

// NewFlagStore creates an empty store for learnerID.
func NewFlagStore(learnerID string, repo FlaggedRepository, queue SyncQueue, logger *zap.Logger) *FlagStore {
	return &FlagStore{
		learnerID: learnerID,
		repo:      repo,
		queue:     queue,
		logger:    logger,
		now:       time.Now,
	}
}

// SetClock overrides the time source used to stamp new flags.
func (s *FlagStore) SetClock(now func() time.Time) {
	s.now = now
}

// Hydrate replaces the list with the remote document, dropping duplicate
// question IDs (first one wins).
func (s *FlagStore) Hydrate(ctx context.Context) error {
	remote, err := s.repo.LoadFlagged(ctx, s.learnerID)
	if err != nil {
		s.logger.Warn("flagged hydration failed, starting with no flags",
			zap.String("learner_id", s.learnerID),
			zap.Error(err),
		)
		return &SyncReadError{Document: documentFlagged, LearnerID: s.learnerID, Err: err}
	}

	seen := make(map[string]struct{}, len(remote))
	list := make([]entities.FlaggedQuestion, 0, len(remote))
	for _, f := range remote {
		if _, dup := seen[f.QuestionID]; dup {
			continue
		}
		seen[f.QuestionID] = struct{}{}
		list = append(list, f)
	}

	s.mu.Lock()
	s.flagged = list
	s.dirty = false
	s.mu.Unlock()
	return nil
}

// ToggleFlag unflags questionID if it is flagged, otherwise appends a new
// entry stamped with the current time. It returns the new flag state.
func (s *FlagStore) ToggleFlag(certCode, quizID, questionID, questionText string, options []string, correctAnswerText string) bool {
	return s.toggle(questionID, func(now time.Time) entities.FlaggedQuestion {
		return entities.FlaggedQuestion{
			QuestionID:        questionID,
			CertificationCode: certCode,
			QuizID:            quizID,
			QuestionText:      questionText,
			Options:           slices.Clone(options),
			CorrectAnswerText: correctAnswerText,
			FlaggedAt:         now,
		}
	})
}

// ToggleQuestion is ToggleFlag for a loaded question.
func (s *FlagStore) ToggleQuestion(certCode, quizID string, q entities.Question) bool {
	return s.toggle(q.ID, func(now time.Time) entities.FlaggedQuestion {
		return entities.NewFlaggedQuestion(certCode, quizID, q, now)
	})
}

func (s *FlagStore) toggle(questionID string, entry func(now time.Time) entities.FlaggedQuestion) bool {
	s.mu.Lock()
	idx := s.indexOf(questionID)
	if s.closed {
		s.mu.Unlock()
		s.rejected(questionID)
		return idx >= 0
	}
	if idx >= 0 {
		s.flagged = slices.Delete(s.flagged, idx, idx+1)
	} else {
		s.flagged = append(s.flagged, entry(s.now()))
	}
	s.push()
	s.mu.Unlock()

	flagged := idx < 0
	s.logger.Debug("question flag toggled",
		zap.String("learner_id", s.learnerID),
		zap.String("question_id", questionID),
		zap.Bool("flagged", flagged),
	)
	return flagged
}

// RemoveFlagged removes questionID regardless of any active session. It
// reports whether an entry was removed.
func (s *FlagStore) RemoveFlagged(questionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.rejected(questionID)
		return false
	}
	idx := s.indexOf(questionID)
	if idx < 0 {
		return false
	}
	s.flagged = slices.Delete(s.flagged, idx, idx+1)
	s.push()
	return true
}

func (s *FlagStore) rejected(questionID string) {
	s.logger.Warn("flag change dropped",
		zap.String("learner_id", s.learnerID),
		zap.String("question_id", questionID),
		zap.Error(ErrWorkspaceClosed),
	)
}

// IsFlagged reports whether questionID is in the list.
func (s *FlagStore) IsFlagged(questionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(questionID) >= 0
}

// GetFlaggedByCert returns the flags of one certification in flag order.
func (s *FlagStore) GetFlaggedByCert(certCode string) []entities.FlaggedQuestion {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]entities.FlaggedQuestion, 0)
	for _, f := range s.flagged {
		if f.CertificationCode == certCode {
			out = append(out, f)
		}
	}
	return out
}

// All returns a copy of the whole list.
func (s *FlagStore) All() []entities.FlaggedQuestion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.flagged)
}

// Resync pushes again if the last push failed.
func (s *FlagStore) Resync() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dirty || s.closed {
		return false
	}
	s.push()
	return true
}

// Clear drops the cached list without touching the remote store.
func (s *FlagStore) Clear() {
	s.mu.Lock()
	s.flagged = nil
	s.dirty = false
	s.mu.Unlock()
}

func (s *FlagStore) pushIfNotEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.flagged) == 0 || s.closed {
		return false
	}
	s.push()
	return true
}

// markClosed makes every later mutation a no-op.
func (s *FlagStore) markClosed() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// indexOf must be called with s.mu held.
func (s *FlagStore) indexOf(questionID string) int {
	return slices.IndexFunc(s.flagged, func(f entities.FlaggedQuestion) bool {
		return f.QuestionID == questionID
	})
}

func (s *FlagStore) push() {
	s.queue.Enqueue(syncqueue.Task{
		Key:    documentFlagged + ":" + s.learnerID,
		Run:    s.save,
		OnDone: s.markSynced,
	})
}

func (s *FlagStore) save(ctx context.Context) error {
	if err := s.repo.SaveFlagged(ctx, s.learnerID, s.All()); err != nil {
		return &SyncWriteError{Document: documentFlagged, LearnerID: s.learnerID, Err: err}
	}
	return nil
}

func (s *FlagStore) markSynced(err error) {
	s.mu.Lock()
	s.dirty = err != nil
	s.mu.Unlock()
}
