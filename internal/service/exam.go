package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/certprep/internal/domain/entities"
)

// Ticker is the part of time.Ticker the exam clock needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }

func (r realTicker) Stop() { r.t.Stop() }

func newRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// ExamService owns the single active exam session of a learner and its
// per-second clock. Every method except Start is an in-memory mutation.
type ExamService struct {
	source    QuestionSource
	recorder  CompletionRecorder
	logger    *zap.Logger
	newTicker TickerFactory
	now       func() time.Time

	mu        sync.Mutex
	session   *entities.ExamSession
	stopTimer func()
}

// NewExamService creates an exam service with no active session.
func NewExamService(source QuestionSource, recorder CompletionRecorder, logger *zap.Logger) *ExamService {
	return &ExamService{
		source:    source,
		recorder:  recorder,
		logger:    logger,
		newTicker: newRealTicker,
		now:       time.Now,
	}
}

// SetTickerFactory overrides how the exam clock is created.
func (s *ExamService) SetTickerFactory(f TickerFactory) {
	s.newTicker = f
}

// SetClock overrides the time source for session timestamps.
func (s *ExamService) SetClock(now func() time.Time) {
	s.now = now
}

// Start loads the quiz and begins a timed session. Any session still in
// progress is discarded first without recording a result. On a
// *QuestionLoadError no new session is created.
func (s *ExamService) Start(ctx context.Context, certCode, quizID string, durationMinutes int) (*entities.ExamSession, error) {
	if durationMinutes <= 0 {
		return nil, ErrInvalidDuration
	}

	questions, err := s.source.GetQuestions(ctx, certCode, quizID)
	if err != nil {
		return nil, &QuestionLoadError{CertificationCode: certCode, QuizID: quizID, Err: err}
	}
	questions = s.usableQuestions(certCode, quizID, questions)
	if len(questions) == 0 {
		return nil, &QuestionLoadError{CertificationCode: certCode, QuizID: quizID}
	}

	session, err := entities.NewExamSession(uuid.NewString(), certCode, quizID, questions, durationMinutes, s.now())
	if err != nil {
		return nil, &QuestionLoadError{CertificationCode: certCode, QuizID: quizID, Err: err}
	}

	s.mu.Lock()
	s.discardLocked("replaced by a new session")
	s.session = session
	s.startTimerLocked(session.ID)
	snapshot := session.Clone()
	s.mu.Unlock()

	s.logger.Info("exam session started",
		zap.String("session_id", session.ID),
		zap.String("certification", certCode),
		zap.String("quiz_id", quizID),
		zap.Int("questions", len(questions)),
		zap.Int("duration_minutes", durationMinutes),
	)
	return snapshot, nil
}

func (s *ExamService) usableQuestions(certCode, quizID string, questions []entities.Question) []entities.Question {
	out := make([]entities.Question, 0, len(questions))
	for _, q := range questions {
		if !q.Valid() {
			s.logger.Warn("skipping malformed question",
				zap.String("certification", certCode),
				zap.String("quiz_id", quizID),
				zap.String("question_id", q.ID),
			)
			continue
		}
		out = append(out, q)
	}
	return out
}

// SelectAnswer records optionIndex for the current question.
func (s *ExamService) SelectAnswer(optionIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return ErrNoActiveSession
	}
	return s.session.SelectAnswer(optionIndex)
}

// Next moves to the following question.
func (s *ExamService) Next() {
	s.withSession(func(es *entities.ExamSession) { es.Next() })
}

// Previous moves to the preceding question.
func (s *ExamService) Previous() {
	s.withSession(func(es *entities.ExamSession) { es.Previous() })
}

// GoTo jumps to question i.
func (s *ExamService) GoTo(i int) {
	s.withSession(func(es *entities.ExamSession) { es.GoTo(i) })
}

// ToggleFlag flips the in-session flag on the current question.
func (s *ExamService) ToggleFlag() (bool, error) {
	return s.toggle((*entities.ExamSession).ToggleFlag)
}

// ToggleBookmark flips the bookmark on the current question.
func (s *ExamService) ToggleBookmark() (bool, error) {
	return s.toggle((*entities.ExamSession).ToggleBookmark)
}

func (s *ExamService) toggle(fn func(*entities.ExamSession) bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return false, ErrNoActiveSession
	}
	if !s.session.IsActive() {
		return false, entities.ErrSessionNotInProgress
	}
	return fn(s.session), nil
}

func (s *ExamService) withSession(fn func(*entities.ExamSession)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session != nil {
		fn(s.session)
	}
}

// tick advances the clock of the active session by one second and submits
// it when time runs out. Only the session's own timer goroutine calls it;
// ticks addressed to a session that is no longer active are ignored. An
// empty sessionID targets whichever session is active.
func (s *ExamService) tick(sessionID string) {
	s.mu.Lock()
	es := s.session
	if es == nil || (sessionID != "" && es.ID != sessionID) || !es.Tick() {
		s.mu.Unlock()
		return
	}

	s.logger.Info("exam time expired, submitting",
		zap.String("session_id", es.ID),
		zap.Int("answered", es.AnsweredCount()),
		zap.Int("questions", len(es.Questions)),
	)
	rec, submitted := s.submitLocked()
	s.mu.Unlock()

	if submitted {
		s.record(rec)
	}
}

// Submit scores the active session, hands the result to the completion
// recorder and completes the session. Calling it again after completion
// returns the same record with submitted == false and records nothing.
func (s *ExamService) Submit() (rec entities.CompletionRecord, submitted bool, err error) {
	s.mu.Lock()
	if s.session == nil {
		s.mu.Unlock()
		return entities.CompletionRecord{}, false, ErrNoActiveSession
	}
	rec, submitted = s.submitLocked()
	s.mu.Unlock()

	if submitted {
		s.record(rec)
	}
	return rec, submitted, nil
}

func (s *ExamService) submitLocked() (entities.CompletionRecord, bool) {
	es := s.session
	if !es.IsActive() {
		return entities.NewCompletionRecord(es.CertificationCode, es.QuizID, es.Score), false
	}

	score := Score(es.Questions, es.Answers)
	es.Complete(score, s.now())
	s.stopTimerLocked()

	s.logger.Info("exam session submitted",
		zap.String("session_id", es.ID),
		zap.Int("score", score),
		zap.Int("answered", es.AnsweredCount()),
		zap.Int("remaining_seconds", es.RemainingSeconds),
	)
	return entities.NewCompletionRecord(es.CertificationCode, es.QuizID, score), true
}

func (s *ExamService) record(rec entities.CompletionRecord) {
	s.recorder.RecordCompletion(rec.CertificationCode, rec.QuizID, rec.Score)
}

// Exit abandons the active session. Nothing is recorded.
func (s *ExamService) Exit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discardLocked("exited")
}

// Reset returns to NotStarted with fresh state, whatever the current status.
func (s *ExamService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discardLocked("reset")
}

// Status returns the state of the active session, NotStarted if none.
func (s *ExamService) Status() entities.ExamStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return entities.ExamNotStarted
	}
	return s.session.Status
}

// Snapshot returns a copy of the active session, or nil.
func (s *ExamService) Snapshot() *entities.ExamSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil
	}
	return s.session.Clone()
}

func (s *ExamService) discardLocked(reason string) {
	if s.session == nil {
		return
	}
	s.stopTimerLocked()

	if s.session.IsActive() {
		s.logger.Info("exam session discarded",
			zap.String("session_id", s.session.ID),
			zap.String("reason", reason),
		)
	}
	s.session = nil
}

func (s *ExamService) startTimerLocked(sessionID string) {
	ctx, cancel := context.WithCancel(context.Background())
	t := s.newTicker(time.Second)
	s.stopTimer = func() {
		cancel()
		t.Stop()
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C():
				s.tick(sessionID)
			}
		}
	}()
}

// stopTimerLocked cancels the clock without waiting for its goroutine,
// which may itself be blocked on s.mu inside tick.
func (s *ExamService) stopTimerLocked() {
	if s.stopTimer != nil {
		s.stopTimer()
		s.stopTimer = nil
	}
}
