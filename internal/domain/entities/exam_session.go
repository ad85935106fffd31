package entities

import (
	"errors"
	"slices"
	"time"
)

// Unanswered marks an answer slot the learner has not filled.
const Unanswered = -1

// ExamStatus is the lifecycle state of an exam session.
type ExamStatus string

const (
	ExamNotStarted ExamStatus = "not_started"
	ExamInProgress ExamStatus = "in_progress"
	ExamCompleted  ExamStatus = "completed"
)

var (
	ErrSessionNotInProgress = errors.New("exam session is not in progress")
	ErrOptionOutOfRange     = errors.New("option index out of range")
	ErrNoQuestions          = errors.New("exam session has no questions")
)

// ExamSession is one attempt at a quiz. It is owned by the active exam and
// discarded on exit or restart.
type ExamSession struct {
	ID                string // attempt ID, used for log correlation only
	CertificationCode string
	QuizID            string
	Questions         []Question
	CurrentIndex      int
	Answers           []int // len(Answers) == len(Questions), Unanswered if empty
	RemainingSeconds  int
	Flagged           map[int]struct{} // in-session flags, separate from FlaggedQuestion
	Bookmarked        map[int]struct{}
	Status            ExamStatus
	StartedAt         time.Time
	CompletedAt       *time.Time
	Score             int // valid once Status == ExamCompleted
}

// NewExamSession creates an in-progress session over questions with every
// answer unanswered and the timer set to durationMinutes.
func NewExamSession(id, certCode, quizID string, questions []Question, durationMinutes int, now time.Time) (*ExamSession, error) {
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	answers := make([]int, len(questions))
	for i := range answers {
		answers[i] = Unanswered
	}

	return &ExamSession{
		ID:                id,
		CertificationCode: certCode,
		QuizID:            quizID,
		Questions:         questions,
		Answers:           answers,
		RemainingSeconds:  durationMinutes * 60,
		Flagged:           make(map[int]struct{}),
		Bookmarked:        make(map[int]struct{}),
		Status:            ExamInProgress,
		StartedAt:         now,
	}, nil
}

// IsActive reports whether the session accepts answers.
func (s *ExamSession) IsActive() bool {
	return s.Status == ExamInProgress
}

// CurrentQuestion returns the question at CurrentIndex.
func (s *ExamSession) CurrentQuestion() Question {
	return s.Questions[s.CurrentIndex]
}

// SelectAnswer records optionIndex for the current question. Selecting the
// same option again is a no-op; the index is not advanced.
func (s *ExamSession) SelectAnswer(optionIndex int) error {
	if !s.IsActive() {
		return ErrSessionNotInProgress
	}
	if optionIndex < 0 || optionIndex >= len(s.CurrentQuestion().Options) {
		return ErrOptionOutOfRange
	}
	s.Answers[s.CurrentIndex] = optionIndex
	return nil
}

// Next moves to the following question. No-op on the last one.
func (s *ExamSession) Next() {
	if s.IsActive() && s.CurrentIndex < len(s.Questions)-1 {
		s.CurrentIndex++
	}
}

// Previous moves to the preceding question. No-op on the first one.
func (s *ExamSession) Previous() {
	if s.IsActive() && s.CurrentIndex > 0 {
		s.CurrentIndex--
	}
}

// GoTo jumps to question index i if it is in range.
func (s *ExamSession) GoTo(i int) {
	if s.IsActive() && i >= 0 && i < len(s.Questions) {
		s.CurrentIndex = i
	}
}

// ToggleFlag flips the in-session flag on the current question and returns
// the new state.
func (s *ExamSession) ToggleFlag() bool {
	return toggle(s.Flagged, s.CurrentIndex)
}

// ToggleBookmark flips the bookmark on the current question and returns
// the new state.
func (s *ExamSession) ToggleBookmark() bool {
	return toggle(s.Bookmarked, s.CurrentIndex)
}

func toggle(set map[int]struct{}, i int) bool {
	if _, ok := set[i]; ok {
		delete(set, i)
		return false
	}
	set[i] = struct{}{}
	return true
}

// Tick takes one second off the clock and reports whether time ran out.
func (s *ExamSession) Tick() (expired bool) {
	if !s.IsActive() {
		return false
	}
	if s.RemainingSeconds > 0 {
		s.RemainingSeconds--
	}
	return s.RemainingSeconds == 0
}

// Complete freezes the session with the given score.
func (s *ExamSession) Complete(score int, now time.Time) {
	s.Status = ExamCompleted
	s.Score = score
	s.CompletedAt = &now
}

// AnsweredCount returns how many questions have an answer.
func (s *ExamSession) AnsweredCount() int {
	n := 0
	for _, a := range s.Answers {
		if a != Unanswered {
			n++
		}
	}
	return n
}

// Clone returns a deep copy that shares only the immutable questions.
func (s *ExamSession) Clone() *ExamSession {
	c := *s
	c.Answers = slices.Clone(s.Answers)
	c.Flagged = cloneSet(s.Flagged)
	c.Bookmarked = cloneSet(s.Bookmarked)
	if s.CompletedAt != nil {
		t := *s.CompletedAt
		c.CompletedAt = &t
	}
	return &c
}

func cloneSet(src map[int]struct{}) map[int]struct{} {
	dst := make(map[int]struct{}, len(src))
	for k := range src {
		dst[k] = struct{}{}
	}
	return dst
}

// SortedIndices returns the members of set in ascending order.
func SortedIndices(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
