package service

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyLearnerID       = errors.New("learner id is required")
	ErrWorkspaceClosed      = errors.New("learner workspace is closed")
	ErrNoActiveSession      = errors.New("no active exam session")
	ErrSessionNotCompleted  = errors.New("exam session is not completed")
	ErrInvalidDuration      = errors.New("exam duration must be positive")
	ErrCertificationUnknown = errors.New("unknown certification")
)

// QuestionLoadError means the question source could not supply a quiz.
// The session stays NotStarted; the only recovery is to retry.
type QuestionLoadError struct {
	CertificationCode string
	QuizID            string
	Err               error // nil when the source returned no questions
}

func (e *QuestionLoadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("load questions for %s/%s: no questions", e.CertificationCode, e.QuizID)
	}
	return fmt.Sprintf("load questions for %s/%s: %v", e.CertificationCode, e.QuizID, e.Err)
}

func (e *QuestionLoadError) Unwrap() error { return e.Err }

// SyncWriteError is a failed push of a learner document to the remote store.
// It is logged and retried by the next mutation; local state is kept.
type SyncWriteError struct {
	Document  string // "completions" or "flagged"
	LearnerID string
	Err       error
}

func (e *SyncWriteError) Error() string {
	return fmt.Sprintf("sync %s for learner %s: %v", e.Document, e.LearnerID, e.Err)
}

func (e *SyncWriteError) Unwrap() error { return e.Err }

// SyncReadError is a failed hydration read. Callers treat it as "no
// progress yet".
type SyncReadError struct {
	Document  string
	LearnerID string
	Err       error
}

func (e *SyncReadError) Error() string {
	return fmt.Sprintf("hydrate %s for learner %s: %v", e.Document, e.LearnerID, e.Err)
}

func (e *SyncReadError) Unwrap() error { return e.Err }
