package service

import (
	"context"

	"github.com/aliskhannn/certprep/internal/domain/entities"
	"github.com/aliskhannn/certprep/internal/syncqueue"
)

// QuestionSource returns the ordered questions of a quiz.
type QuestionSource interface {
	GetQuestions(ctx context.Context, certCode, quizID string) ([]entities.Question, error)
}

// QuestionCounter looks up how many questions a quiz has, for display only.
type QuestionCounter interface {
	CountQuestions(ctx context.Context, certCode, quizID string) (int, error)
}

// CompletionRepository is the remote document store for completion records.
// Load returns an empty map, not an error, when the learner has no document.
type CompletionRepository interface {
	LoadCompletions(ctx context.Context, learnerID string) (entities.Completions, error)
	SaveCompletions(ctx context.Context, learnerID string, completions entities.Completions) error
}

// FlaggedRepository is the remote document store for flagged questions.
type FlaggedRepository interface {
	LoadFlagged(ctx context.Context, learnerID string) ([]entities.FlaggedQuestion, error)
	SaveFlagged(ctx context.Context, learnerID string, flagged []entities.FlaggedQuestion) error
}

// AccountRepository removes every remote document of a learner.
type AccountRepository interface {
	DeleteLearner(ctx context.Context, learnerID string) error
}

// CertificationRepository serves static certification metadata.
type CertificationRepository interface {
	GetByCode(code string) (*entities.Certification, error)
	GetAll() []*entities.Certification
}

// CompletionRecorder accepts the record of a finished exam.
type CompletionRecorder interface {
	RecordCompletion(certCode, quizID string, score int) entities.CompletionRecord
}

// SyncQueue schedules background remote writes. Enqueue must not run the
// task before returning: stores call it with their lock held.
type SyncQueue interface {
	Enqueue(t syncqueue.Task) string
}
