package storage

import (
	"context"
	"slices"
	"sync"

	"github.com/aliskhannn/certprep/internal/domain/entities"
)

// QuestionSource is the remote source the cache reads through to.
type QuestionSource interface {
	GetQuestions(ctx context.Context, certCode, quizID string) ([]entities.Question, error)
	CountQuestions(ctx context.Context, certCode, quizID string) (int, error)
}

type quizKey struct {
	certCode string
	quizID   string
}

// QuestionCache provides in-memory storage for quiz questions by
// certification and quiz. Questions are immutable once loaded, so a cached
// quiz is served until it is invalidated.
type QuestionCache struct {
	source QuestionSource

	mu        sync.RWMutex
	questions map[quizKey][]entities.Question
}

// NewQuestionCache creates an empty cache in front of source.
func NewQuestionCache(source QuestionSource) *QuestionCache {
	return &QuestionCache{
		source:    source,
		questions: make(map[quizKey][]entities.Question),
	}
}

// GetQuestions returns the cached quiz or loads it from the source. Errors
// and empty results are not cached.
func (c *QuestionCache) GetQuestions(ctx context.Context, certCode, quizID string) ([]entities.Question, error) {
	if qs, ok := c.get(certCode, quizID); ok {
		return qs, nil
	}

	qs, err := c.source.GetQuestions(ctx, certCode, quizID)
	if err != nil {
		return nil, err
	}
	if len(qs) > 0 {
		c.Store(certCode, quizID, qs)
	}
	return slices.Clone(qs), nil
}

// CountQuestions answers from the cache when the quiz is loaded.
func (c *QuestionCache) CountQuestions(ctx context.Context, certCode, quizID string) (int, error) {
	c.mu.RLock()
	qs, ok := c.questions[quizKey{certCode, quizID}]
	c.mu.RUnlock()
	if ok {
		return len(qs), nil
	}
	return c.source.CountQuestions(ctx, certCode, quizID)
}

// Store saves the questions of a quiz.
func (c *QuestionCache) Store(certCode, quizID string, questions []entities.Question) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.questions[quizKey{certCode, quizID}] = slices.Clone(questions)
}

// Delete forgets a quiz, e.g. after it was re-imported.
func (c *QuestionCache) Delete(certCode, quizID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.questions, quizKey{certCode, quizID})
}

func (c *QuestionCache) get(certCode, quizID string) ([]entities.Question, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	qs, ok := c.questions[quizKey{certCode, quizID}]
	if !ok {
		return nil, false
	}
	return slices.Clone(qs), true
}
