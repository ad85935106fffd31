package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/aliskhannn/certprep/internal/domain/entities"
)

const defaultLookupConcurrency = 8

// QuizID returns the catalog ID of the n-th quiz (1-based).
func QuizID(n int) string {
	return strconv.Itoa(n)
}

// CatalogInput is everything BuildCatalog derives a catalog from.
type CatalogInput struct {
	Certification  entities.Certification
	Completions    map[string]entities.CompletionRecord // by quiz ID
	QuestionCounts map[string]int                       // by quiz ID, missing means 0
	Policy         entities.UnlockPolicy
}

// BuildCatalog lists the quizzes of a certification in order: practice
// quizzes first, final exams last. It has no side effects.
func BuildCatalog(in CatalogInput) []entities.QuizCatalogEntry {
	cert := in.Certification
	total := cert.TotalQuizzes()
	entries := make([]entities.QuizCatalogEntry, 0, total)

	prevCompleted := true
	for n := 1; n <= total; n++ {
		id := QuizID(n)
		entry := entities.QuizCatalogEntry{
			QuizID:          id,
			QuestionCount:   in.QuestionCounts[id],
			Kind:            entities.QuizPractice,
			Title:           fmt.Sprintf("Practice Quiz %d", n),
			DurationMinutes: entities.PracticeQuizMinutes,
		}

		if n > cert.PracticeQuizzes {
			entry.Kind = entities.QuizFinal
			entry.IsFinalExam = true
			entry.Title = fmt.Sprintf("Final Exam %d", n-cert.PracticeQuizzes)
			entry.DurationMinutes = cert.FinalExamMinutes
		}

		if rec, ok := in.Completions[id]; ok && rec.Completed {
			score := rec.Score
			entry.IsCompleted = true
			entry.Score = &score
		}

		if in.Policy == entities.UnlockSequential {
			entry.IsLocked = !prevCompleted
		}
		prevCompleted = entry.IsCompleted

		entries = append(entries, entry)
	}

	return entries
}

// CatalogService gathers the inputs of BuildCatalog.
type CatalogService struct {
	certs       CertificationRepository
	counter     QuestionCounter
	logger      *zap.Logger
	policy      entities.UnlockPolicy
	concurrency int
}

// NewCatalogService creates a catalog service. concurrency bounds parallel
// question-count lookups; values <= 0 use a default.
func NewCatalogService(
	certs CertificationRepository,
	counter QuestionCounter,
	policy entities.UnlockPolicy,
	concurrency int,
	logger *zap.Logger,
) *CatalogService {
	if concurrency <= 0 {
		concurrency = defaultLookupConcurrency
	}
	if policy == "" {
		policy = entities.UnlockOpen
	}
	return &CatalogService{
		certs:       certs,
		counter:     counter,
		logger:      logger,
		policy:      policy,
		concurrency: concurrency,
	}
}

// Certifications lists every known certification.
func (s *CatalogService) Certifications() []*entities.Certification {
	return s.certs.GetAll()
}

// Certification returns the metadata of certCode.
func (s *CatalogService) Certification(certCode string) (*entities.Certification, error) {
	cert, err := s.certs.GetByCode(certCode)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrCertificationUnknown, certCode, err)
	}
	return cert, nil
}

// Build returns the catalog of certCode for the given completion records.
// Question-count lookup failures show as 0 and never fail the build.
func (s *CatalogService) Build(ctx context.Context, certCode string, completions map[string]entities.CompletionRecord) ([]entities.QuizCatalogEntry, error) {
	cert, err := s.Certification(certCode)
	if err != nil {
		return nil, err
	}

	return BuildCatalog(CatalogInput{
		Certification:  *cert,
		Completions:    completions,
		QuestionCounts: s.questionCounts(ctx, cert),
		Policy:         s.policy,
	}), nil
}

// DurationMinutes returns the exam length of the n-th quiz of certCode.
func (s *CatalogService) DurationMinutes(certCode, quizID string) (int, error) {
	cert, err := s.Certification(certCode)
	if err != nil {
		return 0, err
	}

	n, err := strconv.Atoi(quizID)
	if err != nil || n < 1 || n > cert.TotalQuizzes() {
		return 0, fmt.Errorf("quiz %q is not in the %s catalog", quizID, certCode)
	}
	if n > cert.PracticeQuizzes {
		return cert.FinalExamMinutes, nil
	}
	return entities.PracticeQuizMinutes, nil
}

func (s *CatalogService) questionCounts(ctx context.Context, cert *entities.Certification) map[string]int {
	total := cert.TotalQuizzes()
	counts := make(map[string]int, total)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for n := 1; n <= total; n++ {
		id := QuizID(n)
		g.Go(func() error {
			count, err := s.counter.CountQuestions(gctx, cert.Code, id)
			if err != nil {
				s.logger.Warn("question count lookup failed",
					zap.String("certification", cert.Code),
					zap.String("quiz_id", id),
					zap.Error(err),
				)
				count = 0
			}

			mu.Lock()
			counts[id] = max(count, 0)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return counts
}
