package service

import (
	"slices"
	"strings"

	"github.com/aliskhannn/certprep/internal/domain/entities"
)

// ReviewItem is one question of a finished attempt.
type ReviewItem struct {
	Index      int
	Question   entities.Question
	Selected   int // entities.Unanswered if skipped
	Correct    bool
	Flagged    bool
	Bookmarked bool
}

// DomainResult aggregates an attempt by exam blueprint domain.
type DomainResult struct {
	Domain     string
	Total      int
	Correct    int
	Percentage int
}

// ExamReview is the post-submission breakdown of an attempt.
type ExamReview struct {
	SessionID         string
	CertificationCode string
	QuizID            string
	Score             int
	Answered          int
	Items             []ReviewItem
	Domains           []DomainResult // sorted by domain name
}

// Review builds the breakdown of the completed active session.
func (s *ExamService) Review() (*ExamReview, error) {
	es := s.Snapshot()
	if es == nil {
		return nil, ErrNoActiveSession
	}
	if es.Status != entities.ExamCompleted {
		return nil, ErrSessionNotCompleted
	}
	return BuildReview(es), nil
}

// BuildReview derives an ExamReview from a completed session.
func BuildReview(es *entities.ExamSession) *ExamReview {
	review := &ExamReview{
		SessionID:         es.ID,
		CertificationCode: es.CertificationCode,
		QuizID:            es.QuizID,
		Score:             es.Score,
		Answered:          es.AnsweredCount(),
		Items:             make([]ReviewItem, 0, len(es.Questions)),
	}

	byDomain := make(map[string]*DomainResult)
	for i, q := range es.Questions {
		_, flagged := es.Flagged[i]
		_, bookmarked := es.Bookmarked[i]
		correct := es.Answers[i] != entities.Unanswered && es.Answers[i] == q.CorrectIndex

		review.Items = append(review.Items, ReviewItem{
			Index:      i,
			Question:   q,
			Selected:   es.Answers[i],
			Correct:    correct,
			Flagged:    flagged,
			Bookmarked: bookmarked,
		})

		d, ok := byDomain[q.Domain]
		if !ok {
			d = &DomainResult{Domain: q.Domain}
			byDomain[q.Domain] = d
		}
		d.Total++
		if correct {
			d.Correct++
		}
	}

	for _, d := range byDomain {
		d.Percentage = Percentage(d.Correct, d.Total)
		review.Domains = append(review.Domains, *d)
	}
	slices.SortFunc(review.Domains, func(a, b DomainResult) int {
		return strings.Compare(a.Domain, b.Domain)
	})

	return review
}
