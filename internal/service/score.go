package service

import "github.com/aliskhannn/certprep/internal/domain/entities"

// Score returns round-half-up(100 * correct / total) for answers against
// questions. Unanswered slots never count as correct. An empty quiz scores 0.
func Score(questions []entities.Question, answers []int) int {
	correct := 0
	for i, q := range questions {
		if i < len(answers) && answers[i] != entities.Unanswered && answers[i] == q.CorrectIndex {
			correct++
		}
	}
	return Percentage(correct, len(questions))
}

// Percentage returns round-half-up(100 * part / whole), or 0 if whole <= 0.
func Percentage(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return (200*part + whole) / (2 * whole)
}
