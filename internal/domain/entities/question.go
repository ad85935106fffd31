// Package entities contains domain entities used across the application.
package entities

// Difficulty is the authoring difficulty label of a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

const (
	MinOptions = 2
	MaxOptions = 6
)

// Question is a single multiple choice practice question.
// Questions are immutable once loaded from the question source.
type Question struct {
	ID           string     `json:"id"`
	Prompt       string     `json:"prompt"`        // question text shown to the learner
	Options      []string   `json:"options"`       // 2-6 answer options, in display order
	CorrectIndex int        `json:"correct_index"` // index into Options
	Explanation  string     `json:"explanation"`
	Domain       string     `json:"domain"` // exam blueprint domain, e.g. "Security"
	Difficulty   Difficulty `json:"difficulty"`
}

// CorrectAnswer returns the text of the correct option, or "" if the
// correct index does not point into Options.
func (q Question) CorrectAnswer() string {
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectIndex]
}

// Valid reports whether the question has a usable option list and a
// correct index inside it.
func (q Question) Valid() bool {
	if q.ID == "" || len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
		return false
	}
	return q.CorrectIndex >= 0 && q.CorrectIndex < len(q.Options)
}
