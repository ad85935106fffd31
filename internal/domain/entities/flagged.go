package entities

import "time"

// FlaggedQuestion is a question the learner bookmarked for later review.
// It carries enough of the question to be rendered without reloading the quiz.
type FlaggedQuestion struct {
	QuestionID        string    `json:"question_id"`
	CertificationCode string    `json:"certification_code"`
	QuizID            string    `json:"quiz_id"`
	QuestionText      string    `json:"question_text"`
	Options           []string  `json:"options"`
	CorrectAnswerText string    `json:"correct_answer_text"`
	FlaggedAt         time.Time `json:"flagged_at"`
}

// NewFlaggedQuestion builds a flag entry for q stamped with now.
func NewFlaggedQuestion(certCode, quizID string, q Question, now time.Time) FlaggedQuestion {
	opts := make([]string, len(q.Options))
	copy(opts, q.Options)

	return FlaggedQuestion{
		QuestionID:        q.ID,
		CertificationCode: certCode,
		QuizID:            quizID,
		QuestionText:      q.Prompt,
		Options:           opts,
		CorrectAnswerText: q.CorrectAnswer(),
		FlaggedAt:         now,
	}
}
