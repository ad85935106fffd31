package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aliskhannn/certprep/internal/domain/entities"
	"github.com/aliskhannn/certprep/internal/infra/postgres"
)

// QuestionRepository is the question source backed by the questions table.
type QuestionRepository struct {
	db postgres.DBTX
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(db postgres.DBTX) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// GetQuestions returns the questions of a quiz in position order. An
// unknown quiz yields an empty slice.
func (r *QuestionRepository) GetQuestions(ctx context.Context, certCode, quizID string) ([]entities.Question, error) {
	query := `
		SELECT question_id, prompt, options, correct_index, explanation, domain, difficulty
		FROM questions
		WHERE certification_code = $1 AND quiz_id = $2
		ORDER BY position
	`

	rows, err := r.db.Query(ctx, query, certCode, quizID)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	defer rows.Close()

	questions := make([]entities.Question, 0)
	for rows.Next() {
		var (
			q          entities.Question
			rawOptions []byte
			difficulty string
		)
		if err := rows.Scan(
			&q.ID, &q.Prompt, &rawOptions, &q.CorrectIndex,
			&q.Explanation, &q.Domain, &difficulty,
		); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(rawOptions, &q.Options); err != nil {
			return nil, fmt.Errorf("decode options of %s: %w", q.ID, err)
		}
		q.Difficulty = entities.Difficulty(difficulty)
		questions = append(questions, q)
	}

	return questions, rows.Err()
}

// CountQuestions returns the number of questions in a quiz.
func (r *QuestionRepository) CountQuestions(ctx context.Context, certCode, quizID string) (int, error) {
	query := `SELECT COUNT(*) FROM questions WHERE certification_code = $1 AND quiz_id = $2`

	var n int
	if err := r.db.QueryRow(ctx, query, certCode, quizID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

// ReplaceQuiz swaps the questions of a quiz for questions. Run it inside a
// transaction so readers never see a half-written quiz.
func (r *QuestionRepository) ReplaceQuiz(ctx context.Context, certCode, quizID string, questions []entities.Question) error {
	if _, err := r.db.Exec(ctx,
		`DELETE FROM questions WHERE certification_code = $1 AND quiz_id = $2`,
		certCode, quizID,
	); err != nil {
		return fmt.Errorf("delete quiz questions: %w", err)
	}

	query := `
		INSERT INTO questions (
			certification_code, quiz_id, position, question_id, prompt,
			options, correct_index, explanation, domain, difficulty
		) VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9, $10)
	`

	for i, q := range questions {
		rawOptions, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("encode options of %s: %w", q.ID, err)
		}
		if _, err := r.db.Exec(ctx, query,
			certCode, quizID, i, q.ID, q.Prompt,
			string(rawOptions), q.CorrectIndex, q.Explanation, q.Domain, string(q.Difficulty),
		); err != nil {
			return fmt.Errorf("insert question %s: %w", q.ID, err)
		}
	}

	return nil
}
