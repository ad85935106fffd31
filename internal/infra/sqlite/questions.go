package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/aliskhannn/certprep/internal/domain/entities"
)

// GetQuestions returns the questions of a quiz in position order.
func (s *Store) GetQuestions(ctx context.Context, certCode, quizID string) ([]entities.Question, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT question_id, prompt, options, correct_index, explanation, domain, difficulty
		FROM questions
		WHERE certification_code = ? AND quiz_id = ?
		ORDER BY position
	`, certCode, quizID)
	if err != nil {
		return nil, fmt.Errorf("get questions: %w", err)
	}
	defer rows.Close()

	questions := make([]entities.Question, 0)
	for rows.Next() {
		var (
			q          entities.Question
			rawOptions string
			difficulty string
		)
		if err := rows.Scan(
			&q.ID, &q.Prompt, &rawOptions, &q.CorrectIndex,
			&q.Explanation, &q.Domain, &difficulty,
		); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(rawOptions), &q.Options); err != nil {
			return nil, fmt.Errorf("decode options of %s: %w", q.ID, err)
		}
		q.Difficulty = entities.Difficulty(difficulty)
		questions = append(questions, q)
	}

	return questions, rows.Err()
}

// CountQuestions returns the number of questions in a quiz.
func (s *Store) CountQuestions(ctx context.Context, certCode, quizID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM questions WHERE certification_code = ? AND quiz_id = ?`,
		certCode, quizID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

// ReplaceQuiz swaps the questions of a quiz atomically.
func (s *Store) ReplaceQuiz(ctx context.Context, certCode, quizID string, questions []entities.Question) error {
	return s.withinTx(ctx, func(tx *sql.Tx) error {
		return replaceQuiz(ctx, tx, certCode, quizID, questions)
	})
}

// ReplaceQuizzes swaps several quizzes of one certification in a single
// transaction: either every quiz is replaced or none is.
func (s *Store) ReplaceQuizzes(ctx context.Context, certCode string, quizzes map[string][]entities.Question) error {
	return s.withinTx(ctx, func(tx *sql.Tx) error {
		for _, quizID := range slices.Sorted(maps.Keys(quizzes)) {
			if err := replaceQuiz(ctx, tx, certCode, quizID, quizzes[quizID]); err != nil {
				return fmt.Errorf("quiz %s: %w", quizID, err)
			}
		}
		return nil
	})
}

func replaceQuiz(ctx context.Context, tx *sql.Tx, certCode, quizID string, questions []entities.Question) error {
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM questions WHERE certification_code = ? AND quiz_id = ?`,
		certCode, quizID,
	); err != nil {
		return fmt.Errorf("delete quiz questions: %w", err)
	}

	for i, q := range questions {
		rawOptions, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("encode options of %s: %w", q.ID, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO questions (
				certification_code, quiz_id, position, question_id, prompt,
				options, correct_index, explanation, domain, difficulty
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			certCode, quizID, i, q.ID, q.Prompt,
			string(rawOptions), q.CorrectIndex, q.Explanation, q.Domain, string(q.Difficulty),
		); err != nil {
			return fmt.Errorf("insert question %s: %w", q.ID, err)
		}
	}
	return nil
}
