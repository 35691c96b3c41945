package questions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/feudcast/feudcast/internal/models"
)

// ErrQuestionNotFound is returned for lookups of a missing question id.
var ErrQuestionNotFound = errors.New("question not found")

// Repository implements question and answer-bank data access.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new questions repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Get retrieves a question by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	var q models.Question
	err := r.db.QueryRowContext(ctx,
		`SELECT id, question_text, type FROM questions WHERE id = $1`, id).
		Scan(&q.ID, &q.Text, &q.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return &q, nil
}

// ListPools returns all questions grouped by round pool for the setup screen.
func (r *Repository) ListPools(ctx context.Context) (map[models.QuestionType][]models.Question, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, question_text, type FROM questions ORDER BY question_text`)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	pools := make(map[models.QuestionType][]models.Question)
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.Text, &q.Type); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		pools[q.Type] = append(pools[q.Type], q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read questions: %w", err)
	}
	return pools, nil
}

// ListAnswers returns a question's answer bank in rank order.
func (r *Repository) ListAnswers(ctx context.Context, questionID uuid.UUID) ([]models.Answer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, question_id, answer_text, points, "order", revealed
		 FROM answers WHERE question_id = $1 ORDER BY "order" ASC`, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	defer rows.Close()

	var answers []models.Answer
	for rows.Next() {
		var a models.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Text, &a.Points, &a.Order, &a.Revealed); err != nil {
			return nil, fmt.Errorf("failed to scan answer: %w", err)
		}
		answers = append(answers, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read answers: %w", err)
	}
	return answers, nil
}

// SetAnswerRevealed toggles one answer's reveal flag.
func (r *Repository) SetAnswerRevealed(ctx context.Context, answerID uuid.UUID, revealed bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE answers SET revealed = $2 WHERE id = $1`, answerID, revealed)
	if err != nil {
		return fmt.Errorf("failed to set answer reveal: %w", err)
	}
	return nil
}

// SetAllRevealed bulk reveals or hides every answer of one question.
func (r *Repository) SetAllRevealed(ctx context.Context, questionID uuid.UUID, revealed bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE answers SET revealed = $2 WHERE question_id = $1`, questionID, revealed)
	if err != nil {
		return fmt.Errorf("failed to bulk set answer reveal: %w", err)
	}
	return nil
}

// RevealedPoints returns the point values of the revealed answers for a
// question. Used by round finalization.
func (r *Repository) RevealedPoints(ctx context.Context, questionID uuid.UUID) ([]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT points FROM answers WHERE question_id = $1 AND revealed = TRUE`, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch revealed answers: %w", err)
	}
	defer rows.Close()

	var points []int
	for rows.Next() {
		var p int
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan answer points: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read answer points: %w", err)
	}
	return points, nil
}
