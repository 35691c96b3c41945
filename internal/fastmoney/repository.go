package fastmoney

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/feudcast/feudcast/internal/models"
)

// Repository implements the engine Store against Postgres.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Fast Money response repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const responseColumns = `id, session_id, question_index, player_number, answer_text,
	matched_answer_id, points_awarded, reveal_answer, reveal_points`

// FindResponse loads the response row for a key, or ErrResponseNotFound.
func (r *Repository) FindResponse(ctx context.Context, key ResponseKey) (*models.FastMoneyResponse, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+responseColumns+` FROM fast_money_responses
		 WHERE session_id = $1 AND question_index = $2 AND player_number = $3`,
		key.SessionID, key.QuestionIndex, int(key.PlayerNumber))

	var (
		resp      models.FastMoneyResponse
		player    int
		matchedID uuid.NullUUID
	)
	err := row.Scan(&resp.ID, &resp.SessionID, &resp.QuestionIndex, &player,
		&resp.AnswerText, &matchedID, &resp.PointsAwarded,
		&resp.RevealAnswer, &resp.RevealPoints)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrResponseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan fast money response: %w", err)
	}
	resp.PlayerNumber = models.PlayerNumber(player)
	if matchedID.Valid {
		id := matchedID.UUID
		resp.MatchedAnswerID = &id
	}
	return &resp, nil
}

// InsertResponse creates a blank response row. A concurrent insert for the
// same key is a no-op thanks to the unique key on (session, index, player).
func (r *Repository) InsertResponse(ctx context.Context, resp *models.FastMoneyResponse) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO fast_money_responses
		 (id, session_id, question_index, player_number, answer_text,
		  matched_answer_id, points_awarded, reveal_answer, reveal_points)
		 VALUES ($1, $2, $3, $4, '', NULL, 0, FALSE, FALSE)
		 ON CONFLICT (session_id, question_index, player_number) DO NOTHING`,
		resp.ID, resp.SessionID, resp.QuestionIndex, int(resp.PlayerNumber))
	if err != nil {
		return fmt.Errorf("failed to insert fast money response: %w", err)
	}
	return nil
}

// SetAnswerText writes the operator's typed text for a slot.
func (r *Repository) SetAnswerText(ctx context.Context, key ResponseKey, text string) error {
	return r.update(ctx, key,
		`UPDATE fast_money_responses SET answer_text = $4
		 WHERE session_id = $1 AND question_index = $2 AND player_number = $3`, text)
}

// SetRevealAnswer shows the typed answer and records the matched bank entry.
func (r *Repository) SetRevealAnswer(ctx context.Context, key ResponseKey, matchedID *uuid.UUID) error {
	var id uuid.NullUUID
	if matchedID != nil {
		id = uuid.NullUUID{UUID: *matchedID, Valid: true}
	}
	return r.update(ctx, key,
		`UPDATE fast_money_responses SET reveal_answer = TRUE, matched_answer_id = $4
		 WHERE session_id = $1 AND question_index = $2 AND player_number = $3`, id)
}

// SetRevealPoints shows and records the awarded points for a slot.
func (r *Repository) SetRevealPoints(ctx context.Context, key ResponseKey, points int) error {
	return r.update(ctx, key,
		`UPDATE fast_money_responses SET reveal_points = TRUE, points_awarded = $4
		 WHERE session_id = $1 AND question_index = $2 AND player_number = $3`, points)
}

// SetRevealZero reveals both answer and points with zero awarded, clearing
// any recorded match.
func (r *Repository) SetRevealZero(ctx context.Context, key ResponseKey) error {
	return r.update(ctx, key,
		`UPDATE fast_money_responses
		 SET reveal_answer = TRUE, reveal_points = TRUE,
		     points_awarded = 0, matched_answer_id = NULL
		 WHERE session_id = $1 AND question_index = $2 AND player_number = $3`)
}

// BlankResponses rewrites every response of the session to blank defaults.
func (r *Repository) BlankResponses(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE fast_money_responses
		 SET answer_text = '', matched_answer_id = NULL, points_awarded = 0,
		     reveal_answer = FALSE, reveal_points = FALSE
		 WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to blank fast money responses: %w", err)
	}
	return nil
}

// ListResponses returns every response of a session in slot order.
func (r *Repository) ListResponses(ctx context.Context, sessionID uuid.UUID) ([]models.FastMoneyResponse, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+responseColumns+` FROM fast_money_responses
		 WHERE session_id = $1 ORDER BY question_index ASC, player_number ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list fast money responses: %w", err)
	}
	defer rows.Close()

	var out []models.FastMoneyResponse
	for rows.Next() {
		var (
			resp      models.FastMoneyResponse
			player    int
			matchedID uuid.NullUUID
		)
		if err := rows.Scan(&resp.ID, &resp.SessionID, &resp.QuestionIndex, &player,
			&resp.AnswerText, &matchedID, &resp.PointsAwarded,
			&resp.RevealAnswer, &resp.RevealPoints); err != nil {
			return nil, fmt.Errorf("failed to scan fast money response: %w", err)
		}
		resp.PlayerNumber = models.PlayerNumber(player)
		if matchedID.Valid {
			id := matchedID.UUID
			resp.MatchedAnswerID = &id
		}
		out = append(out, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read fast money responses: %w", err)
	}
	return out, nil
}

// AnswerBank returns the bank of the question assigned to a Fast Money slot,
// in rank order.
func (r *Repository) AnswerBank(ctx context.Context, sessionID uuid.UUID, questionIndex int) ([]models.Answer, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.question_id, a.answer_text, a.points, a."order", a.revealed
		 FROM answers a
		 JOIN session_questions sq ON sq.question_id = a.question_id
		 WHERE sq.session_id = $1 AND sq.round_number = $2 AND sq.fm_index = $3
		 ORDER BY a."order" ASC`,
		sessionID, models.RoundNumberFastMoney, questionIndex)
	if err != nil {
		return nil, fmt.Errorf("failed to load answer bank: %w", err)
	}
	defer rows.Close()

	var bank []models.Answer
	for rows.Next() {
		var a models.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Text, &a.Points, &a.Order, &a.Revealed); err != nil {
			return nil, fmt.Errorf("failed to scan bank answer: %w", err)
		}
		bank = append(bank, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read answer bank: %w", err)
	}
	return bank, nil
}

// RevealCurrentQuestion shows the current Fast Money question.
func (r *Repository) RevealCurrentQuestion(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE session_questions SET fm_reveal_question = TRUE
		 WHERE session_id = $1 AND is_current = TRUE AND round_number = $2`,
		sessionID, models.RoundNumberFastMoney)
	if err != nil {
		return fmt.Errorf("failed to reveal fast money question: %w", err)
	}
	return nil
}

// HideAllQuestions drops the current marker and reveal flag on every Fast
// Money row of the session. Part of the Fast Money reset.
func (r *Repository) HideAllQuestions(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE session_questions SET is_current = FALSE, fm_reveal_question = FALSE
		 WHERE session_id = $1 AND round_number = $2`,
		sessionID, models.RoundNumberFastMoney)
	if err != nil {
		return fmt.Errorf("failed to hide fast money questions: %w", err)
	}
	return nil
}

func (r *Repository) update(ctx context.Context, key ResponseKey, query string, args ...any) error {
	all := append([]any{key.SessionID, key.QuestionIndex, int(key.PlayerNumber)}, args...)
	res, err := r.db.ExecContext(ctx, query, all...)
	if err != nil {
		return fmt.Errorf("failed to update fast money response: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrResponseNotFound
	}
	return nil
}
