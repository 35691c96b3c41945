package rounds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/feudcast/feudcast/internal/models"
	"github.com/feudcast/feudcast/internal/store"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx so repository methods can
// run standalone or inside a transaction.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository implements the navigator Store against Postgres.
type Repository struct {
	db *sql.DB
	q  dbtx
}

// NewRepository creates a new session-question repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, q: db}
}

// WithinTx runs fn against a transaction-bound copy of the repository.
func (r *Repository) WithinTx(ctx context.Context, fn func(Store) error) error {
	return store.RunTx(ctx, r.db, func(tx *sql.Tx) error {
		return fn(&Repository{db: r.db, q: tx})
	})
}

const sqColumns = `id, session_id, question_id, round_number, is_current,
	fm_index, reveal_question, fm_reveal_question`

// CurrentQuestion returns the row marked current for a session, or
// ErrNoCurrentQuestion when none is.
func (r *Repository) CurrentQuestion(ctx context.Context, sessionID uuid.UUID) (*models.SessionQuestion, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+sqColumns+` FROM session_questions
		 WHERE session_id = $1 AND is_current = TRUE LIMIT 1`, sessionID)
	sq, err := scanSessionQuestion(row)
	if errors.Is(err, errRowMissing) {
		return nil, ErrNoCurrentQuestion
	}
	return sq, err
}

// FindByRound resolves the single row for a normal round slot.
func (r *Repository) FindByRound(ctx context.Context, sessionID uuid.UUID, roundNumber int) (*models.SessionQuestion, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+sqColumns+` FROM session_questions
		 WHERE session_id = $1 AND round_number = $2 AND fm_index IS NULL`, sessionID, roundNumber)
	sq, err := scanSessionQuestion(row)
	if errors.Is(err, errRowMissing) {
		return nil, ErrRowNotFound
	}
	return sq, err
}

// FindFastMoney resolves the Fast Money row for the given sub-index.
func (r *Repository) FindFastMoney(ctx context.Context, sessionID uuid.UUID, fmIndex int) (*models.SessionQuestion, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+sqColumns+` FROM session_questions
		 WHERE session_id = $1 AND round_number = $2 AND fm_index = $3`,
		sessionID, models.RoundNumberFastMoney, fmIndex)
	sq, err := scanSessionQuestion(row)
	if errors.Is(err, errRowMissing) {
		return nil, ErrRowNotFound
	}
	return sq, err
}

// ListBySession returns all ten round slots of a session, normal rounds
// first, Fast Money slots in index order.
func (r *Repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.SessionQuestion, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+sqColumns+` FROM session_questions
		 WHERE session_id = $1
		 ORDER BY round_number ASC, fm_index ASC NULLS FIRST`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list session questions: %w", err)
	}
	defer rows.Close()

	var out []models.SessionQuestion
	for rows.Next() {
		var (
			sq      models.SessionQuestion
			fmIndex sql.NullInt32
		)
		if err := rows.Scan(&sq.ID, &sq.SessionID, &sq.QuestionID, &sq.RoundNumber,
			&sq.IsCurrent, &fmIndex, &sq.RevealQuestion, &sq.FMRevealQuestion); err != nil {
			return nil, fmt.Errorf("failed to scan session question: %w", err)
		}
		if fmIndex.Valid {
			idx := int(fmIndex.Int32)
			sq.FMIndex = &idx
		}
		out = append(out, sq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read session questions: %w", err)
	}
	return out, nil
}

// UnsetCurrent clears the current marker on whichever row holds it.
func (r *Repository) UnsetCurrent(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE session_questions SET is_current = FALSE
		 WHERE session_id = $1 AND is_current = TRUE`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to unset current row: %w", err)
	}
	return nil
}

// SetCurrent marks one row current.
func (r *Repository) SetCurrent(ctx context.Context, id uuid.UUID) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE session_questions SET is_current = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to set current row: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRowNotFound
	}
	return nil
}

// SetRevealQuestion sets the normal-round question reveal flag on one row.
func (r *Repository) SetRevealQuestion(ctx context.Context, id uuid.UUID, reveal bool) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE session_questions SET reveal_question = $2 WHERE id = $1`, id, reveal)
	if err != nil {
		return fmt.Errorf("failed to set reveal flag: %w", err)
	}
	return nil
}

// SetFastMoneyReveal sets the Fast Money question reveal flag on one row.
func (r *Repository) SetFastMoneyReveal(ctx context.Context, id uuid.UUID, reveal bool) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE session_questions SET fm_reveal_question = $2 WHERE id = $1`, id, reveal)
	if err != nil {
		return fmt.Errorf("failed to set fast money reveal flag: %w", err)
	}
	return nil
}

// SetCurrentNormalReveal toggles the reveal flag on the current row,
// guarded to rounds 1-5 so Fast Money rows are never touched.
func (r *Repository) SetCurrentNormalReveal(ctx context.Context, sessionID uuid.UUID, reveal bool) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE session_questions SET reveal_question = $2
		 WHERE session_id = $1 AND is_current = TRUE AND round_number <> $3`,
		sessionID, reveal, models.RoundNumberFastMoney)
	if err != nil {
		return fmt.Errorf("failed to set current reveal flag: %w", err)
	}
	return nil
}

// SetRoundLabel writes the denormalized round projection on the session row.
func (r *Repository) SetRoundLabel(ctx context.Context, sessionID uuid.UUID, label models.RoundLabel) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE game_sessions SET round = $2 WHERE id = $1`, sessionID, string(label))
	if err != nil {
		return fmt.Errorf("failed to set round label: %w", err)
	}
	return nil
}

// ResetAnswers hides every answer of one question.
func (r *Repository) ResetAnswers(ctx context.Context, questionID uuid.UUID) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE answers SET revealed = FALSE WHERE question_id = $1`, questionID)
	if err != nil {
		return fmt.Errorf("failed to reset answers: %w", err)
	}
	return nil
}

// ResetAllAnswers hides every answer across all questions. Part of the
// full-session reset, which rewrites rows in place.
func (r *Repository) ResetAllAnswers(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `UPDATE answers SET revealed = FALSE`)
	if err != nil {
		return fmt.Errorf("failed to reset all answers: %w", err)
	}
	return nil
}

// ResetStrikes zeroes the session's strike count.
func (r *Repository) ResetStrikes(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE game_sessions SET strikes = 0 WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to reset strikes: %w", err)
	}
	return nil
}

// ResetQuestionFlags clears the current marker and both reveal flags on
// every row of a session.
func (r *Repository) ResetQuestionFlags(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE session_questions
		 SET is_current = FALSE, reveal_question = FALSE, fm_reveal_question = FALSE
		 WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to reset question flags: %w", err)
	}
	return nil
}

// BlankFastMoneyResponses rewrites every Fast Money response of a session
// to blank defaults.
func (r *Repository) BlankFastMoneyResponses(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE fast_money_responses
		 SET answer_text = '', matched_answer_id = NULL, points_awarded = 0,
		     reveal_answer = FALSE, reveal_points = FALSE
		 WHERE session_id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to blank fast money responses: %w", err)
	}
	return nil
}

// ResetSessionFields rewrites the session row to its initial state.
func (r *Repository) ResetSessionFields(ctx context.Context, sessionID uuid.UUID) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE game_sessions SET team1_score = 0, team2_score = 0, strikes = 0,
		 active_team = 1, round = $2, fm_hide_p1 = FALSE,
		 fm_timer_running = FALSE, fm_timer_started_at = NULL,
		 fm_timer_duration = fast_money_seconds
		 WHERE id = $1`, sessionID, string(models.RoundLabelRound1))
	if err != nil {
		return fmt.Errorf("failed to reset session fields: %w", err)
	}
	return nil
}

// Session reads the fields finalization needs from the session row.
func (r *Repository) Session(ctx context.Context, sessionID uuid.UUID) (*models.GameSession, error) {
	var (
		s          models.GameSession
		activeTeam int
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT id, team1_name, team2_name, team1_score, team2_score, active_team, round, strikes
		 FROM game_sessions WHERE id = $1`, sessionID).
		Scan(&s.ID, &s.Team1Name, &s.Team2Name, &s.Team1Score, &s.Team2Score,
			&activeTeam, &s.Round, &s.Strikes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	s.ActiveTeam = models.Team(activeTeam)
	return &s, nil
}

// RevealedPoints returns the revealed answers' point values for a question.
func (r *Repository) RevealedPoints(ctx context.Context, questionID uuid.UUID) ([]int, error) {
	rows, err := r.q.QueryContext(ctx,
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

// AddTeamScore adds points to one team's score and returns the new total.
func (r *Repository) AddTeamScore(ctx context.Context, sessionID uuid.UUID, team models.Team, points int) (int, error) {
	col := "team1_score"
	if team == models.Team2 {
		col = "team2_score"
	}
	var score int
	err := r.q.QueryRowContext(ctx,
		`UPDATE game_sessions SET `+col+` = `+col+` + $2
		 WHERE id = $1 RETURNING `+col, sessionID, points).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrRowNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add team score: %w", err)
	}
	return score, nil
}

var errRowMissing = errors.New("row missing")

func scanSessionQuestion(row *sql.Row) (*models.SessionQuestion, error) {
	var (
		sq      models.SessionQuestion
		fmIndex sql.NullInt32
	)
	err := row.Scan(&sq.ID, &sq.SessionID, &sq.QuestionID, &sq.RoundNumber,
		&sq.IsCurrent, &fmIndex, &sq.RevealQuestion, &sq.FMRevealQuestion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errRowMissing
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session question: %w", err)
	}
	if fmIndex.Valid {
		idx := int(fmIndex.Int32)
		sq.FMIndex = &idx
	}
	return &sq, nil
}
