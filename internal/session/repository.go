package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/feudcast/feudcast/internal/models"
)

var (
	// ErrNoActiveSession is returned when zero or more than one session is
	// marked active. Screens treat it as "render nothing", not as fatal.
	ErrNoActiveSession = errors.New("no single active session")

	// ErrSessionNotFound is returned for lookups of a missing session id.
	ErrSessionNotFound = errors.New("session not found")
)

const sessionColumns = `id, team1_name, team2_name, team1_score, team2_score,
	active_team, strikes, strike_limit, status, round,
	fm_timer_running, fm_timer_started_at, fm_timer_duration,
	fast_money_seconds, fm_hide_p1, created_at`

// Repository implements game session data access.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new session repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ResolveActive returns the id of the single active session. Zero or
// multiple active rows both resolve to ErrNoActiveSession.
func (r *Repository) ResolveActive(ctx context.Context) (uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id FROM game_sessions WHERE status = $1 LIMIT 2`,
		models.SessionStatusActive)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to query active session: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return uuid.Nil, fmt.Errorf("failed to scan active session: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return uuid.Nil, fmt.Errorf("failed to read active sessions: %w", err)
	}
	if len(ids) != 1 {
		return uuid.Nil, ErrNoActiveSession
	}
	return ids[0], nil
}

// Get retrieves a session by id.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*models.GameSession, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM game_sessions WHERE id = $1`, id)
	return scanSession(row)
}

// AdjustScore applies a delta to one team's score, clamped at zero, and
// returns the new value. Last write wins under concurrent operators.
func (r *Repository) AdjustScore(ctx context.Context, id uuid.UUID, team models.Team, delta int) (int, error) {
	col := scoreColumn(team)
	var score int
	err := r.db.QueryRowContext(ctx,
		`UPDATE game_sessions SET `+col+` = GREATEST(0, `+col+` + $2)
		 WHERE id = $1 RETURNING `+col, id, delta).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrSessionNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to adjust team %d score: %w", team, err)
	}
	return score, nil
}

// SetActiveTeam hands control to the given team.
func (r *Repository) SetActiveTeam(ctx context.Context, id uuid.UUID, team models.Team) error {
	return r.exec(ctx, `UPDATE game_sessions SET active_team = $2 WHERE id = $1`, id, int(team))
}

// TransferControl flips the active team and returns the new holder.
func (r *Repository) TransferControl(ctx context.Context, id uuid.UUID) (models.Team, error) {
	var team int
	err := r.db.QueryRowContext(ctx,
		`UPDATE game_sessions SET active_team = CASE WHEN active_team = 1 THEN 2 ELSE 1 END
		 WHERE id = $1 RETURNING active_team`, id).Scan(&team)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrSessionNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to transfer control: %w", err)
	}
	return models.Team(team), nil
}

// SetStrikes sets the strike count, clamped to 0..strike_limit.
func (r *Repository) SetStrikes(ctx context.Context, id uuid.UUID, strikes int) (int, error) {
	var current int
	err := r.db.QueryRowContext(ctx,
		`UPDATE game_sessions SET strikes = LEAST(strike_limit, GREATEST(0, $2))
		 WHERE id = $1 RETURNING strikes`, id, strikes).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrSessionNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to set strikes: %w", err)
	}
	return current, nil
}

// AddStrike records a wrong answer, clamped at the strike limit.
func (r *Repository) AddStrike(ctx context.Context, id uuid.UUID) (int, error) {
	var current int
	err := r.db.QueryRowContext(ctx,
		`UPDATE game_sessions SET strikes = LEAST(strike_limit, strikes + 1)
		 WHERE id = $1 RETURNING strikes`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrSessionNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to add strike: %w", err)
	}
	return current, nil
}

// SetStrikeLimit updates the strike limit (typically 1-3).
func (r *Repository) SetStrikeLimit(ctx context.Context, id uuid.UUID, limit int) error {
	return r.exec(ctx, `UPDATE game_sessions SET strike_limit = $2 WHERE id = $1`, id, limit)
}

// SetTeamNames updates both display names.
func (r *Repository) SetTeamNames(ctx context.Context, id uuid.UUID, team1, team2 string) error {
	return r.exec(ctx,
		`UPDATE game_sessions SET team1_name = $2, team2_name = $3 WHERE id = $1`,
		id, team1, team2)
}

// SetHideP1 masks or unmasks player 1's column on the audience screen.
func (r *Repository) SetHideP1(ctx context.Context, id uuid.UUID, hide bool) error {
	return r.exec(ctx, `UPDATE game_sessions SET fm_hide_p1 = $2 WHERE id = $1`, id, hide)
}

// ToggleHideP1 flips the mask and returns the new value.
func (r *Repository) ToggleHideP1(ctx context.Context, id uuid.UUID) (bool, error) {
	var hide bool
	err := r.db.QueryRowContext(ctx,
		`UPDATE game_sessions SET fm_hide_p1 = NOT fm_hide_p1
		 WHERE id = $1 RETURNING fm_hide_p1`, id).Scan(&hide)
	if errors.Is(err, sql.ErrNoRows) {
		return false, ErrSessionNotFound
	}
	if err != nil {
		return false, fmt.Errorf("failed to toggle hide flag: %w", err)
	}
	return hide, nil
}

// StartTimer marks the countdown running from the given instant. The stored
// duration is left untouched so the timer resumes from where pause froze it.
func (r *Repository) StartTimer(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	return r.exec(ctx,
		`UPDATE game_sessions SET fm_timer_running = TRUE, fm_timer_started_at = $2
		 WHERE id = $1`, id, startedAt)
}

// SetTimer persists a Fast Money timer transition. startedAt is nil for
// pause and reset; duration is the remaining or target seconds.
func (r *Repository) SetTimer(ctx context.Context, id uuid.UUID, running bool, startedAt *time.Time, duration int) error {
	var ts sql.NullTime
	if startedAt != nil {
		ts = sql.NullTime{Time: *startedAt, Valid: true}
	}
	return r.exec(ctx,
		`UPDATE game_sessions SET fm_timer_running = $2, fm_timer_started_at = $3, fm_timer_duration = $4
		 WHERE id = $1`, id, running, ts, duration)
}

// SetTimerDuration updates both the remaining duration and the default.
func (r *Repository) SetTimerDuration(ctx context.Context, id uuid.UUID, seconds int) error {
	return r.exec(ctx,
		`UPDATE game_sessions SET fm_timer_duration = $2, fast_money_seconds = $2 WHERE id = $1`,
		id, seconds)
}

func (r *Repository) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func scoreColumn(team models.Team) string {
	if team == models.Team2 {
		return "team2_score"
	}
	return "team1_score"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.GameSession, error) {
	var (
		s         models.GameSession
		activeTeam int
		startedAt sql.NullTime
	)
	err := row.Scan(&s.ID, &s.Team1Name, &s.Team2Name, &s.Team1Score, &s.Team2Score,
		&activeTeam, &s.Strikes, &s.StrikeLimit, &s.Status, &s.Round,
		&s.FMTimerRunning, &startedAt, &s.FMTimerDuration,
		&s.FastMoneySeconds, &s.FMHideP1, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	s.ActiveTeam = models.Team(activeTeam)
	if startedAt.Valid {
		t := startedAt.Time
		s.FMTimerStartedAt = &t
	}
	return &s, nil
}
