package setup

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/feudcast/feudcast/internal/models"
	"github.com/feudcast/feudcast/internal/store"
)

// ErrIncompleteSelection is returned when the operator has not assigned a
// question to every round slot.
var ErrIncompleteSelection = errors.New("every round slot needs a question")

// Defaults applied when the create request leaves a field zero.
const (
	DefaultStrikeLimit      = 3
	DefaultFastMoneySeconds = 60
)

// CreateSessionParams carries the operator's choices for a new game.
type CreateSessionParams struct {
	Team1Name        string
	Team2Name        string
	StrikeLimit      int
	FastMoneySeconds int

	// RoundQuestions assigns one question to each of rounds 1-5.
	RoundQuestions map[int]uuid.UUID

	// FastMoneyQuestions assigns the five Fast Money slots in order.
	FastMoneyQuestions []uuid.UUID
}

func (p *CreateSessionParams) validate() error {
	for round := 1; round <= models.RoundNumberSuddenDeath; round++ {
		if _, ok := p.RoundQuestions[round]; !ok {
			return fmt.Errorf("%w: round %d unassigned", ErrIncompleteSelection, round)
		}
	}
	if len(p.FastMoneyQuestions) != 5 {
		return fmt.Errorf("%w: need 5 fast money questions, got %d",
			ErrIncompleteSelection, len(p.FastMoneyQuestions))
	}
	return nil
}

// Service creates game sessions.
type Service struct {
	db *sql.DB
}

// NewService creates a setup service.
func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// CreateSession starts a new game: any previously active session is
// completed, the session row is inserted and all ten round slots are laid
// out with round 1 current and hidden. Everything runs in one transaction,
// so screens polling for the active session never see a half-built game.
func (s *Service) CreateSession(ctx context.Context, params CreateSessionParams) (uuid.UUID, error) {
	if err := params.validate(); err != nil {
		return uuid.Nil, err
	}
	if params.Team1Name == "" {
		params.Team1Name = "Team 1"
	}
	if params.Team2Name == "" {
		params.Team2Name = "Team 2"
	}
	if params.StrikeLimit <= 0 {
		params.StrikeLimit = DefaultStrikeLimit
	}
	if params.FastMoneySeconds <= 0 {
		params.FastMoneySeconds = DefaultFastMoneySeconds
	}

	sessionID := uuid.New()
	err := store.RunTx(ctx, s.db, func(tx *sql.Tx) error {
		// Retire whatever was active so the single-active invariant holds.
		if _, err := tx.ExecContext(ctx,
			`UPDATE game_sessions SET status = $1 WHERE status = $2`,
			models.SessionStatusCompleted, models.SessionStatusActive); err != nil {
			return fmt.Errorf("failed to retire active sessions: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO game_sessions
			 (id, team1_name, team2_name, team1_score, team2_score, active_team,
			  strikes, strike_limit, status, round,
			  fm_timer_running, fm_timer_started_at, fm_timer_duration,
			  fast_money_seconds, fm_hide_p1)
			 VALUES ($1, $2, $3, 0, 0, 1, 0, $4, $5, $6, FALSE, NULL, $7, $7, FALSE)`,
			sessionID, params.Team1Name, params.Team2Name, params.StrikeLimit,
			models.SessionStatusActive, string(models.RoundLabelRound1),
			params.FastMoneySeconds); err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}

		for round := 1; round <= models.RoundNumberSuddenDeath; round++ {
			questionID := params.RoundQuestions[round]
			if err := insertSlot(ctx, tx, sessionID, questionID, round, nil, round == 1); err != nil {
				return err
			}
		}
		for i, questionID := range params.FastMoneyQuestions {
			idx := i + 1
			if err := insertSlot(ctx, tx, sessionID, questionID,
				models.RoundNumberFastMoney, &idx, false); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("create session: %w", err)
	}

	log.Info().
		Str("session_id", sessionID.String()).
		Str("team1", params.Team1Name).
		Str("team2", params.Team2Name).
		Int("strike_limit", params.StrikeLimit).
		Msg("created game session")

	return sessionID, nil
}

func insertSlot(ctx context.Context, tx *sql.Tx, sessionID, questionID uuid.UUID, round int, fmIndex *int, current bool) error {
	var idx sql.NullInt32
	if fmIndex != nil {
		idx = sql.NullInt32{Int32: int32(*fmIndex), Valid: true}
	}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO session_questions
		 (id, session_id, question_id, round_number, is_current, fm_index,
		  reveal_question, fm_reveal_question)
		 VALUES ($1, $2, $3, $4, $5, $6, FALSE, FALSE)`,
		uuid.New(), sessionID, questionID, round, current, idx)
	if err != nil {
		return fmt.Errorf("failed to insert round slot %d: %w", round, err)
	}
	return nil
}
