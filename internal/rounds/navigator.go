package rounds

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/feudcast/feudcast/internal/models"
)

var (
	// ErrRowNotFound means the target session-question row does not exist.
	// Surfaced to the operator; never retried.
	ErrRowNotFound = errors.New("session question row not found")

	// ErrNoCurrentQuestion means no row is marked current for the session.
	ErrNoCurrentQuestion = errors.New("no current question")

	// ErrFastMoneyRound rejects operations that are disabled during Fast Money.
	ErrFastMoneyRound = errors.New("operation disabled during fast money")
)

// Store defines what the navigator needs from the game state store.
type Store interface {
	WithinTx(ctx context.Context, fn func(Store) error) error

	CurrentQuestion(ctx context.Context, sessionID uuid.UUID) (*models.SessionQuestion, error)
	FindByRound(ctx context.Context, sessionID uuid.UUID, roundNumber int) (*models.SessionQuestion, error)
	FindFastMoney(ctx context.Context, sessionID uuid.UUID, fmIndex int) (*models.SessionQuestion, error)
	UnsetCurrent(ctx context.Context, sessionID uuid.UUID) error
	SetCurrent(ctx context.Context, id uuid.UUID) error
	SetRevealQuestion(ctx context.Context, id uuid.UUID, reveal bool) error
	SetFastMoneyReveal(ctx context.Context, id uuid.UUID, reveal bool) error
	SetCurrentNormalReveal(ctx context.Context, sessionID uuid.UUID, reveal bool) error
	SetRoundLabel(ctx context.Context, sessionID uuid.UUID, label models.RoundLabel) error

	ResetAnswers(ctx context.Context, questionID uuid.UUID) error
	ResetAllAnswers(ctx context.Context) error
	ResetStrikes(ctx context.Context, sessionID uuid.UUID) error
	ResetQuestionFlags(ctx context.Context, sessionID uuid.UUID) error
	BlankFastMoneyResponses(ctx context.Context, sessionID uuid.UUID) error
	ResetSessionFields(ctx context.Context, sessionID uuid.UUID) error

	Session(ctx context.Context, sessionID uuid.UUID) (*models.GameSession, error)
	RevealedPoints(ctx context.Context, questionID uuid.UUID) ([]int, error)
	AddTeamScore(ctx context.Context, sessionID uuid.UUID, team models.Team, points int) (int, error)
}

// Navigator encodes the rules for which session-question row is current and
// how transitions between rounds behave.
type Navigator struct {
	store Store
}

// NewNavigator creates a navigator over the given store.
func NewNavigator(store Store) *Navigator {
	return &Navigator{store: store}
}

// SwitchResult reports the outcome of a round switch.
type SwitchResult struct {
	Row   *models.SessionQuestion
	Round models.Round
}

// SwitchTo moves the current marker to the target round slot. The unset,
// set, reveal-policy and label writes all run in one transaction so no
// observer can read a settled state with zero or two current rows. On round
// entry normal questions are hidden; Fast Money question 1 is hidden while
// indices 2-5 come up revealed. With resetOnSwitch the new question's
// answers are hidden and strikes return to zero.
func (n *Navigator) SwitchTo(ctx context.Context, sessionID uuid.UUID, round models.Round, resetOnSwitch bool) (*SwitchResult, error) {
	if err := round.Validate(); err != nil {
		return nil, err
	}

	var target *models.SessionQuestion
	err := n.store.WithinTx(ctx, func(s Store) error {
		if err := s.UnsetCurrent(ctx, sessionID); err != nil {
			return err
		}

		var err error
		if round.IsFastMoney() {
			target, err = s.FindFastMoney(ctx, sessionID, round.FMIndex)
		} else {
			target, err = s.FindByRound(ctx, sessionID, round.Number)
		}
		if err != nil {
			return err
		}

		if err := s.SetCurrent(ctx, target.ID); err != nil {
			return err
		}

		if round.IsFastMoney() {
			// Only the first Fast Money question starts hidden.
			reveal := round.FMIndex != 1
			if err := s.SetFastMoneyReveal(ctx, target.ID, reveal); err != nil {
				return err
			}
			target.FMRevealQuestion = reveal
		} else {
			if err := s.SetRevealQuestion(ctx, target.ID, false); err != nil {
				return err
			}
			target.RevealQuestion = false
		}

		if err := s.SetRoundLabel(ctx, sessionID, round.Label()); err != nil {
			return err
		}

		if resetOnSwitch {
			if err := s.ResetAnswers(ctx, target.QuestionID); err != nil {
				return err
			}
			if err := s.ResetStrikes(ctx, sessionID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("switch to %s: %w", round.Label(), err)
	}

	target.IsCurrent = true
	log.Info().
		Str("session_id", sessionID.String()).
		Str("round", string(round.Label())).
		Int("fm_index", round.FMIndex).
		Bool("reset_on_switch", resetOnSwitch).
		Msg("switched round")

	return &SwitchResult{Row: target, Round: round}, nil
}

// RevealCurrentQuestion shows or hides the current normal-round question on
// the audience screen. Fast Money rows are excluded by the store predicate.
func (n *Navigator) RevealCurrentQuestion(ctx context.Context, sessionID uuid.UUID, show bool) error {
	return n.store.SetCurrentNormalReveal(ctx, sessionID, show)
}

// FinalizeResult reports the points awarded by round finalization.
type FinalizeResult struct {
	Team     models.Team
	TeamName string
	Awarded  int
	NewScore int
	Advanced bool
}

// FinalizeRound sums the revealed answers of the current question, awards
// the total to the active team and, when a next round slot exists,
// auto-advances to it with strikes reset. Rejected during Fast Money.
func (n *Navigator) FinalizeRound(ctx context.Context, sessionID uuid.UUID) (*FinalizeResult, error) {
	sess, err := n.store.Session(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Round == models.RoundLabelFastMoney {
		return nil, ErrFastMoneyRound
	}

	current, err := n.store.CurrentQuestion(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	points, err := n.store.RevealedPoints(ctx, current.QuestionID)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, p := range points {
		total += p
	}

	newScore, err := n.store.AddTeamScore(ctx, sessionID, sess.ActiveTeam, total)
	if err != nil {
		return nil, err
	}

	result := &FinalizeResult{
		Team:     sess.ActiveTeam,
		TeamName: sess.NameFor(sess.ActiveTeam),
		Awarded:  total,
		NewScore: newScore,
	}

	log.Info().
		Str("session_id", sessionID.String()).
		Int("team", int(sess.ActiveTeam)).
		Int("awarded", total).
		Msg("finalized round")

	// Auto-advance when a next round slot exists.
	next := current.RoundNumber + 1
	if next > models.RoundNumberFastMoney {
		return result, nil
	}
	nextRound := models.NormalRound(next)
	if next == models.RoundNumberFastMoney {
		nextRound = models.FastMoneyRound(1)
	}
	if _, err := n.SwitchTo(ctx, sessionID, nextRound, false); err != nil {
		if errors.Is(err, ErrRowNotFound) {
			return result, nil
		}
		return nil, err
	}
	if err := n.store.ResetStrikes(ctx, sessionID); err != nil {
		return nil, err
	}
	result.Advanced = true
	return result, nil
}

// ResetRound clears strikes and hides the current question's answers,
// leaving scores and the current marker untouched.
func (n *Navigator) ResetRound(ctx context.Context, sessionID uuid.UUID) error {
	if err := n.store.ResetStrikes(ctx, sessionID); err != nil {
		return err
	}
	current, err := n.store.CurrentQuestion(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrNoCurrentQuestion) {
			return nil
		}
		return err
	}
	return n.store.ResetAnswers(ctx, current.QuestionID)
}

// ResetSession rewrites the whole session back to its starting state:
// scores and strikes zeroed, all reveal flags cleared, Fast Money responses
// blanked, round 1 current and hidden. Rows are updated in place, never
// deleted, so running it twice lands on the same terminal state.
func (n *Navigator) ResetSession(ctx context.Context, sessionID uuid.UUID) error {
	err := n.store.WithinTx(ctx, func(s Store) error {
		if err := s.ResetSessionFields(ctx, sessionID); err != nil {
			return err
		}
		if err := s.ResetAllAnswers(ctx); err != nil {
			return err
		}
		if err := s.BlankFastMoneyResponses(ctx, sessionID); err != nil {
			return err
		}
		if err := s.ResetQuestionFlags(ctx, sessionID); err != nil {
			return err
		}
		first, err := s.FindByRound(ctx, sessionID, 1)
		if err != nil {
			return err
		}
		if err := s.SetCurrent(ctx, first.ID); err != nil {
			return err
		}
		return s.SetRevealQuestion(ctx, first.ID, false)
	})
	if err != nil {
		return fmt.Errorf("reset session: %w", err)
	}

	log.Info().Str("session_id", sessionID.String()).Msg("session reset")
	return nil
}
