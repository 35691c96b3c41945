package fastmoney

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/feudcast/feudcast/internal/models"
	"github.com/feudcast/feudcast/internal/rounds"
)

// ErrResponseNotFound is returned when a response row for a
// (session, index, player) key does not exist yet.
var ErrResponseNotFound = errors.New("fast money response not found")

// ResponseKey addresses one player's answer slot.
type ResponseKey struct {
	SessionID     uuid.UUID
	QuestionIndex int
	PlayerNumber  models.PlayerNumber
}

// Validate checks the index and player ranges.
func (k ResponseKey) Validate() error {
	if k.QuestionIndex < 1 || k.QuestionIndex > 5 {
		return fmt.Errorf("%w: fast money index %d", models.ErrInvalidRound, k.QuestionIndex)
	}
	if k.PlayerNumber != models.Player1 && k.PlayerNumber != models.Player2 {
		return fmt.Errorf("%w: player number %d", models.ErrInvalidRound, k.PlayerNumber)
	}
	return nil
}

// Store defines what the engine needs from response persistence.
type Store interface {
	FindResponse(ctx context.Context, key ResponseKey) (*models.FastMoneyResponse, error)
	InsertResponse(ctx context.Context, resp *models.FastMoneyResponse) error
	SetAnswerText(ctx context.Context, key ResponseKey, text string) error
	SetRevealAnswer(ctx context.Context, key ResponseKey, matchedID *uuid.UUID) error
	SetRevealPoints(ctx context.Context, key ResponseKey, points int) error
	SetRevealZero(ctx context.Context, key ResponseKey) error
	BlankResponses(ctx context.Context, sessionID uuid.UUID) error

	// AnswerBank returns the answer bank of the question assigned to the
	// given Fast Money slot, in rank order.
	AnswerBank(ctx context.Context, sessionID uuid.UUID, questionIndex int) ([]models.Answer, error)

	// RevealCurrentQuestion shows the current Fast Money question.
	RevealCurrentQuestion(ctx context.Context, sessionID uuid.UUID) error

	// HideAllQuestions unsets the current marker and hides the question on
	// every Fast Money row of the session.
	HideAllQuestions(ctx context.Context, sessionID uuid.UUID) error
}

// SessionStore defines the session-row surface the engine calls: the
// player-1 mask and the three timer fields. Remaining time is never stored
// while running; it is derived on read from (running, started_at, duration),
// so only start/pause/reset/duration changes ever write.
type SessionStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.GameSession, error)
	SetHideP1(ctx context.Context, id uuid.UUID, hide bool) error
	ToggleHideP1(ctx context.Context, id uuid.UUID) (bool, error)
	StartTimer(ctx context.Context, id uuid.UUID, startedAt time.Time) error
	SetTimer(ctx context.Context, id uuid.UUID, running bool, startedAt *time.Time, duration int) error
	SetTimerDuration(ctx context.Context, id uuid.UUID, seconds int) error
}

// Navigator is the slice of the round navigator the engine uses to move the
// current marker between Fast Money slots.
type Navigator interface {
	SwitchTo(ctx context.Context, sessionID uuid.UUID, round models.Round, resetOnSwitch bool) (*rounds.SwitchResult, error)
}

// Engine drives the Fast Money sub-state layered on top of the navigator:
// lazily-created response rows, write-through typing, match-based reveals,
// the player-visibility mask and the shared wall-clock countdown.
type Engine struct {
	store     Store
	sessions  SessionStore
	navigator Navigator
	clock     clockwork.Clock
}

// NewEngine creates a Fast Money engine. The clock is injected so timer
// derivation is testable with a fake clock.
func NewEngine(store Store, sessions SessionStore, navigator Navigator, clock clockwork.Clock) *Engine {
	return &Engine{store: store, sessions: sessions, navigator: navigator, clock: clock}
}

// EnsureResponse creates the response row for a key if it does not exist
// and returns it. Calling it twice for the same key never creates a second
// row.
func (e *Engine) EnsureResponse(ctx context.Context, key ResponseKey) (*models.FastMoneyResponse, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	resp, err := e.store.FindResponse(ctx, key)
	if err == nil {
		return resp, nil
	}
	if !errors.Is(err, ErrResponseNotFound) {
		return nil, err
	}

	fresh := &models.FastMoneyResponse{
		ID:            uuid.New(),
		SessionID:     key.SessionID,
		QuestionIndex: key.QuestionIndex,
		PlayerNumber:  key.PlayerNumber,
	}
	if err := e.store.InsertResponse(ctx, fresh); err != nil {
		return nil, err
	}
	// A concurrent ensure may have won the insert; reload either way.
	return e.store.FindResponse(ctx, key)
}

// TypeAnswer writes the operator's typed text through to the store. Every
// keystroke lands immediately so the audience screen mirrors live typing
// unless masked.
func (e *Engine) TypeAnswer(ctx context.Context, key ResponseKey, text string) error {
	if err := key.Validate(); err != nil {
		return err
	}
	return e.store.SetAnswerText(ctx, key, text)
}

// Match resolves the advisory best match for the currently typed text.
func (e *Engine) Match(ctx context.Context, key ResponseKey) (*models.Answer, error) {
	resp, err := e.store.FindResponse(ctx, key)
	if err != nil {
		return nil, err
	}
	bank, err := e.store.AnswerBank(ctx, key.SessionID, key.QuestionIndex)
	if err != nil {
		return nil, err
	}
	return BestMatch(resp.AnswerText, bank), nil
}

// RevealAnswer shows the typed answer and records the matched bank entry,
// or null when nothing matched.
func (e *Engine) RevealAnswer(ctx context.Context, key ResponseKey) error {
	match, err := e.Match(ctx, key)
	if err != nil {
		return err
	}
	var matchedID *uuid.UUID
	if match != nil {
		matchedID = &match.ID
	}
	return e.store.SetRevealAnswer(ctx, key, matchedID)
}

// RevealPoints shows the points for the slot, awarding the matched bank
// entry's value or zero when nothing matched.
func (e *Engine) RevealPoints(ctx context.Context, key ResponseKey) (int, error) {
	match, err := e.Match(ctx, key)
	if err != nil {
		return 0, err
	}
	points := 0
	if match != nil {
		points = match.Points
	}
	if err := e.store.SetRevealPoints(ctx, key, points); err != nil {
		return 0, err
	}
	return points, nil
}

// RevealZero overrides any match: answer and points both shown, zero
// awarded, matched answer cleared.
func (e *Engine) RevealZero(ctx context.Context, key ResponseKey) error {
	if err := key.Validate(); err != nil {
		return err
	}
	return e.store.SetRevealZero(ctx, key)
}

// RevealQuestion shows the current Fast Money question text.
func (e *Engine) RevealQuestion(ctx context.Context, sessionID uuid.UUID) error {
	return e.store.RevealCurrentQuestion(ctx, sessionID)
}

// Navigate moves the current marker to the given Fast Money index, clamped
// to 1..5, applying the navigator's reveal policy for the slot.
func (e *Engine) Navigate(ctx context.Context, sessionID uuid.UUID, index int) (*rounds.SwitchResult, error) {
	if index < 1 {
		index = 1
	}
	if index > 5 {
		index = 5
	}
	return e.navigator.SwitchTo(ctx, sessionID, models.FastMoneyRound(index), false)
}

// SwitchPlayer selects the operator's active player and auto-masks player
// 1's column on the audience screen while player 2 is up. The player's
// response row for the given index is ensured as a side effect.
func (e *Engine) SwitchPlayer(ctx context.Context, sessionID uuid.UUID, index int, player models.PlayerNumber) (*models.FastMoneyResponse, error) {
	key := ResponseKey{SessionID: sessionID, QuestionIndex: index, PlayerNumber: player}
	resp, err := e.EnsureResponse(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := e.sessions.SetHideP1(ctx, sessionID, player == models.Player2); err != nil {
		return nil, err
	}
	return resp, nil
}

// ToggleHideP1 flips the audience-screen mask manually.
func (e *Engine) ToggleHideP1(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	return e.sessions.ToggleHideP1(ctx, sessionID)
}

// StartTimer starts the countdown from the stored duration.
func (e *Engine) StartTimer(ctx context.Context, sessionID uuid.UUID) error {
	now := e.clock.Now()
	if err := e.sessions.StartTimer(ctx, sessionID, now); err != nil {
		return err
	}
	log.Debug().Str("session_id", sessionID.String()).Time("started_at", now).Msg("fast money timer started")
	return nil
}

// PauseTimer freezes the derived remaining time back into the stored
// duration and stops the countdown.
func (e *Engine) PauseTimer(ctx context.Context, sessionID uuid.UUID) (int, error) {
	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	remaining := sess.TimerRemaining(e.clock.Now())
	if err := e.sessions.SetTimer(ctx, sessionID, false, nil, remaining); err != nil {
		return 0, err
	}
	return remaining, nil
}

// ResetTimer stops the countdown and restores the default duration.
func (e *Engine) ResetTimer(ctx context.Context, sessionID uuid.UUID) error {
	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	return e.sessions.SetTimer(ctx, sessionID, false, nil, sess.FastMoneySeconds)
}

// SetDuration updates both the remaining duration and the session default,
// clamped to the 5..120s range the operator panel accepts.
func (e *Engine) SetDuration(ctx context.Context, sessionID uuid.UUID, seconds int) error {
	if seconds < 5 {
		seconds = 5
	}
	if seconds > 120 {
		seconds = 120
	}
	return e.sessions.SetTimerDuration(ctx, sessionID, seconds)
}

// Remaining derives the seconds left on the shared countdown right now.
func (e *Engine) Remaining(ctx context.Context, sessionID uuid.UUID) (int, error) {
	sess, err := e.sessions.Get(ctx, sessionID)
	if err != nil {
		return 0, err
	}
	return sess.TimerRemaining(e.clock.Now()), nil
}

// ResetAll blanks every response of the session, hides all Fast Money
// questions, makes index 1 current and hidden again and restores the timer
// default.
func (e *Engine) ResetAll(ctx context.Context, sessionID uuid.UUID) error {
	if err := e.store.BlankResponses(ctx, sessionID); err != nil {
		return err
	}
	if err := e.store.HideAllQuestions(ctx, sessionID); err != nil {
		return err
	}
	if _, err := e.navigator.SwitchTo(ctx, sessionID, models.FastMoneyRound(1), false); err != nil {
		return err
	}
	if err := e.ResetTimer(ctx, sessionID); err != nil {
		return err
	}
	log.Info().Str("session_id", sessionID.String()).Msg("fast money state reset")
	return nil
}
