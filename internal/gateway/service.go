package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/feudcast/feudcast/internal/models"
)

// SessionReader resolves and loads session rows.
type SessionReader interface {
	ResolveActive(ctx context.Context) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*models.GameSession, error)
}

// RoundReader loads a session's round slots.
type RoundReader interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]models.SessionQuestion, error)
}

// AnswerReader loads a question's answer bank.
type AnswerReader interface {
	ListAnswers(ctx context.Context, questionID uuid.UUID) ([]models.Answer, error)
}

// ResponseReader loads a session's Fast Money responses.
type ResponseReader interface {
	ListResponses(ctx context.Context, sessionID uuid.UUID) ([]models.FastMoneyResponse, error)
}

// Service assembles screen snapshots from the store and keeps the state
// manager primed so incoming changes have a base to merge into.
type Service struct {
	sessions  SessionReader
	rounds    RoundReader
	answers   AnswerReader
	responses ResponseReader

	states *StateManager
	clock  clockwork.Clock
}

// NewService creates the snapshot service.
func NewService(sessions SessionReader, rounds RoundReader, answers AnswerReader, responses ResponseReader, states *StateManager, clock clockwork.Clock) *Service {
	return &Service{
		sessions:  sessions,
		rounds:    rounds,
		answers:   answers,
		responses: responses,
		states:    states,
		clock:     clock,
	}
}

// ActiveSessionID resolves the single active session.
func (s *Service) ActiveSessionID(ctx context.Context) (uuid.UUID, error) {
	return s.sessions.ResolveActive(ctx)
}

// Snapshot loads the full screen state for a session from the store and
// primes the state manager with it. Change events arriving after the load
// overwrite individual rows of this base.
func (s *Service) Snapshot(ctx context.Context, sessionID uuid.UUID) (*ScreenState, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	slots, err := s.rounds.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load round slots: %w", err)
	}

	var answers []models.Answer
	for _, slot := range slots {
		bank, err := s.answers.ListAnswers(ctx, slot.QuestionID)
		if err != nil {
			return nil, fmt.Errorf("load answer bank: %w", err)
		}
		answers = append(answers, bank...)
	}

	responses, err := s.responses.ListResponses(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load responses: %w", err)
	}

	now := s.clock.Now()
	state := &ScreenState{
		Session:        sess,
		Questions:      slots,
		Answers:        answers,
		Responses:      responses,
		TimerRemaining: sess.TimerRemaining(now),
		ServerTime:     now,
	}

	s.states.Prime(sessionID, state)

	log.Debug().
		Str("session_id", sessionID.String()).
		Int("slots", len(slots)).
		Int("answers", len(answers)).
		Int("responses", len(responses)).
		Msg("loaded screen snapshot")

	return s.states.Snapshot(sessionID), nil
}
