package gateway

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/feudcast/feudcast/internal/feed"
	"github.com/feudcast/feudcast/internal/models"
)

// ScreenState is everything a screen needs to render one session: the
// session row, its ten round slots, the answer banks of the assigned
// questions and the Fast Money responses. Screens receive it once as a
// snapshot, then keep it current by applying row-level changes.
type ScreenState struct {
	Session   *models.GameSession        `json:"session"`
	Questions []models.SessionQuestion   `json:"questions"`
	Answers   []models.Answer            `json:"answers"`
	Responses []models.FastMoneyResponse `json:"responses"`

	// TimerRemaining is derived at snapshot time so a freshly connected
	// screen starts its local countdown from the server's value.
	TimerRemaining int       `json:"timer_remaining"`
	ServerTime     time.Time `json:"server_time"`
}

func (s *ScreenState) hasQuestion(questionID uuid.UUID) bool {
	for i := range s.Questions {
		if s.Questions[i].QuestionID == questionID {
			return true
		}
	}
	return false
}

// StateManager holds the in-memory state per session and applies incoming
// change events to it. A change overwrites exactly the row it names; every
// other row of the state is untouched, so concurrent edits to different
// rows never clobber each other.
type StateManager struct {
	mu     sync.RWMutex
	states map[uuid.UUID]*ScreenState
}

// NewStateManager creates an empty state manager.
func NewStateManager() *StateManager {
	return &StateManager{states: make(map[uuid.UUID]*ScreenState)}
}

// Prime installs a freshly loaded snapshot for a session, replacing
// whatever was held before.
func (sm *StateManager) Prime(sessionID uuid.UUID, state *ScreenState) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.states[sessionID] = state
}

// Drop discards the held state for a session.
func (sm *StateManager) Drop(sessionID uuid.UUID) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.states, sessionID)
}

// Snapshot returns a copy of the held state for a session, or nil when the
// session has not been primed.
func (sm *StateManager) Snapshot(sessionID uuid.UUID) *ScreenState {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	state, ok := sm.states[sessionID]
	if !ok {
		return nil
	}
	out := &ScreenState{
		Questions:      append([]models.SessionQuestion(nil), state.Questions...),
		Answers:        append([]models.Answer(nil), state.Answers...),
		Responses:      append([]models.FastMoneyResponse(nil), state.Responses...),
		TimerRemaining: state.TimerRemaining,
		ServerTime:     state.ServerTime,
	}
	if state.Session != nil {
		sess := *state.Session
		out.Session = &sess
	}
	return out
}

// ApplyChange merges one row-level change into the held states and returns
// the ids of the sessions whose state changed. Changes for sessions that
// were never primed are ignored; those screens will load a snapshot when
// they first connect.
func (sm *StateManager) ApplyChange(event feed.ChangeEvent) ([]uuid.UUID, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	switch event.Table {
	case feed.TableGameSessions:
		var row models.GameSession
		if err := json.Unmarshal(event.Row, &row); err != nil {
			return nil, fmt.Errorf("unmarshal session row: %w", err)
		}
		state, ok := sm.states[row.ID]
		if !ok {
			return nil, nil
		}
		state.Session = &row
		return []uuid.UUID{row.ID}, nil

	case feed.TableSessionQuestions:
		var row models.SessionQuestion
		if err := json.Unmarshal(event.Row, &row); err != nil {
			return nil, fmt.Errorf("unmarshal session question row: %w", err)
		}
		state, ok := sm.states[row.SessionID]
		if !ok {
			return nil, nil
		}
		upsertQuestion(state, row)
		return []uuid.UUID{row.SessionID}, nil

	case feed.TableFastMoneyResponses:
		var row models.FastMoneyResponse
		if err := json.Unmarshal(event.Row, &row); err != nil {
			return nil, fmt.Errorf("unmarshal response row: %w", err)
		}
		state, ok := sm.states[row.SessionID]
		if !ok {
			return nil, nil
		}
		upsertResponse(state, row)
		return []uuid.UUID{row.SessionID}, nil

	case feed.TableAnswers:
		var row models.Answer
		if err := json.Unmarshal(event.Row, &row); err != nil {
			return nil, fmt.Errorf("unmarshal answer row: %w", err)
		}
		// Answers belong to questions, not sessions; route to every session
		// whose assigned questions include this one.
		var affected []uuid.UUID
		for sessionID, state := range sm.states {
			if !state.hasQuestion(row.QuestionID) {
				continue
			}
			upsertAnswer(state, row)
			affected = append(affected, sessionID)
		}
		return affected, nil

	default:
		return nil, fmt.Errorf("unknown change table: %s", event.Table)
	}
}

func upsertQuestion(state *ScreenState, row models.SessionQuestion) {
	for i := range state.Questions {
		if state.Questions[i].ID == row.ID {
			state.Questions[i] = row
			return
		}
	}
	state.Questions = append(state.Questions, row)
}

func upsertAnswer(state *ScreenState, row models.Answer) {
	for i := range state.Answers {
		if state.Answers[i].ID == row.ID {
			state.Answers[i] = row
			return
		}
	}
	state.Answers = append(state.Answers, row)
}

func upsertResponse(state *ScreenState, row models.FastMoneyResponse) {
	for i := range state.Responses {
		if state.Responses[i].ID == row.ID {
			state.Responses[i] = row
			return
		}
	}
	state.Responses = append(state.Responses, row)
}
