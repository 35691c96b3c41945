package gateway

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/feudcast/feudcast/internal/feed"
	"github.com/feudcast/feudcast/internal/models"
)

func primedState(t *testing.T) (*StateManager, uuid.UUID, *ScreenState) {
	t.Helper()

	sessionID := uuid.New()
	questionID := uuid.New()
	state := &ScreenState{
		Session: &models.GameSession{
			ID:         sessionID,
			Team1Name:  "Sharks",
			Team2Name:  "Jets",
			ActiveTeam: models.Team1,
			Round:      models.RoundLabelRound1,
		},
		Questions: []models.SessionQuestion{
			{ID: uuid.New(), SessionID: sessionID, QuestionID: questionID, RoundNumber: 1, IsCurrent: true},
		},
		Answers: []models.Answer{
			{ID: uuid.New(), QuestionID: questionID, Text: "Pizza", Points: 40},
			{ID: uuid.New(), QuestionID: questionID, Text: "Burger", Points: 25},
		},
		ServerTime: time.Now(),
	}

	sm := NewStateManager()
	sm.Prime(sessionID, state)
	return sm, sessionID, state
}

func changeEvent(t *testing.T, table string, row any) feed.ChangeEvent {
	t.Helper()
	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal row: %v", err)
	}
	return feed.ChangeEvent{Table: table, Op: "UPDATE", Row: data, Timestamp: time.Now()}
}

func TestApplyChangeSessionRow(t *testing.T) {
	sm, sessionID, base := primedState(t)

	updated := *base.Session
	updated.Team1Score = 75
	updated.Strikes = 2

	affected, err := sm.ApplyChange(changeEvent(t, feed.TableGameSessions, updated))
	if err != nil {
		t.Fatalf("ApplyChange: %v", err)
	}
	if len(affected) != 1 || affected[0] != sessionID {
		t.Fatalf("affected = %v, want [%s]", affected, sessionID)
	}

	snap := sm.Snapshot(sessionID)
	if snap.Session.Team1Score != 75 || snap.Session.Strikes != 2 {
		t.Error("session row not merged")
	}
	// Only the session row changed.
	if len(snap.Questions) != 1 || len(snap.Answers) != 2 {
		t.Error("unrelated rows were touched by a session change")
	}
}

func TestApplyChangeOverwritesOneAnswer(t *testing.T) {
	sm, sessionID, base := primedState(t)

	revealed := base.Answers[0]
	revealed.Revealed = true

	affected, err := sm.ApplyChange(changeEvent(t, feed.TableAnswers, revealed))
	if err != nil {
		t.Fatalf("ApplyChange: %v", err)
	}
	if len(affected) != 1 || affected[0] != sessionID {
		t.Fatalf("affected = %v, want [%s]", affected, sessionID)
	}

	snap := sm.Snapshot(sessionID)
	if !snap.Answers[0].Revealed {
		t.Error("changed answer not revealed in state")
	}
	if snap.Answers[1].Revealed {
		t.Error("sibling answer was clobbered")
	}
}

func TestApplyChangeForeignAnswerIgnored(t *testing.T) {
	sm, _, _ := primedState(t)

	foreign := models.Answer{ID: uuid.New(), QuestionID: uuid.New(), Text: "Tacos", Points: 10}
	affected, err := sm.ApplyChange(changeEvent(t, feed.TableAnswers, foreign))
	if err != nil {
		t.Fatalf("ApplyChange: %v", err)
	}
	if len(affected) != 0 {
		t.Errorf("affected = %v, want none", affected)
	}
}

func TestApplyChangeUnknownSessionIgnored(t *testing.T) {
	sm, _, _ := primedState(t)

	other := models.GameSession{ID: uuid.New(), Team1Name: "Strangers"}
	affected, err := sm.ApplyChange(changeEvent(t, feed.TableGameSessions, other))
	if err != nil {
		t.Fatalf("ApplyChange: %v", err)
	}
	if len(affected) != 0 {
		t.Errorf("affected = %v, want none", affected)
	}
}

func TestApplyChangeInsertsNewResponseRow(t *testing.T) {
	sm, sessionID, _ := primedState(t)

	row := models.FastMoneyResponse{
		ID:            uuid.New(),
		SessionID:     sessionID,
		QuestionIndex: 1,
		PlayerNumber:  models.Player1,
		AnswerText:    "piz",
	}
	if _, err := sm.ApplyChange(changeEvent(t, feed.TableFastMoneyResponses, row)); err != nil {
		t.Fatalf("ApplyChange insert: %v", err)
	}

	row.AnswerText = "pizza"
	if _, err := sm.ApplyChange(changeEvent(t, feed.TableFastMoneyResponses, row)); err != nil {
		t.Fatalf("ApplyChange update: %v", err)
	}

	snap := sm.Snapshot(sessionID)
	if len(snap.Responses) != 1 {
		t.Fatalf("responses = %d, want 1", len(snap.Responses))
	}
	if snap.Responses[0].AnswerText != "pizza" {
		t.Errorf("answer text = %q, want pizza", snap.Responses[0].AnswerText)
	}
}

func TestApplyChangeUnknownTable(t *testing.T) {
	sm, _, _ := primedState(t)

	if _, err := sm.ApplyChange(feed.ChangeEvent{Table: "mystery", Op: "UPDATE", Row: []byte(`{}`)}); err == nil {
		t.Fatal("expected error for unknown table")
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	sm, sessionID, _ := primedState(t)

	snap := sm.Snapshot(sessionID)
	snap.Session.Team1Score = 999
	snap.Answers[0].Revealed = true

	fresh := sm.Snapshot(sessionID)
	if fresh.Session.Team1Score == 999 {
		t.Error("mutating a snapshot leaked into the held state")
	}
	if fresh.Answers[0].Revealed {
		t.Error("mutating snapshot answers leaked into the held state")
	}
}

func TestSnapshotUnknownSession(t *testing.T) {
	sm := NewStateManager()
	if snap := sm.Snapshot(uuid.New()); snap != nil {
		t.Fatal("expected nil snapshot for unprimed session")
	}
}
