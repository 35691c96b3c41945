package fastmoney

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/feudcast/feudcast/internal/models"
	"github.com/feudcast/feudcast/internal/rounds"
)

type fakeResponseStore struct {
	responses map[ResponseKey]*models.FastMoneyResponse
	bank      map[int][]models.Answer
	inserts   int
	revealed  bool
	hidAll    bool
	blanked   bool
}

func newFakeResponseStore() *fakeResponseStore {
	return &fakeResponseStore{
		responses: make(map[ResponseKey]*models.FastMoneyResponse),
		bank:      make(map[int][]models.Answer),
	}
}

func (f *fakeResponseStore) FindResponse(ctx context.Context, key ResponseKey) (*models.FastMoneyResponse, error) {
	resp, ok := f.responses[key]
	if !ok {
		return nil, ErrResponseNotFound
	}
	cp := *resp
	return &cp, nil
}

func (f *fakeResponseStore) InsertResponse(ctx context.Context, resp *models.FastMoneyResponse) error {
	key := ResponseKey{SessionID: resp.SessionID, QuestionIndex: resp.QuestionIndex, PlayerNumber: resp.PlayerNumber}
	if _, ok := f.responses[key]; ok {
		return nil
	}
	cp := *resp
	f.responses[key] = &cp
	f.inserts++
	return nil
}

func (f *fakeResponseStore) SetAnswerText(ctx context.Context, key ResponseKey, text string) error {
	resp, ok := f.responses[key]
	if !ok {
		return ErrResponseNotFound
	}
	resp.AnswerText = text
	return nil
}

func (f *fakeResponseStore) SetRevealAnswer(ctx context.Context, key ResponseKey, matchedID *uuid.UUID) error {
	resp, ok := f.responses[key]
	if !ok {
		return ErrResponseNotFound
	}
	resp.RevealAnswer = true
	resp.MatchedAnswerID = matchedID
	return nil
}

func (f *fakeResponseStore) SetRevealPoints(ctx context.Context, key ResponseKey, points int) error {
	resp, ok := f.responses[key]
	if !ok {
		return ErrResponseNotFound
	}
	resp.RevealPoints = true
	resp.PointsAwarded = points
	return nil
}

func (f *fakeResponseStore) SetRevealZero(ctx context.Context, key ResponseKey) error {
	resp, ok := f.responses[key]
	if !ok {
		return ErrResponseNotFound
	}
	resp.RevealAnswer = true
	resp.RevealPoints = true
	resp.PointsAwarded = 0
	resp.MatchedAnswerID = nil
	return nil
}

func (f *fakeResponseStore) BlankResponses(ctx context.Context, sessionID uuid.UUID) error {
	f.blanked = true
	for _, resp := range f.responses {
		resp.AnswerText = ""
		resp.MatchedAnswerID = nil
		resp.PointsAwarded = 0
		resp.RevealAnswer = false
		resp.RevealPoints = false
	}
	return nil
}

func (f *fakeResponseStore) AnswerBank(ctx context.Context, sessionID uuid.UUID, questionIndex int) ([]models.Answer, error) {
	return f.bank[questionIndex], nil
}

func (f *fakeResponseStore) RevealCurrentQuestion(ctx context.Context, sessionID uuid.UUID) error {
	f.revealed = true
	return nil
}

func (f *fakeResponseStore) HideAllQuestions(ctx context.Context, sessionID uuid.UUID) error {
	f.hidAll = true
	return nil
}

type fakeSessionStore struct {
	session models.GameSession
}

func (f *fakeSessionStore) Get(ctx context.Context, id uuid.UUID) (*models.GameSession, error) {
	cp := f.session
	return &cp, nil
}

func (f *fakeSessionStore) SetHideP1(ctx context.Context, id uuid.UUID, hide bool) error {
	f.session.FMHideP1 = hide
	return nil
}

func (f *fakeSessionStore) ToggleHideP1(ctx context.Context, id uuid.UUID) (bool, error) {
	f.session.FMHideP1 = !f.session.FMHideP1
	return f.session.FMHideP1, nil
}

func (f *fakeSessionStore) StartTimer(ctx context.Context, id uuid.UUID, startedAt time.Time) error {
	f.session.FMTimerRunning = true
	f.session.FMTimerStartedAt = &startedAt
	return nil
}

func (f *fakeSessionStore) SetTimer(ctx context.Context, id uuid.UUID, running bool, startedAt *time.Time, duration int) error {
	f.session.FMTimerRunning = running
	f.session.FMTimerStartedAt = startedAt
	f.session.FMTimerDuration = duration
	return nil
}

func (f *fakeSessionStore) SetTimerDuration(ctx context.Context, id uuid.UUID, seconds int) error {
	f.session.FMTimerDuration = seconds
	f.session.FastMoneySeconds = seconds
	return nil
}

type fakeNavigator struct {
	switches []models.Round
}

func (f *fakeNavigator) SwitchTo(ctx context.Context, sessionID uuid.UUID, round models.Round, resetOnSwitch bool) (*rounds.SwitchResult, error) {
	if err := round.Validate(); err != nil {
		return nil, err
	}
	f.switches = append(f.switches, round)
	return &rounds.SwitchResult{Round: round}, nil
}

func newTestEngine() (*Engine, *fakeResponseStore, *fakeSessionStore, *fakeNavigator, *clockwork.FakeClock) {
	store := newFakeResponseStore()
	sessions := &fakeSessionStore{
		session: models.GameSession{
			ID:               uuid.New(),
			FastMoneySeconds: 60,
			FMTimerDuration:  60,
		},
	}
	nav := &fakeNavigator{}
	clock := clockwork.NewFakeClock()
	return NewEngine(store, sessions, nav, clock), store, sessions, nav, clock
}

func TestEnsureResponseIdempotent(t *testing.T) {
	engine, store, sessions, _, _ := newTestEngine()
	key := ResponseKey{SessionID: sessions.session.ID, QuestionIndex: 2, PlayerNumber: models.Player1}

	first, err := engine.EnsureResponse(context.Background(), key)
	if err != nil {
		t.Fatalf("EnsureResponse: %v", err)
	}
	second, err := engine.EnsureResponse(context.Background(), key)
	if err != nil {
		t.Fatalf("EnsureResponse again: %v", err)
	}

	if store.inserts != 1 {
		t.Errorf("inserts = %d, want 1", store.inserts)
	}
	if first.ID != second.ID {
		t.Error("ensure created a second row for the same key")
	}
}

func TestEnsureResponseRejectsBadKey(t *testing.T) {
	engine, _, sessions, _, _ := newTestEngine()

	_, err := engine.EnsureResponse(context.Background(),
		ResponseKey{SessionID: sessions.session.ID, QuestionIndex: 6, PlayerNumber: models.Player1})
	if !errors.Is(err, models.ErrInvalidRound) {
		t.Fatalf("err = %v, want ErrInvalidRound", err)
	}

	_, err = engine.EnsureResponse(context.Background(),
		ResponseKey{SessionID: sessions.session.ID, QuestionIndex: 1, PlayerNumber: 3})
	if !errors.Is(err, models.ErrInvalidRound) {
		t.Fatalf("err = %v, want ErrInvalidRound", err)
	}
}

func TestRevealAnswerRecordsMatch(t *testing.T) {
	engine, store, sessions, _, _ := newTestEngine()
	key := ResponseKey{SessionID: sessions.session.ID, QuestionIndex: 1, PlayerNumber: models.Player1}
	matched := models.Answer{ID: uuid.New(), Text: "Pizza", Points: 40}
	store.bank[1] = []models.Answer{matched, {ID: uuid.New(), Text: "Burger", Points: 25}}

	if _, err := engine.EnsureResponse(context.Background(), key); err != nil {
		t.Fatal(err)
	}
	if err := engine.TypeAnswer(context.Background(), key, "pizza"); err != nil {
		t.Fatal(err)
	}
	if err := engine.RevealAnswer(context.Background(), key); err != nil {
		t.Fatal(err)
	}

	resp := store.responses[key]
	if !resp.RevealAnswer {
		t.Error("answer not revealed")
	}
	if resp.MatchedAnswerID == nil || *resp.MatchedAnswerID != matched.ID {
		t.Error("matched answer id not recorded")
	}
}

func TestRevealPointsNoMatchAwardsZero(t *testing.T) {
	engine, store, sessions, _, _ := newTestEngine()
	key := ResponseKey{SessionID: sessions.session.ID, QuestionIndex: 1, PlayerNumber: models.Player2}
	store.bank[1] = []models.Answer{{ID: uuid.New(), Text: "Pizza", Points: 40}}

	if _, err := engine.EnsureResponse(context.Background(), key); err != nil {
		t.Fatal(err)
	}
	if err := engine.TypeAnswer(context.Background(), key, "sushi"); err != nil {
		t.Fatal(err)
	}

	points, err := engine.RevealPoints(context.Background(), key)
	if err != nil {
		t.Fatal(err)
	}
	if points != 0 {
		t.Errorf("points = %d, want 0", points)
	}
	if resp := store.responses[key]; !resp.RevealPoints || resp.PointsAwarded != 0 {
		t.Error("zero award not recorded")
	}
}

func TestTimerLifecycle(t *testing.T) {
	engine, _, sessions, _, clock := newTestEngine()
	ctx := context.Background()
	sessionID := sessions.session.ID

	if err := engine.StartTimer(ctx, sessionID); err != nil {
		t.Fatal(err)
	}
	if !sessions.session.FMTimerRunning {
		t.Fatal("timer not running after start")
	}
	if sessions.session.FMTimerDuration != 60 {
		t.Fatalf("start must not touch duration, got %d", sessions.session.FMTimerDuration)
	}

	clock.Advance(15 * time.Second)
	remaining, err := engine.Remaining(ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if remaining != 45 {
		t.Errorf("remaining = %d, want 45", remaining)
	}

	// Pause freezes the derived value into the stored duration.
	paused, err := engine.PauseTimer(ctx, sessionID)
	if err != nil {
		t.Fatal(err)
	}
	if paused != 45 {
		t.Errorf("paused remaining = %d, want 45", paused)
	}
	clock.Advance(30 * time.Second)
	if remaining, _ = engine.Remaining(ctx, sessionID); remaining != 45 {
		t.Errorf("remaining while paused = %d, want 45", remaining)
	}

	// Resume and run past zero; derived value clamps.
	if err := engine.StartTimer(ctx, sessionID); err != nil {
		t.Fatal(err)
	}
	clock.Advance(50 * time.Second)
	if remaining, _ = engine.Remaining(ctx, sessionID); remaining != 0 {
		t.Errorf("remaining past expiry = %d, want 0", remaining)
	}

	if err := engine.ResetTimer(ctx, sessionID); err != nil {
		t.Fatal(err)
	}
	if sessions.session.FMTimerRunning {
		t.Error("timer running after reset")
	}
	if remaining, _ = engine.Remaining(ctx, sessionID); remaining != 60 {
		t.Errorf("remaining after reset = %d, want 60", remaining)
	}
}

func TestSetDurationClamps(t *testing.T) {
	engine, _, sessions, _, _ := newTestEngine()
	ctx := context.Background()

	if err := engine.SetDuration(ctx, sessions.session.ID, 3); err != nil {
		t.Fatal(err)
	}
	if sessions.session.FMTimerDuration != 5 {
		t.Errorf("duration = %d, want 5", sessions.session.FMTimerDuration)
	}

	if err := engine.SetDuration(ctx, sessions.session.ID, 500); err != nil {
		t.Fatal(err)
	}
	if sessions.session.FMTimerDuration != 120 {
		t.Errorf("duration = %d, want 120", sessions.session.FMTimerDuration)
	}
	if sessions.session.FastMoneySeconds != 120 {
		t.Errorf("default seconds = %d, want 120", sessions.session.FastMoneySeconds)
	}
}

func TestSwitchPlayerMasksPlayerOne(t *testing.T) {
	engine, store, sessions, _, _ := newTestEngine()
	ctx := context.Background()

	if _, err := engine.SwitchPlayer(ctx, sessions.session.ID, 1, models.Player2); err != nil {
		t.Fatal(err)
	}
	if !sessions.session.FMHideP1 {
		t.Error("player 1 not masked while player 2 is up")
	}
	if store.inserts != 1 {
		t.Error("switch player must ensure the response row")
	}

	if _, err := engine.SwitchPlayer(ctx, sessions.session.ID, 1, models.Player1); err != nil {
		t.Fatal(err)
	}
	if sessions.session.FMHideP1 {
		t.Error("mask still on after switching back to player 1")
	}
}

func TestNavigateClampsIndex(t *testing.T) {
	engine, _, sessions, nav, _ := newTestEngine()
	ctx := context.Background()

	if _, err := engine.Navigate(ctx, sessions.session.ID, 9); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Navigate(ctx, sessions.session.ID, -2); err != nil {
		t.Fatal(err)
	}

	if len(nav.switches) != 2 {
		t.Fatalf("switches = %d, want 2", len(nav.switches))
	}
	if nav.switches[0].FMIndex != 5 || nav.switches[1].FMIndex != 1 {
		t.Errorf("clamped indices = %d, %d, want 5, 1", nav.switches[0].FMIndex, nav.switches[1].FMIndex)
	}
}

func TestResetAll(t *testing.T) {
	engine, store, sessions, nav, clock := newTestEngine()
	ctx := context.Background()
	key := ResponseKey{SessionID: sessions.session.ID, QuestionIndex: 3, PlayerNumber: models.Player1}

	if _, err := engine.EnsureResponse(ctx, key); err != nil {
		t.Fatal(err)
	}
	if err := engine.TypeAnswer(ctx, key, "pizza"); err != nil {
		t.Fatal(err)
	}
	if err := engine.StartTimer(ctx, sessions.session.ID); err != nil {
		t.Fatal(err)
	}
	clock.Advance(20 * time.Second)

	if err := engine.ResetAll(ctx, sessions.session.ID); err != nil {
		t.Fatal(err)
	}

	if !store.blanked || !store.hidAll {
		t.Error("responses not blanked or questions not hidden")
	}
	if resp := store.responses[key]; resp.AnswerText != "" {
		t.Error("typed text survived reset")
	}
	last := nav.switches[len(nav.switches)-1]
	if !last.IsFastMoney() || last.FMIndex != 1 {
		t.Error("reset must land on fast money slot 1")
	}
	if sessions.session.FMTimerRunning {
		t.Error("timer running after reset")
	}
	if remaining, _ := engine.Remaining(ctx, sessions.session.ID); remaining != 60 {
		t.Errorf("remaining after reset = %d, want 60", remaining)
	}
}
