package models

import (
	"testing"
	"time"
)

func TestTimerRemainingStopped(t *testing.T) {
	s := GameSession{FMTimerDuration: 45}
	if got := s.TimerRemaining(time.Now()); got != 45 {
		t.Errorf("remaining = %d, want 45", got)
	}
}

func TestTimerRemainingRunning(t *testing.T) {
	start := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	s := GameSession{
		FMTimerRunning:   true,
		FMTimerStartedAt: &start,
		FMTimerDuration:  60,
	}

	if got := s.TimerRemaining(start.Add(15 * time.Second)); got != 45 {
		t.Errorf("remaining after 15s = %d, want 45", got)
	}
	if got := s.TimerRemaining(start.Add(90 * time.Second)); got != 0 {
		t.Errorf("remaining after expiry = %d, want 0", got)
	}
	// Sub-second elapsed time rounds down, so a screen reading at 15.9s
	// still shows 45.
	if got := s.TimerRemaining(start.Add(15*time.Second + 900*time.Millisecond)); got != 45 {
		t.Errorf("remaining at 15.9s = %d, want 45", got)
	}
}

func TestTimerRemainingRunningWithoutStart(t *testing.T) {
	// Running flag without a start timestamp falls back to the stored
	// duration rather than deriving from a zero time.
	s := GameSession{FMTimerRunning: true, FMTimerDuration: 30}
	if got := s.TimerRemaining(time.Now()); got != 30 {
		t.Errorf("remaining = %d, want 30", got)
	}
}

func TestScoreAndNameFor(t *testing.T) {
	s := GameSession{Team1Name: "Sharks", Team2Name: "Jets", Team1Score: 80, Team2Score: 45}

	if s.ScoreFor(Team1) != 80 || s.ScoreFor(Team2) != 45 {
		t.Error("ScoreFor returned wrong team score")
	}
	if s.NameFor(Team1) != "Sharks" || s.NameFor(Team2) != "Jets" {
		t.Error("NameFor returned wrong team name")
	}
}
