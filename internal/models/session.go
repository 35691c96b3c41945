package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus defines the lifecycle state of a game session.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)

// Team identifies one of the two competing teams.
type Team int

const (
	Team1 Team = 1
	Team2 Team = 2
)

// GameSession represents one complete game's worth of persisted state.
// Exactly one session is active at a time; that invariant is enforced by
// convention in the setup flow, not by a database constraint.
type GameSession struct {
	ID         uuid.UUID     `json:"id"`
	Team1Name  string        `json:"team1_name"`
	Team2Name  string        `json:"team2_name"`
	Team1Score int           `json:"team1_score"`
	Team2Score int           `json:"team2_score"`
	ActiveTeam Team          `json:"active_team"`
	Strikes    int           `json:"strikes"`
	StrikeLimit int          `json:"strike_limit"`
	Status     SessionStatus `json:"status"`

	// Round is a denormalized label mirroring the current SessionQuestion.
	// It is a cached projection written after every transition and is never
	// authoritative; the is_current row is.
	Round RoundLabel `json:"round"`

	// Fast Money countdown. Remaining time is derived from these three
	// fields rather than streamed tick by tick, so every screen converges
	// on the same value without per-second writes.
	FMTimerRunning   bool       `json:"fm_timer_running"`
	FMTimerStartedAt *time.Time `json:"fm_timer_started_at,omitempty"`
	FMTimerDuration  int        `json:"fm_timer_duration"`
	FastMoneySeconds int        `json:"fast_money_seconds"`

	// FMHideP1 masks player 1's answers on the audience screen while
	// player 2 is being played.
	FMHideP1 bool `json:"fm_hide_p1"`

	CreatedAt time.Time `json:"created_at"`
}

// TimerRemaining derives the seconds left on the Fast Money countdown at
// the given instant. Never negative.
func (s *GameSession) TimerRemaining(now time.Time) int {
	remaining := s.FMTimerDuration
	if s.FMTimerRunning && s.FMTimerStartedAt != nil {
		elapsed := int(now.Sub(*s.FMTimerStartedAt).Seconds())
		remaining = s.FMTimerDuration - elapsed
	}
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ScoreFor returns the given team's score.
func (s *GameSession) ScoreFor(team Team) int {
	if team == Team2 {
		return s.Team2Score
	}
	return s.Team1Score
}

// NameFor returns the given team's display name.
func (s *GameSession) NameFor(team Team) string {
	if team == Team2 {
		return s.Team2Name
	}
	return s.Team1Name
}
