package models

import "github.com/google/uuid"

// PlayerNumber identifies one of the two Fast Money players.
type PlayerNumber int

const (
	Player1 PlayerNumber = 1
	Player2 PlayerNumber = 2
)

// FastMoneyResponse is one player's answer slot for one of the five Fast
// Money questions. Rows are created lazily the first time a
// (session, index, player) combination is visited and are blanked, never
// deleted, on reset.
type FastMoneyResponse struct {
	ID              uuid.UUID    `json:"id"`
	SessionID       uuid.UUID    `json:"session_id"`
	QuestionIndex   int          `json:"question_index"`
	PlayerNumber    PlayerNumber `json:"player_number"`
	AnswerText      string       `json:"answer_text"`
	MatchedAnswerID *uuid.UUID   `json:"matched_answer_id,omitempty"`
	PointsAwarded   int          `json:"points_awarded"`
	RevealAnswer    bool         `json:"reveal_answer"`
	RevealPoints    bool         `json:"reveal_points"`
}
