package models

import "github.com/google/uuid"

// SessionQuestion links a session to a question for one round slot. Rounds
// 1-5 have exactly one row each; round 6 has five rows with fm_index 1..5.
// At most one row per session is current at any settled moment.
type SessionQuestion struct {
	ID          uuid.UUID `json:"id"`
	SessionID   uuid.UUID `json:"session_id"`
	QuestionID  uuid.UUID `json:"question_id"`
	RoundNumber int       `json:"round_number"`
	IsCurrent   bool      `json:"is_current"`

	// FMIndex is only meaningful when RoundNumber is 6.
	FMIndex *int `json:"fm_index,omitempty"`

	// RevealQuestion gates the question text on the audience screen for
	// normal rounds; FMRevealQuestion does the same for Fast Money.
	RevealQuestion   bool `json:"reveal_question"`
	FMRevealQuestion bool `json:"fm_reveal_question"`
}

// Round reconstructs the tagged round value for this row.
func (sq *SessionQuestion) Round() Round {
	if sq.RoundNumber == RoundNumberFastMoney {
		idx := 1
		if sq.FMIndex != nil {
			idx = *sq.FMIndex
		}
		return FastMoneyRound(idx)
	}
	return NormalRound(sq.RoundNumber)
}
