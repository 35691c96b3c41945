package models

import "github.com/google/uuid"

// QuestionType groups questions into the six round pools used during setup.
type QuestionType string

const (
	QuestionTypeRound1      QuestionType = "round1"
	QuestionTypeRound2      QuestionType = "round2"
	QuestionTypeRound3      QuestionType = "round3"
	QuestionTypeRound4      QuestionType = "round4"
	QuestionTypeSuddenDeath QuestionType = "sudden_death"
	QuestionTypeFastMoney   QuestionType = "fast_money"
)

// Question is static survey content. Read-only once seeded.
type Question struct {
	ID   uuid.UUID    `json:"id"`
	Text string       `json:"question_text"`
	Type QuestionType `json:"type"`
}

// Answer belongs to a question's bank, ordered by rank (typically points
// descending). Revealed is the only mutable field.
type Answer struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	Text       string    `json:"answer_text"`
	Points     int       `json:"points"`
	Order      int       `json:"order"`
	Revealed   bool      `json:"revealed"`
}
