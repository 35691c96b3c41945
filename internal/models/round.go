package models

import (
	"errors"
	"fmt"
)

// ErrInvalidRound marks round and player range violations rejected before
// any write happens.
var ErrInvalidRound = errors.New("invalid round")

// RoundLabel is the string form of a round as stored on game_sessions.round.
type RoundLabel string

const (
	RoundLabelRound1      RoundLabel = "round1"
	RoundLabelRound2      RoundLabel = "round2"
	RoundLabelRound3      RoundLabel = "round3"
	RoundLabelRound4      RoundLabel = "round4"
	RoundLabelSuddenDeath RoundLabel = "sudden_death"
	RoundLabelFastMoney   RoundLabel = "fast_money"
)

// Round number assignments for session_questions.round_number.
const (
	RoundNumberSuddenDeath = 5
	RoundNumberFastMoney   = 6
)

// Round identifies one phase of play. Rounds 1-5 are normal single-question
// rounds; round 6 is Fast Money, which carries a sub-index 1..5 selecting one
// of its five questions.
type Round struct {
	Number  int
	FMIndex int
}

// NormalRound builds a Round for round numbers 1..5.
func NormalRound(number int) Round {
	return Round{Number: number}
}

// FastMoneyRound builds a Round for Fast Money question index 1..5.
func FastMoneyRound(index int) Round {
	return Round{Number: RoundNumberFastMoney, FMIndex: index}
}

// IsFastMoney reports whether the round is the Fast Money bonus round.
func (r Round) IsFastMoney() bool {
	return r.Number == RoundNumberFastMoney
}

// Validate checks the round number and Fast Money sub-index ranges.
func (r Round) Validate() error {
	if r.Number < 1 || r.Number > RoundNumberFastMoney {
		return fmt.Errorf("%w: round number %d", ErrInvalidRound, r.Number)
	}
	if r.IsFastMoney() {
		if r.FMIndex < 1 || r.FMIndex > 5 {
			return fmt.Errorf("%w: fast money index %d", ErrInvalidRound, r.FMIndex)
		}
	} else if r.FMIndex != 0 {
		return fmt.Errorf("%w: fast money index set on normal round %d", ErrInvalidRound, r.Number)
	}
	return nil
}

// Label returns the denormalized label written to game_sessions.round.
func (r Round) Label() RoundLabel {
	switch r.Number {
	case 1:
		return RoundLabelRound1
	case 2:
		return RoundLabelRound2
	case 3:
		return RoundLabelRound3
	case 4:
		return RoundLabelRound4
	case RoundNumberSuddenDeath:
		return RoundLabelSuddenDeath
	case RoundNumberFastMoney:
		return RoundLabelFastMoney
	}
	return RoundLabelRound1
}

// RoundFromLabel maps a stored label back to a round number. Fast Money
// labels map to index 1; the authoritative index lives on the current
// session_questions row.
func RoundFromLabel(label RoundLabel) (Round, error) {
	switch label {
	case RoundLabelRound1:
		return NormalRound(1), nil
	case RoundLabelRound2:
		return NormalRound(2), nil
	case RoundLabelRound3:
		return NormalRound(3), nil
	case RoundLabelRound4:
		return NormalRound(4), nil
	case RoundLabelSuddenDeath:
		return NormalRound(RoundNumberSuddenDeath), nil
	case RoundLabelFastMoney:
		return FastMoneyRound(1), nil
	}
	return Round{}, fmt.Errorf("unknown round label %q", label)
}
