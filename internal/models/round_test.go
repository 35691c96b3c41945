package models

import (
	"errors"
	"testing"
)

func TestRoundValidate(t *testing.T) {
	valid := []Round{
		NormalRound(1),
		NormalRound(RoundNumberSuddenDeath),
		FastMoneyRound(1),
		FastMoneyRound(5),
	}
	for _, r := range valid {
		if err := r.Validate(); err != nil {
			t.Errorf("Validate(%+v) = %v, want nil", r, err)
		}
	}

	invalid := []Round{
		NormalRound(0),
		NormalRound(7),
		FastMoneyRound(0),
		FastMoneyRound(6),
		{Number: 2, FMIndex: 3},
	}
	for _, r := range invalid {
		if err := r.Validate(); !errors.Is(err, ErrInvalidRound) {
			t.Errorf("Validate(%+v) = %v, want ErrInvalidRound", r, err)
		}
	}
}

func TestRoundLabelRoundTrip(t *testing.T) {
	labels := []RoundLabel{
		RoundLabelRound1, RoundLabelRound2, RoundLabelRound3, RoundLabelRound4,
		RoundLabelSuddenDeath, RoundLabelFastMoney,
	}
	for _, label := range labels {
		round, err := RoundFromLabel(label)
		if err != nil {
			t.Fatalf("RoundFromLabel(%s): %v", label, err)
		}
		if round.Label() != label {
			t.Errorf("Label() = %s, want %s", round.Label(), label)
		}
	}

	if _, err := RoundFromLabel("bonus_round"); err == nil {
		t.Error("expected error for unknown label")
	}

	// All five Fast Money indices share one label.
	for idx := 1; idx <= 5; idx++ {
		if FastMoneyRound(idx).Label() != RoundLabelFastMoney {
			t.Errorf("FastMoneyRound(%d).Label() != fast_money", idx)
		}
	}
}

func TestSessionQuestionRound(t *testing.T) {
	sq := SessionQuestion{RoundNumber: 3}
	if r := sq.Round(); r.Number != 3 || r.IsFastMoney() {
		t.Errorf("Round() = %+v, want normal round 3", r)
	}

	idx := 4
	sq = SessionQuestion{RoundNumber: RoundNumberFastMoney, FMIndex: &idx}
	if r := sq.Round(); !r.IsFastMoney() || r.FMIndex != 4 {
		t.Errorf("Round() = %+v, want fast money 4", r)
	}
}
