package fastmoney

import (
	"testing"

	"github.com/google/uuid"

	"github.com/feudcast/feudcast/internal/models"
)

func bank(texts ...string) []models.Answer {
	out := make([]models.Answer, len(texts))
	for i, text := range texts {
		out[i] = models.Answer{ID: uuid.New(), Text: text, Points: (len(texts) - i) * 10}
	}
	return out
}

func TestBestMatchExact(t *testing.T) {
	answers := bank("Dog", "Cat", "Fish")

	got := BestMatch("cat", answers)
	if got == nil || got.Text != "Cat" {
		t.Fatalf("BestMatch(cat) = %v, want Cat", got)
	}

	got = BestMatch("  DOG  ", answers)
	if got == nil || got.Text != "Dog" {
		t.Fatalf("BestMatch(DOG) = %v, want Dog", got)
	}
}

func TestBestMatchSubstring(t *testing.T) {
	answers := bank("Dog", "Cat", "Fish")

	got := BestMatch("a goldfish", answers)
	if got == nil || got.Text != "Fish" {
		t.Fatalf("BestMatch(a goldfish) = %v, want Fish", got)
	}
}

func TestBestMatchExactBeatsSubstring(t *testing.T) {
	// "cat" is contained in the typed text via the second entry, but the
	// exact match on the lower-ranked entry must win.
	answers := bank("Catfish", "Cat")

	got := BestMatch("cat", answers)
	if got == nil || got.Text != "Cat" {
		t.Fatalf("BestMatch(cat) = %v, want Cat", got)
	}
}

func TestBestMatchRankOrderBreaksTies(t *testing.T) {
	answers := bank("Dog", "Do")

	// Both entries are substrings of the typed text; the first in rank
	// order wins.
	got := BestMatch("dogs", answers)
	if got == nil || got.Text != "Dog" {
		t.Fatalf("BestMatch(dogs) = %v, want Dog", got)
	}
}

func TestBestMatchNone(t *testing.T) {
	answers := bank("Dog", "Cat")

	if got := BestMatch("zebra", answers); got != nil {
		t.Fatalf("BestMatch(zebra) = %v, want nil", got)
	}
	if got := BestMatch("", answers); got != nil {
		t.Fatalf("BestMatch(empty) = %v, want nil", got)
	}
	if got := BestMatch("   ", answers); got != nil {
		t.Fatalf("BestMatch(blank) = %v, want nil", got)
	}
	if got := BestMatch("dog", nil); got != nil {
		t.Fatalf("BestMatch with empty bank = %v, want nil", got)
	}
}
