package fastmoney

import (
	"strings"

	"github.com/feudcast/feudcast/internal/models"
)

// BestMatch finds the bank answer a typed response should score against.
// Case-insensitive exact match wins; otherwise the first bank entry (in rank
// order) whose text is contained in the typed text. Returns nil when nothing
// matches. The result is advisory only; the operator can still force zero.
func BestMatch(typed string, bank []models.Answer) *models.Answer {
	t := strings.ToLower(strings.TrimSpace(typed))
	if t == "" {
		return nil
	}
	for i := range bank {
		if strings.ToLower(bank[i].Text) == t {
			return &bank[i]
		}
	}
	for i := range bank {
		if strings.Contains(t, strings.ToLower(bank[i].Text)) {
			return &bank[i]
		}
	}
	return nil
}
