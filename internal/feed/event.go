package feed

import (
	"encoding/json"
	"fmt"
	"time"
)

// ChangeEvent is one row-level change emitted by the database triggers. The
// payload carries the full new row so consumers never need a read-back.
type ChangeEvent struct {
	Table     string          `json:"table"`
	Op        string          `json:"op"`
	Row       json.RawMessage `json:"row"`
	Timestamp time.Time       `json:"timestamp"`
}

// Tables carried on the feed.
const (
	TableGameSessions       = "game_sessions"
	TableSessionQuestions   = "session_questions"
	TableAnswers            = "answers"
	TableFastMoneyResponses = "fast_money_responses"
)

// Subject maps the event to its JetStream subject under the given prefix,
// e.g. feud.changes.game_sessions.
func (e ChangeEvent) Subject(prefix string) string {
	return fmt.Sprintf("%s.%s", prefix, e.Table)
}
