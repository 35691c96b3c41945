package gateway

import (
	"encoding/json"
	"time"
)

// MessageType discriminates screen messages.
type MessageType string

const (
	// MessageTypeSnapshot carries the full screen state, sent once on
	// connect and whenever a screen asks to resync.
	MessageTypeSnapshot MessageType = "snapshot"

	// MessageTypeChange carries one changed row.
	MessageTypeChange MessageType = "change"
)

// ScreenMessage is the wire format pushed to screens.
type ScreenMessage struct {
	Type      MessageType     `json:"type"`
	SessionID string          `json:"session_id"`
	Table     string          `json:"table,omitempty"`
	Op        string          `json:"op,omitempty"`
	Row       json.RawMessage `json:"row,omitempty"`
	State     *ScreenState    `json:"state,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
