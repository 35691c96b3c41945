package gateway

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for game screens.
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	provider          StateProvider
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(cm *ConnectionManager, provider StateProvider) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		provider:          provider,
	}
}

// HandleScreenConnection handles WebSocket connections for a session's
// screens. The connection is seeded with a full snapshot so changes have a
// base to apply against.
func (h *WebSocketHandler) HandleScreenConnection(w http.ResponseWriter, r *http.Request) {
	sessionIDStr := r.URL.Query().Get("session_id")
	if sessionIDStr == "" {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	sessionID, err := uuid.Parse(sessionIDStr)
	if err != nil {
		http.Error(w, "invalid session_id format", http.StatusBadRequest)
		return
	}

	screen := r.URL.Query().Get("screen")
	if screen == "" {
		screen = "audience"
	}

	state, err := h.provider.Snapshot(r.Context(), sessionID)
	if err != nil {
		log.Error().
			Err(err).
			Str("session_id", sessionID.String()).
			Msg("failed to load snapshot for connection")
		http.Error(w, "failed to load session state", http.StatusInternalServerError)
		return
	}

	snapshot := &ScreenMessage{
		Type:      MessageTypeSnapshot,
		SessionID: sessionID.String(),
		State:     state,
		Timestamp: time.Now().UTC(),
	}

	if err := h.connectionManager.UpgradeConnection(w, r, screen, sessionID, snapshot); err != nil {
		log.Error().
			Err(err).
			Str("session_id", sessionID.String()).
			Str("screen", screen).
			Msg("failed to upgrade WebSocket connection")
		return
	}
}

// HandleConnectionStats returns statistics about active connections.
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	total, _ := h.connectionManager.ConnectionStats()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"total_connections":` + strconv.Itoa(total) + `}`))
}

// RegisterRoutes registers WebSocket routes with an HTTP mux.
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/screen", h.HandleScreenConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
