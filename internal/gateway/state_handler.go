package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/feudcast/feudcast/internal/session"
)

// StateProvider resolves the active session and builds screen snapshots.
type StateProvider interface {
	ActiveSessionID(ctx context.Context) (uuid.UUID, error)
	Snapshot(ctx context.Context, sessionID uuid.UUID) (*ScreenState, error)
}

// StateHandler serves snapshot reads over HTTP. Screens use it on load and
// as a resync path when their socket reconnects.
type StateHandler struct {
	provider StateProvider
}

// NewStateHandler creates a new state handler.
func NewStateHandler(provider StateProvider) *StateHandler {
	return &StateHandler{provider: provider}
}

// activeResponse wraps the bootstrap result. Session is null when no single
// active session exists; screens render their idle card on that.
type activeResponse struct {
	SessionID *string      `json:"session_id"`
	State     *ScreenState `json:"state"`
}

// HandleGetActive handles GET /api/sessions/active.
func (h *StateHandler) HandleGetActive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID, err := h.provider.ActiveSessionID(r.Context())
	if err != nil {
		if errors.Is(err, session.ErrNoActiveSession) {
			writeJSON(w, activeResponse{})
			return
		}
		log.Error().Err(err).Msg("failed to resolve active session")
		http.Error(w, "Failed to resolve active session", http.StatusInternalServerError)
		return
	}

	state, err := h.provider.Snapshot(r.Context(), sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID.String()).Msg("failed to load snapshot")
		http.Error(w, "Failed to load session state", http.StatusInternalServerError)
		return
	}

	id := sessionID.String()
	writeJSON(w, activeResponse{SessionID: &id, State: state})
}

// HandleGetState handles GET /api/sessions/{id}/state.
func (h *StateHandler) HandleGetState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionIDStr := extractSessionIDFromPath(r.URL.Path)
	if sessionIDStr == "" {
		http.Error(w, "Session ID is required", http.StatusBadRequest)
		return
	}

	sessionID, err := uuid.Parse(sessionIDStr)
	if err != nil {
		http.Error(w, "Invalid session ID format", http.StatusBadRequest)
		return
	}

	state, err := h.provider.Snapshot(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		log.Error().Err(err).Str("session_id", sessionID.String()).Msg("failed to load snapshot")
		http.Error(w, "Failed to load session state", http.StatusInternalServerError)
		return
	}

	writeJSON(w, state)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// extractSessionIDFromPath extracts the id from /api/sessions/{id}/state.
func extractSessionIDFromPath(path string) string {
	const prefix = "/api/sessions/"
	const suffix = "/state"

	if !strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return ""
	}
	id := strings.TrimSuffix(strings.TrimPrefix(path, prefix), suffix)
	if strings.Contains(id, "/") {
		return ""
	}
	return id
}
