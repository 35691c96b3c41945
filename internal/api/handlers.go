package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/feudcast/feudcast/internal/fastmoney"
	"github.com/feudcast/feudcast/internal/gateway"
	"github.com/feudcast/feudcast/internal/models"
	"github.com/feudcast/feudcast/internal/questions"
	"github.com/feudcast/feudcast/internal/rounds"
	"github.com/feudcast/feudcast/internal/session"
	"github.com/feudcast/feudcast/internal/setup"
)

// Handler exposes the operator command surface over HTTP. Every command is
// a POST that writes through to the store; screens pick the result up from
// the change feed, so responses only confirm the write.
type Handler struct {
	sessions  *session.Repository
	questions *questions.Repository
	navigator *rounds.Navigator
	engine    *fastmoney.Engine
	setup     *setup.Service
	state     *gateway.StateHandler
}

// NewHandler creates the operator API handler.
func NewHandler(
	sessions *session.Repository,
	qs *questions.Repository,
	navigator *rounds.Navigator,
	engine *fastmoney.Engine,
	setupSvc *setup.Service,
	state *gateway.StateHandler,
) *Handler {
	return &Handler{
		sessions:  sessions,
		questions: qs,
		navigator: navigator,
		engine:    engine,
		setup:     setupSvc,
		state:     state,
	}
}

// RegisterRoutes registers the operator API on the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/questions", h.handleListQuestions)
	mux.HandleFunc("/api/sessions", h.handleCreateSession)
	mux.HandleFunc("/api/sessions/", h.handleSessionSubtree)
}

// handleSessionSubtree routes /api/sessions/{id}/<command> and the snapshot
// reads under the same prefix.
func (h *Handler) handleSessionSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	if rest == "active" {
		h.state.HandleGetActive(w, r)
		return
	}

	idPart, command, _ := strings.Cut(rest, "/")
	if command == "state" {
		h.state.HandleGetState(w, r)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessionID, err := uuid.Parse(idPart)
	if err != nil {
		http.Error(w, "Invalid session ID format", http.StatusBadRequest)
		return
	}

	h.dispatchCommand(w, r, sessionID, command)
}

func (h *Handler) dispatchCommand(w http.ResponseWriter, r *http.Request, sessionID uuid.UUID, command string) {
	ctx := r.Context()

	switch command {
	case "switch-round":
		h.handleSwitchRound(ctx, w, r, sessionID)
	case "reveal-question":
		var req struct {
			Show bool `json:"show"`
		}
		if !decode(w, r, &req) {
			return
		}
		h.respond(w, h.navigator.RevealCurrentQuestion(ctx, sessionID, req.Show), nil)
	case "finalize-round":
		result, err := h.navigator.FinalizeRound(ctx, sessionID)
		h.respond(w, err, result)
	case "reset-round":
		h.respond(w, h.navigator.ResetRound(ctx, sessionID), nil)
	case "reset":
		h.respond(w, h.navigator.ResetSession(ctx, sessionID), nil)

	case "answers/reveal":
		var req struct {
			AnswerID uuid.UUID `json:"answer_id"`
			Revealed bool      `json:"revealed"`
		}
		if !decode(w, r, &req) {
			return
		}
		h.respond(w, h.questions.SetAnswerRevealed(ctx, req.AnswerID, req.Revealed), nil)
	case "answers/reveal-all":
		var req struct {
			QuestionID uuid.UUID `json:"question_id"`
			Revealed   bool      `json:"revealed"`
		}
		if !decode(w, r, &req) {
			return
		}
		h.respond(w, h.questions.SetAllRevealed(ctx, req.QuestionID, req.Revealed), nil)

	case "strike":
		strikes, err := h.sessions.AddStrike(ctx, sessionID)
		h.respond(w, err, map[string]int{"strikes": strikes})
	case "strikes":
		var req struct {
			Strikes int `json:"strikes"`
		}
		if !decode(w, r, &req) {
			return
		}
		strikes, err := h.sessions.SetStrikes(ctx, sessionID, req.Strikes)
		h.respond(w, err, map[string]int{"strikes": strikes})
	case "strike-limit":
		var req struct {
			Limit int `json:"limit"`
		}
		if !decode(w, r, &req) {
			return
		}
		if req.Limit < 1 || req.Limit > 5 {
			http.Error(w, "strike limit must be 1-5", http.StatusBadRequest)
			return
		}
		h.respond(w, h.sessions.SetStrikeLimit(ctx, sessionID, req.Limit), nil)

	case "score":
		var req struct {
			Team  int `json:"team"`
			Delta int `json:"delta"`
		}
		if !decode(w, r, &req) {
			return
		}
		team, ok := parseTeam(req.Team)
		if !ok {
			http.Error(w, "team must be 1 or 2", http.StatusBadRequest)
			return
		}
		score, err := h.sessions.AdjustScore(ctx, sessionID, team, req.Delta)
		h.respond(w, err, map[string]int{"score": score})
	case "active-team":
		var req struct {
			Team int `json:"team"`
		}
		if !decode(w, r, &req) {
			return
		}
		team, ok := parseTeam(req.Team)
		if !ok {
			http.Error(w, "team must be 1 or 2", http.StatusBadRequest)
			return
		}
		h.respond(w, h.sessions.SetActiveTeam(ctx, sessionID, team), nil)
	case "transfer-control":
		team, err := h.sessions.TransferControl(ctx, sessionID)
		h.respond(w, err, map[string]int{"active_team": int(team)})
	case "team-names":
		var req struct {
			Team1 string `json:"team1"`
			Team2 string `json:"team2"`
		}
		if !decode(w, r, &req) {
			return
		}
		h.respond(w, h.sessions.SetTeamNames(ctx, sessionID, req.Team1, req.Team2), nil)

	default:
		if strings.HasPrefix(command, "fm/") {
			h.dispatchFastMoney(ctx, w, r, sessionID, strings.TrimPrefix(command, "fm/"))
			return
		}
		http.NotFound(w, r)
	}
}

func (h *Handler) handleSwitchRound(ctx context.Context, w http.ResponseWriter, r *http.Request, sessionID uuid.UUID) {
	var req struct {
		Round   int  `json:"round"`
		FMIndex int  `json:"fm_index"`
		Reset   bool `json:"reset"`
	}
	if !decode(w, r, &req) {
		return
	}

	var round models.Round
	if req.Round == models.RoundNumberFastMoney {
		idx := req.FMIndex
		if idx == 0 {
			idx = 1
		}
		round = models.FastMoneyRound(idx)
	} else {
		round = models.NormalRound(req.Round)
	}

	result, err := h.navigator.SwitchTo(ctx, sessionID, round, req.Reset)
	h.respond(w, err, result)
}

func (h *Handler) dispatchFastMoney(ctx context.Context, w http.ResponseWriter, r *http.Request, sessionID uuid.UUID, command string) {
	key := func(index, player int) fastmoney.ResponseKey {
		return fastmoney.ResponseKey{
			SessionID:     sessionID,
			QuestionIndex: index,
			PlayerNumber:  models.PlayerNumber(player),
		}
	}

	switch command {
	case "ensure":
		var req struct {
			Index  int `json:"index"`
			Player int `json:"player"`
		}
		if !decode(w, r, &req) {
			return
		}
		resp, err := h.engine.EnsureResponse(ctx, key(req.Index, req.Player))
		h.respond(w, err, resp)
	case "answer":
		var req struct {
			Index  int    `json:"index"`
			Player int    `json:"player"`
			Text   string `json:"text"`
		}
		if !decode(w, r, &req) {
			return
		}
		h.respond(w, h.engine.TypeAnswer(ctx, key(req.Index, req.Player), req.Text), nil)
	case "reveal-answer":
		var req struct {
			Index  int `json:"index"`
			Player int `json:"player"`
		}
		if !decode(w, r, &req) {
			return
		}
		h.respond(w, h.engine.RevealAnswer(ctx, key(req.Index, req.Player)), nil)
	case "reveal-points":
		var req struct {
			Index  int `json:"index"`
			Player int `json:"player"`
		}
		if !decode(w, r, &req) {
			return
		}
		points, err := h.engine.RevealPoints(ctx, key(req.Index, req.Player))
		h.respond(w, err, map[string]int{"points": points})
	case "reveal-zero":
		var req struct {
			Index  int `json:"index"`
			Player int `json:"player"`
		}
		if !decode(w, r, &req) {
			return
		}
		h.respond(w, h.engine.RevealZero(ctx, key(req.Index, req.Player)), nil)
	case "reveal-question":
		h.respond(w, h.engine.RevealQuestion(ctx, sessionID), nil)
	case "navigate":
		var req struct {
			Index int `json:"index"`
		}
		if !decode(w, r, &req) {
			return
		}
		result, err := h.engine.Navigate(ctx, sessionID, req.Index)
		h.respond(w, err, result)
	case "switch-player":
		var req struct {
			Index  int `json:"index"`
			Player int `json:"player"`
		}
		if !decode(w, r, &req) {
			return
		}
		resp, err := h.engine.SwitchPlayer(ctx, sessionID, req.Index, models.PlayerNumber(req.Player))
		h.respond(w, err, resp)
	case "toggle-hide":
		hidden, err := h.engine.ToggleHideP1(ctx, sessionID)
		h.respond(w, err, map[string]bool{"fm_hide_p1": hidden})
	case "reset":
		h.respond(w, h.engine.ResetAll(ctx, sessionID), nil)

	case "timer/start":
		h.respond(w, h.engine.StartTimer(ctx, sessionID), nil)
	case "timer/pause":
		remaining, err := h.engine.PauseTimer(ctx, sessionID)
		h.respond(w, err, map[string]int{"remaining": remaining})
	case "timer/reset":
		h.respond(w, h.engine.ResetTimer(ctx, sessionID), nil)
	case "timer/duration":
		var req struct {
			Seconds int `json:"seconds"`
		}
		if !decode(w, r, &req) {
			return
		}
		h.respond(w, h.engine.SetDuration(ctx, sessionID, req.Seconds), nil)
	case "timer/remaining":
		remaining, err := h.engine.Remaining(ctx, sessionID)
		h.respond(w, err, map[string]int{"remaining": remaining})

	default:
		http.NotFound(w, r)
	}
}

// handleCreateSession handles POST /api/sessions.
func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Team1Name          string            `json:"team1_name"`
		Team2Name          string            `json:"team2_name"`
		StrikeLimit        int               `json:"strike_limit"`
		FastMoneySeconds   int               `json:"fast_money_seconds"`
		RoundQuestions     map[int]uuid.UUID `json:"round_questions"`
		FastMoneyQuestions []uuid.UUID       `json:"fast_money_questions"`
	}
	if !decode(w, r, &req) {
		return
	}

	sessionID, err := h.setup.CreateSession(r.Context(), setup.CreateSessionParams{
		Team1Name:          req.Team1Name,
		Team2Name:          req.Team2Name,
		StrikeLimit:        req.StrikeLimit,
		FastMoneySeconds:   req.FastMoneySeconds,
		RoundQuestions:     req.RoundQuestions,
		FastMoneyQuestions: req.FastMoneyQuestions,
	})
	if err != nil {
		h.respond(w, err, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"session_id": sessionID.String()})
}

// handleListQuestions handles GET /api/questions.
func (h *Handler) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pools, err := h.questions.ListPools(r.Context())
	if err != nil {
		h.respond(w, err, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(pools)
}

// respond maps domain errors to HTTP status codes and writes the result.
func (h *Handler) respond(w http.ResponseWriter, err error, body any) {
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			log.Error().Err(err).Msg("command failed")
		}
		http.Error(w, err.Error(), status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if body == nil {
		body = map[string]bool{"ok": true}
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, session.ErrNoActiveSession),
		errors.Is(err, questions.ErrQuestionNotFound),
		errors.Is(err, rounds.ErrRowNotFound),
		errors.Is(err, rounds.ErrNoCurrentQuestion),
		errors.Is(err, fastmoney.ErrResponseNotFound):
		return http.StatusNotFound
	case errors.Is(err, rounds.ErrFastMoneyRound),
		errors.Is(err, setup.ErrIncompleteSelection),
		errors.Is(err, models.ErrInvalidRound):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func parseTeam(n int) (models.Team, bool) {
	switch n {
	case 1:
		return models.Team1, true
	case 2:
		return models.Team2, true
	default:
		return 0, false
	}
}
