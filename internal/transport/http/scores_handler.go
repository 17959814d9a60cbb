package http

import (
	"encoding/json"
	"net/http"

	"quiz-arcade/internal/app"
	"quiz-arcade/internal/domain"

	"github.com/rs/zerolog"
)

// ScoresHandler exposes the leaderboard over plain HTTP:
//
//	GET    /scores?view=high|recent&category=&difficulty=
//	DELETE /scores
type ScoresHandler struct {
	service *app.QuizService
	log     zerolog.Logger
}

func NewScoresHandler(service *app.QuizService, log zerolog.Logger) *ScoresHandler {
	return &ScoresHandler{
		service: service,
		log:     log.With().Str("component", "scores_http").Logger(),
	}
}

func (h *ScoresHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.list(w, r)
	case http.MethodDelete:
		h.clear(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ScoresHandler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ScoreFilter{
		Category:   q.Get("category"),
		Difficulty: q.Get("difficulty"),
	}

	view := q.Get("view")
	var records []domain.ScoreRecord
	if view == "recent" {
		records = h.service.RecentScores(r.Context(), filter)
	} else {
		view = "high"
		records = h.service.HighScores(r.Context(), filter)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(scoresResult{View: view, Records: records}); err != nil {
		h.log.Debug().Err(err).Msg("encode scores response")
	}
}

func (h *ScoresHandler) clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearScores(r.Context()); err != nil {
		http.Error(w, "clear scores failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
