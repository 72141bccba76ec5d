package handlers

import (
	"context"
	"net/http"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/apperr"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/models"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/suggest"
)

const (
	maxPartialLength = 100
	maxWindowDays    = 365
)

// Suggester produces ranked query completions for a partial input.
type Suggester interface {
	GetSuggestions(ctx context.Context, ownerID, partial string, opts suggest.Options) ([]models.Suggestion, error)
}

type SuggestionHandler struct {
	engine Suggester
}

func NewSuggestionHandler(engine Suggester) *SuggestionHandler {
	return &SuggestionHandler{engine: engine}
}

// Get serves GET /suggestions?q=<partial>&max=<n>. Short or empty input is
// not an error; it falls back to the caller's recent searches.
func (h *SuggestionHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, err := requireOwner(r)
	if err != nil {
		writeError(w, err)
		return
	}

	partial := r.URL.Query().Get("q")
	if len(partial) > maxPartialLength {
		writeError(w, apperr.Validationf("q", "must be at most %d characters", maxPartialLength))
		return
	}
	opts := suggest.Options{
		MaxSuggestions: queryInt(r, "max", 0),
		WindowDays:     queryInt(r, "window_days", 0),
	}
	if opts.MaxSuggestions != 0 && (opts.MaxSuggestions < 1 || opts.MaxSuggestions > suggest.MaxSuggestionsCeiling) {
		writeError(w, apperr.Validationf("max", "must be between 1 and %d", suggest.MaxSuggestionsCeiling))
		return
	}
	if opts.WindowDays != 0 && (opts.WindowDays < 1 || opts.WindowDays > maxWindowDays) {
		writeError(w, apperr.Validationf("window_days", "must be between 1 and %d", maxWindowDays))
		return
	}

	suggestions, err := h.engine.GetSuggestions(r.Context(), owner, partial, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []models.Suggestion{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}
