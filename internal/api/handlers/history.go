package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/apperr"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/document"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/models"
)

// HistoryService is the history store surface the handlers need.
type HistoryService interface {
	RecordClick(ctx context.Context, ownerID, query, documentID string, position int) error
	UpdateSatisfaction(ctx context.Context, ownerID, query string, rating int) error
	RecentSearches(ctx context.Context, ownerID string, limit int) ([]string, error)
	Analytics(ctx context.Context, ownerID string, windowDays int) (*models.SearchAnalytics, error)
}

type HistoryHandler struct {
	svc HistoryService
}

func NewHistoryHandler(svc HistoryService) *HistoryHandler {
	return &HistoryHandler{svc: svc}
}

type clickRequest struct {
	Query      string `json:"query"`
	DocumentID string `json:"document_id"`
	Position   int    `json:"position"`
}

// Click attaches a result click to the caller's most recent matching search.
func (h *HistoryHandler) Click(w http.ResponseWriter, r *http.Request) {
	owner, err := requireOwner(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req clickRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, apperr.Validation("query", "required"))
		return
	}
	if !document.ValidID(req.DocumentID) {
		writeError(w, apperr.Validation("document_id", "malformed document id"))
		return
	}
	if req.Position < 0 {
		writeError(w, apperr.Validation("position", "must not be negative"))
		return
	}

	if err := h.svc.RecordClick(r.Context(), owner, req.Query, req.DocumentID, req.Position); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

type feedbackRequest struct {
	Query  string `json:"query"`
	Rating int    `json:"rating"`
}

// Feedback records a 1-5 satisfaction rating for a recent search.
func (h *HistoryHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	owner, err := requireOwner(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, apperr.Validation("query", "required"))
		return
	}

	if err := h.svc.UpdateSatisfaction(r.Context(), owner, req.Query, req.Rating); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// Recent lists the caller's most recent distinct queries.
func (h *HistoryHandler) Recent(w http.ResponseWriter, r *http.Request) {
	owner, err := requireOwner(r)
	if err != nil {
		writeError(w, err)
		return
	}

	limit := queryInt(r, "limit", 10)
	if limit > 50 {
		limit = 50
	}

	queries, err := h.svc.RecentSearches(r.Context(), owner, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if queries == nil {
		queries = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"queries": queries, "count": len(queries)})
}

// Analytics summarizes the caller's search behavior over a window.
func (h *HistoryHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	owner, err := requireOwner(r)
	if err != nil {
		writeError(w, err)
		return
	}

	windowDays := queryInt(r, "window_days", 30)
	if windowDays < 1 || windowDays > maxWindowDays {
		writeError(w, apperr.Validationf("window_days", "must be between 1 and %d", maxWindowDays))
		return
	}

	analytics, err := h.svc.Analytics(r.Context(), owner, windowDays)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}
