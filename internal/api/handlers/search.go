package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/apperr"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/history"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/logging"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/models"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/resilience"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/search"
)

const (
	maxQueryLength   = 1000
	defaultPageLimit = 20
	maxPageLimit     = 100
	maxPage          = 1000
	candidateLimit   = 500

	defaultContextChunks = 5
	defaultContextLength = 4000
)

// DocumentFinder supplies scoped candidate documents for ranking.
type DocumentFinder interface {
	Candidates(ctx context.Context, scope search.Scope, limit int) ([]models.Document, error)
}

// HistoryRecorder persists executed searches for analytics and suggestions.
type HistoryRecorder interface {
	RecordSearch(ctx context.Context, req history.RecordSearchRequest) (*models.SearchHistoryEntry, error)
}

// SuggestionInvalidator drops cached suggestions when history changes.
type SuggestionInvalidator interface {
	InvalidateOwner(ctx context.Context, ownerID string)
}

type SearchHandler struct {
	docs     DocumentFinder
	hist     HistoryRecorder
	suggest  SuggestionInvalidator
	fallback *resilience.Manager
	builder  *search.ContextBuilder
}

func NewSearchHandler(docs DocumentFinder, hist HistoryRecorder, sg SuggestionInvalidator,
	fm *resilience.Manager, builder *search.ContextBuilder) *SearchHandler {
	return &SearchHandler{docs: docs, hist: hist, suggest: sg, fallback: fm, builder: builder}
}

type filterSpec struct {
	SourceKinds   []string   `json:"source_kinds"`
	Tags          []string   `json:"tags"`
	DateFrom      *time.Time `json:"date_from"`
	DateTo        *time.Time `json:"date_to"`
	Language      string     `json:"language"`
	SourceName    string     `json:"source_name"`
	IncludePublic bool       `json:"include_public"`
}

func (f filterSpec) scope(ownerID string) (search.Scope, error) {
	for _, k := range f.SourceKinds {
		if !models.ValidSourceKind(k) {
			return search.Scope{}, apperr.Validationf("source_kinds", "unknown kind %q", k)
		}
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		return search.Scope{}, apperr.Validation("date_from", "must not be after date_to")
	}

	scope := search.NewScope(ownerID)
	scope.SourceKinds = f.SourceKinds
	scope.Tags = f.Tags
	scope.DateFrom = f.DateFrom
	scope.DateTo = f.DateTo
	scope.IncludePublic = f.IncludePublic
	custom := map[string]string{}
	if f.Language != "" {
		custom["language"] = f.Language
	}
	if f.SourceName != "" {
		custom["source_name"] = f.SourceName
	}
	if len(custom) > 0 {
		scope.Custom = custom
	}
	return scope, nil
}

type searchRequest struct {
	Query         string     `json:"query"`
	Strategies    []string   `json:"strategies"`
	CaseSensitive bool       `json:"case_sensitive"`
	Page          int        `json:"page"`
	Limit         int        `json:"limit"`
	MinScore      float64    `json:"min_score"`
	Filters       filterSpec `json:"filters"`
	Sort          string     `json:"sort"`
}

type pageInfo struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

type searchResponse struct {
	Query      string          `json:"query"`
	Filters    *filterSpec     `json:"filters,omitempty"`
	Sort       string          `json:"sort,omitempty"`
	Results    []search.Result `json:"results"`
	Count      int             `json:"count"`
	Pagination pageInfo        `json:"pagination"`
	Degraded   bool            `json:"degraded"`
	TookMs     int64           `json:"took_ms"`
}

// Search is the basic ranked query endpoint.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	h.serveSearch(w, r, false)
}

// Advanced accepts filters and alternate sort orders on top of Search.
func (h *SearchHandler) Advanced(w http.ResponseWriter, r *http.Request) {
	h.serveSearch(w, r, true)
}

func (h *SearchHandler) serveSearch(w http.ResponseWriter, r *http.Request, advanced bool) {
	owner, err := requireOwner(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, apperr.Validation("query", "required"))
		return
	}
	if len(req.Query) > maxQueryLength {
		writeError(w, apperr.Validationf("query", "must be at most %d characters", maxQueryLength))
		return
	}
	strategies, unknown := search.StrategiesByName(req.Strategies)
	if unknown != "" {
		writeError(w, apperr.Validationf("strategies", "unknown strategy %q", unknown))
		return
	}
	if req.Page == 0 {
		req.Page = 1
	}
	if req.Page < 1 || req.Page > maxPage {
		writeError(w, apperr.Validationf("page", "must be between 1 and %d", maxPage))
		return
	}
	if req.Limit == 0 {
		req.Limit = defaultPageLimit
	}
	if req.Limit < 1 || req.Limit > maxPageLimit {
		writeError(w, apperr.Validationf("limit", "must be between 1 and %d", maxPageLimit))
		return
	}
	sortField := req.Sort
	if sortField == "" {
		sortField = search.SortRelevance
	}
	if advanced && !search.ValidSortField(sortField) {
		writeError(w, apperr.Validationf("sort", "unknown sort %q", req.Sort))
		return
	}

	scope := search.NewScope(owner)
	if advanced {
		scope, err = req.Filters.scope(owner)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	// Rank the whole candidate set so pagination and non-relevance sorts
	// see the full result list, then slice the requested page.
	opts := search.Options{
		Strategies:    strategies,
		CaseSensitive: req.CaseSensitive,
		MinScore:      req.MinScore,
	}

	start := time.Now()
	results, degraded, err := resilience.Execute(r.Context(), h.fallback, "database", "search",
		func(ctx context.Context) ([]search.Result, error) {
			candidates, err := h.docs.Candidates(ctx, scope, candidateLimit)
			if err != nil {
				return nil, err
			}
			return search.Search(req.Query, candidates, opts), nil
		},
		func(ctx context.Context) ([]search.Result, error) {
			candidates, err := h.docs.Candidates(ctx, scope, candidateLimit)
			if err != nil {
				return nil, err
			}
			return search.SubstringFallback(req.Query, candidates, 0), nil
		},
	)
	took := time.Since(start)
	if err != nil {
		writeError(w, err)
		return
	}

	if advanced && sortField != search.SortRelevance {
		search.SortResults(results, sortField)
	}

	total := len(results)
	h.recordSearch(r.Context(), owner, req, total, degraded, took, advanced)

	page := paginate(results, req.Page, req.Limit)
	resp := searchResponse{
		Query:   req.Query,
		Results: page,
		Count:   len(page),
		Pagination: pageInfo{
			Page:       req.Page,
			Limit:      req.Limit,
			Total:      total,
			TotalPages: (total + req.Limit - 1) / req.Limit,
		},
		Degraded: degraded,
		TookMs:   took.Milliseconds(),
	}
	if advanced {
		resp.Filters = &req.Filters
		resp.Sort = sortField
	}
	writeJSON(w, http.StatusOK, resp)
}

func paginate(results []search.Result, page, limit int) []search.Result {
	start := (page - 1) * limit
	if start >= len(results) {
		return []search.Result{}
	}
	end := start + limit
	if end > len(results) {
		end = len(results)
	}
	return results[start:end]
}

// recordSearch is best-effort: a history write failure never fails the
// search response.
func (h *SearchHandler) recordSearch(ctx context.Context, owner string, req searchRequest,
	resultCount int, degraded bool, took time.Duration, advanced bool) {

	strategy := strings.Join(req.Strategies, ",")
	if strategy == "" {
		strategy = search.StrategyExact
	}
	if degraded {
		strategy = "substring"
	}

	var filters map[string]string
	if advanced {
		filters = map[string]string{}
		if len(req.Filters.SourceKinds) > 0 {
			filters["source_kinds"] = strings.Join(req.Filters.SourceKinds, ",")
		}
		if len(req.Filters.Tags) > 0 {
			filters["tags"] = strings.Join(req.Filters.Tags, ",")
		}
		if req.Filters.Language != "" {
			filters["language"] = req.Filters.Language
		}
		if req.Filters.SourceName != "" {
			filters["source_name"] = req.Filters.SourceName
		}
	}

	_, err := h.hist.RecordSearch(ctx, history.RecordSearchRequest{
		OwnerID:      owner,
		Query:        req.Query,
		ResultCount:  resultCount,
		Filters:      filters,
		Strategy:     strategy,
		ResponseTime: took,
	})
	if err != nil {
		slog.Warn("failed to record search history",
			"owner_id", owner, "query", logging.QueryPreview(req.Query), "error", err)
		return
	}
	if h.suggest != nil {
		h.suggest.InvalidateOwner(ctx, owner)
	}
}

type contextRequest struct {
	Query            string `json:"query"`
	MaxChunks        int    `json:"max_chunks"`
	MaxContextLength int    `json:"max_context_length"`
}

// Context assembles a bounded context window of top-ranked chunks for the
// generative layer.
func (h *SearchHandler) Context(w http.ResponseWriter, r *http.Request) {
	owner, err := requireOwner(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req contextRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.MaxChunks == 0 {
		req.MaxChunks = defaultContextChunks
	}
	if req.MaxContextLength == 0 {
		req.MaxContextLength = defaultContextLength
	}

	// Reject bad input here so it never counts against dependency health.
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, apperr.Validation("query", "required"))
		return
	}
	if req.MaxChunks < 1 || req.MaxChunks > search.MaxContextChunks {
		writeError(w, apperr.Validationf("max_chunks", "must be between 1 and %d", search.MaxContextChunks))
		return
	}
	if req.MaxContextLength < search.MinContextLength || req.MaxContextLength > search.MaxContextLength {
		writeError(w, apperr.Validationf("max_context_length", "must be between %d and %d",
			search.MinContextLength, search.MaxContextLength))
		return
	}

	result, _, err := resilience.Execute(r.Context(), h.fallback, "database", "context",
		func(ctx context.Context) (*search.ContextResult, error) {
			return h.builder.Build(ctx, search.ContextRequest{
				OwnerID:          owner,
				Query:            req.Query,
				MaxChunks:        req.MaxChunks,
				MaxContextLength: req.MaxContextLength,
			})
		},
		nil,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
