// Package suggest produces ranked autocomplete suggestions by combining
// terms from the owner's documents with their own search history, falling
// back to recent searches. It degrades, never errors, on "no matches".
package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/history"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/models"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/textnorm"
)

const (
	// DefaultMaxSuggestions applies when the caller does not ask for a
	// count; MaxSuggestionsCeiling is enforced regardless of what the
	// caller asks for.
	DefaultMaxSuggestions = 10
	MaxSuggestionsCeiling = 20

	// MinPartialLength is the shortest input worth computing suggestions
	// for; anything shorter gets recent searches.
	MinPartialLength = 2

	ownerDocumentLimit = 200
)

// Content scoring: every candidate term already starts with the partial, so
// the prefix score is the base; an exact match, a short completion, and a
// high (log-scaled, title-discounted) document frequency raise it.
const (
	contentPrefixScore = 3.0
	contentExactBonus  = 1.0
	shortnessWeight    = 2.0
	titleTermWeight    = 0.5
)

// History scoring: prefix matches beat substring matches, then log-scaled
// frequency, recency decay, and the historical result count.
const (
	historyPrefixScore   = 3.0
	historyContainsScore = 1.0
	recencyWeight        = 2.0
	recencyDecayHours    = 168 // one week
	resultCountCap       = 10
)

// DocumentSource provides the owner's indexed documents. Implemented by the
// document store.
type DocumentSource interface {
	List(ctx context.Context, ownerID string, limit, offset int) ([]models.Document, error)
}

// HistorySource provides personalization data. Implemented by the history
// store.
type HistorySource interface {
	RecentSearches(ctx context.Context, ownerID string, limit int) ([]string, error)
	QueryStats(ctx context.Context, ownerID, partial string, windowDays int) ([]history.QueryStat, error)
}

type Engine struct {
	docs  DocumentSource
	hist  HistorySource
	cache Cache
	now   func() time.Time
}

func NewEngine(docs DocumentSource, hist HistorySource, cache Cache) *Engine {
	return &Engine{docs: docs, hist: hist, cache: cache, now: time.Now}
}

type Options struct {
	MaxSuggestions int
	WindowDays     int
}

func (o *Options) normalize() {
	if o.MaxSuggestions <= 0 {
		o.MaxSuggestions = DefaultMaxSuggestions
	}
	if o.MaxSuggestions > MaxSuggestionsCeiling {
		o.MaxSuggestions = MaxSuggestionsCeiling
	}
	if o.WindowDays <= 0 {
		o.WindowDays = 30
	}
}

// GetSuggestions returns at most the requested (capped) number of ranked
// suggestions. Short input and zero matches both fall back to the owner's
// recent searches; neither is an error.
func (e *Engine) GetSuggestions(ctx context.Context, ownerID, partial string, opts Options) ([]models.Suggestion, error) {
	opts.normalize()
	normalized := textnorm.Normalize(partial)

	if len(normalized) < MinPartialLength {
		return e.recentSearches(ctx, ownerID, opts.MaxSuggestions)
	}

	cacheKey := fmt.Sprintf("%s:%d", normalized, opts.MaxSuggestions)
	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, ownerID, cacheKey); ok {
			return cached, nil
		}
	}

	// Content and history sources degrade independently: a failing source
	// is logged and skipped rather than failing the request.
	content := e.contentSuggestions(ctx, ownerID, normalized)
	hist := e.historySuggestions(ctx, ownerID, normalized, opts.WindowDays)

	merged := dedupe(append(content, hist...))
	sortSuggestions(merged)
	if len(merged) > opts.MaxSuggestions {
		merged = merged[:opts.MaxSuggestions]
	}

	if len(merged) == 0 {
		return e.recentSearches(ctx, ownerID, opts.MaxSuggestions)
	}

	if e.cache != nil {
		e.cache.Set(ctx, ownerID, cacheKey, merged)
	}
	return merged, nil
}

// InvalidateOwner drops the owner's cached suggestions. Called whenever the
// owner records a new search.
func (e *Engine) InvalidateOwner(ctx context.Context, ownerID string) {
	if e.cache != nil {
		e.cache.InvalidateOwner(ctx, ownerID)
	}
}

func (e *Engine) recentSearches(ctx context.Context, ownerID string, limit int) ([]models.Suggestion, error) {
	queries, err := e.hist.RecentSearches(ctx, ownerID, limit)
	if err != nil {
		slog.Warn("recent searches unavailable", "owner_id", ownerID, "error", err)
		return []models.Suggestion{}, nil
	}
	out := make([]models.Suggestion, 0, len(queries))
	for i, q := range queries {
		out = append(out, models.Suggestion{
			Text:      q,
			Type:      models.SuggestionRecent,
			Source:    "search_history",
			Frequency: 1,
			// Newest first: rank by position only.
			Relevance: float64(len(queries) - i),
		})
	}
	return out, nil
}

// contentSuggestions collects terms across the owner's documents whose
// normalized form starts with the partial. Frequency counts distinct
// documents containing the term; terms appearing only in titles are
// discounted.
func (e *Engine) contentSuggestions(ctx context.Context, ownerID, partial string) []models.Suggestion {
	docs, err := e.docs.List(ctx, ownerID, ownerDocumentLimit, 0)
	if err != nil {
		slog.Warn("content suggestions unavailable", "owner_id", ownerID, "error", err)
		return nil
	}

	bodyDocs := make(map[string]int)
	titleDocs := make(map[string]int)
	for i := range docs {
		seen := make(map[string]struct{})
		for _, t := range docs[i].Terms {
			if strings.HasPrefix(t, partial) {
				if _, ok := seen[t]; !ok {
					seen[t] = struct{}{}
					bodyDocs[t]++
				}
			}
		}
		seenTitle := make(map[string]struct{})
		for _, t := range textnorm.ExtractTerms(docs[i].Title) {
			if strings.HasPrefix(t, partial) {
				if _, ok := seenTitle[t]; !ok {
					seenTitle[t] = struct{}{}
					titleDocs[t]++
				}
			}
		}
	}

	terms := make([]string, 0, len(bodyDocs)+len(titleDocs))
	for t := range bodyDocs {
		terms = append(terms, t)
	}
	for t := range titleDocs {
		if _, ok := bodyDocs[t]; !ok {
			terms = append(terms, t)
		}
	}
	sort.Strings(terms) // deterministic regardless of map order

	out := make([]models.Suggestion, 0, len(terms))
	for _, t := range terms {
		freq := bodyDocs[t] + titleDocs[t]
		weighted := float64(bodyDocs[t]) + titleTermWeight*float64(titleDocs[t])
		out = append(out, models.Suggestion{
			Text:      t,
			Type:      models.SuggestionContent,
			Source:    "documents",
			Frequency: freq,
			Relevance: ContentScore(t, partial, weighted),
		})
	}
	return out
}

// ContentScore is the documented content-suggestion formula: prefix base,
// exact-match bonus, shorter completions score higher, and document
// frequency contributes log-scaled so no single term dominates.
func ContentScore(term, partial string, weightedFreq float64) float64 {
	score := contentPrefixScore
	if term == partial {
		score += contentExactBonus
	}
	extra := len(term) - len(partial)
	if extra < 0 {
		extra = 0
	}
	score += shortnessWeight / float64(1+extra)
	score += math.Log1p(weightedFreq)
	return score
}

func (e *Engine) historySuggestions(ctx context.Context, ownerID, partial string, windowDays int) []models.Suggestion {
	stats, err := e.hist.QueryStats(ctx, ownerID, partial, windowDays)
	if err != nil {
		slog.Warn("history suggestions unavailable", "owner_id", ownerID, "error", err)
		return nil
	}

	now := e.now()
	out := make([]models.Suggestion, 0, len(stats))
	for _, st := range stats {
		out = append(out, models.Suggestion{
			Text:      st.Query,
			Type:      models.SuggestionHistory,
			Source:    "search_history",
			Frequency: st.Frequency,
			Relevance: HistoryScore(st, partial, now),
		})
	}
	return out
}

// HistoryScore is the documented history-suggestion formula: prefix match
// beats substring, frequency is log-scaled, recency decays exponentially
// with a one-week constant, and queries that historically returned results
// earn up to one extra point.
func HistoryScore(st history.QueryStat, partial string, now time.Time) float64 {
	var score float64
	if strings.HasPrefix(st.Query, partial) {
		score += historyPrefixScore
	} else {
		score += historyContainsScore
	}
	score += math.Log1p(float64(st.Frequency))

	ageHours := now.Sub(st.LastSearched).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	score += recencyWeight * math.Exp(-ageHours/recencyDecayHours)

	avg := st.AvgResults
	if avg > resultCountCap {
		avg = resultCountCap
	}
	score += avg / resultCountCap
	return score
}

// dedupe collapses suggestions sharing a normalized text, keeping the
// higher-scoring entry.
func dedupe(suggestions []models.Suggestion) []models.Suggestion {
	best := make(map[string]models.Suggestion, len(suggestions))
	order := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		key := textnorm.Normalize(s.Text)
		cur, ok := best[key]
		if !ok {
			best[key] = s
			order = append(order, key)
			continue
		}
		if s.Relevance > cur.Relevance {
			best[key] = s
		}
	}
	out := make([]models.Suggestion, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}

// sortSuggestions orders by relevance desc, then frequency desc, then
// source priority (content > history > recent), then text for determinism.
func sortSuggestions(suggestions []models.Suggestion) {
	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		if a.Relevance != b.Relevance {
			return a.Relevance > b.Relevance
		}
		if a.Frequency != b.Frequency {
			return a.Frequency > b.Frequency
		}
		if pa, pb := models.SourcePriority(a.Type), models.SourcePriority(b.Type); pa != pb {
			return pa > pb
		}
		return a.Text < b.Text
	})
}
