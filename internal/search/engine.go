// Package search executes ranked multi-strategy queries over candidate
// documents. Strategies run independently and are merged by taking, per
// document, the best score across the strategies requested. Ranking is
// fully deterministic for a given candidate set and query.
package search

import (
	"sort"
	"strings"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/models"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/textnorm"
)

// Strategy names accepted by the API.
const (
	StrategyExact = "exact"
	StrategyFuzzy = "fuzzy"
)

// Query is the parsed form of a search input, shared by all strategies.
type Query struct {
	Raw           string
	Normalized    string
	Terms         []string
	CaseSensitive bool
}

// ParseQuery normalizes and tokenizes a raw query once. Case-sensitive
// queries keep their original letter case so they can match raw content.
func ParseQuery(raw string, caseSensitive bool) Query {
	terms := textnorm.ExtractTerms(raw)
	if caseSensitive {
		terms = textnorm.ExtractTermsCased(raw)
	}
	return Query{
		Raw:           raw,
		Normalized:    textnorm.Normalize(raw),
		Terms:         terms,
		CaseSensitive: caseSensitive,
	}
}

// Strategy scores a single document against a query. Implementations must
// be pure: no shared mutable state, no errors — a document with nothing to
// match simply scores zero.
type Strategy interface {
	Name() string
	Score(doc *models.Document, q Query) float64
}

// Result is one ranked document.
type Result struct {
	Document models.Document `json:"document"`
	Score    float64         `json:"score"`
	Strategy string          `json:"strategy"`
}

type Options struct {
	Strategies    []Strategy
	CaseSensitive bool
	MaxResults    int
	MinScore      float64
}

// Search scores candidates with every requested strategy, keeps the best
// score per document, drops scores below MinScore, orders by score with
// ties broken by most recent CreatedAt then document id, and caps the
// output at MaxResults.
func Search(rawQuery string, candidates []models.Document, opts Options) []Result {
	strategies := opts.Strategies
	if len(strategies) == 0 {
		strategies = []Strategy{Exact{}}
	}
	q := ParseQuery(rawQuery, opts.CaseSensitive)

	results := make([]Result, 0, len(candidates))
	for i := range candidates {
		doc := &candidates[i]
		best := 0.0
		bestName := ""
		for _, st := range strategies {
			if score := st.Score(doc, q); score > best {
				best = score
				bestName = st.Name()
			}
		}
		if best <= 0 || best < opts.MinScore {
			continue
		}
		results = append(results, Result{Document: *doc, Score: best, Strategy: bestName})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if !results[i].Document.CreatedAt.Equal(results[j].Document.CreatedAt) {
			return results[i].Document.CreatedAt.After(results[j].Document.CreatedAt)
		}
		return results[i].Document.ID < results[j].Document.ID
	})

	if opts.MaxResults > 0 && len(results) > opts.MaxResults {
		results = results[:opts.MaxResults]
	}
	return results
}

// StrategiesByName resolves strategy names, defaulting to exact. Unknown
// names are reported so the handler can reject them.
func StrategiesByName(names []string) ([]Strategy, string) {
	if len(names) == 0 {
		return []Strategy{Exact{}}, ""
	}
	var out []Strategy
	for _, n := range names {
		switch strings.ToLower(n) {
		case StrategyExact:
			out = append(out, Exact{})
		case StrategyFuzzy:
			out = append(out, Fuzzy{})
		default:
			return nil, n
		}
	}
	return out, ""
}

// Sort fields accepted by advanced search.
const (
	SortRelevance = "relevance"
	SortDate      = "date"
	SortTitle     = "title"
	SortUsage     = "usage"
)

// ValidSortField reports whether field is an accepted sort order.
func ValidSortField(field string) bool {
	switch field {
	case SortRelevance, SortDate, SortTitle, SortUsage:
		return true
	}
	return false
}

// SortResults reorders ranked results by the requested field. Relevance is
// the order Search already produced. All orders use document id as the
// final tie-break for determinism.
func SortResults(results []Result, field string) {
	switch field {
	case SortDate:
		sort.SliceStable(results, func(i, j int) bool {
			if !results[i].Document.CreatedAt.Equal(results[j].Document.CreatedAt) {
				return results[i].Document.CreatedAt.After(results[j].Document.CreatedAt)
			}
			return results[i].Document.ID < results[j].Document.ID
		})
	case SortTitle:
		sort.SliceStable(results, func(i, j int) bool {
			ti, tj := strings.ToLower(results[i].Document.Title), strings.ToLower(results[j].Document.Title)
			if ti != tj {
				return ti < tj
			}
			return results[i].Document.ID < results[j].Document.ID
		})
	case SortUsage:
		sort.SliceStable(results, func(i, j int) bool {
			ui, uj := results[i].Document.Usage.Total(), results[j].Document.Usage.Total()
			if ui != uj {
				return ui > uj
			}
			return results[i].Document.ID < results[j].Document.ID
		})
	}
}

// SubstringFallback is the degraded search path used when the engine itself
// fails: a plain substring scan over the normalized projection, scored by
// match count only.
func SubstringFallback(rawQuery string, candidates []models.Document, maxResults int) []Result {
	needle := textnorm.Normalize(rawQuery)
	if needle == "" {
		return nil
	}
	var results []Result
	for i := range candidates {
		if n := strings.Count(candidates[i].Searchable, needle); n > 0 {
			results = append(results, Result{
				Document: candidates[i],
				Score:    float64(n),
				Strategy: "substring",
			})
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.ID < results[j].Document.ID
	})
	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}
