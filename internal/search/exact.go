package search

import (
	"strings"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/models"
)

// Exact scores by token containment against the normalized searchable
// projection: a whole-word match is worth wholeWordScore per query term, a
// bare substring hit substringScore. Title matches add a small boost so a
// document named after the query outranks one merely mentioning it.
type Exact struct{}

const (
	wholeWordScore = 2.0
	substringScore = 1.0
	titleBoost     = 0.5
)

func (Exact) Name() string { return StrategyExact }

func (Exact) Score(doc *models.Document, q Query) float64 {
	if len(q.Terms) == 0 {
		return 0
	}

	haystack := doc.Searchable
	if q.CaseSensitive {
		// Case-sensitive matching runs against the raw content; the
		// normalized projection is lowercased.
		haystack = doc.Content
	}
	if haystack == "" {
		return 0
	}

	termSet := make(map[string]struct{}, len(doc.Terms))
	for _, t := range doc.Terms {
		termSet[t] = struct{}{}
	}
	titleNorm := strings.ToLower(doc.Title)

	var score float64
	for _, qt := range q.Terms {
		if q.CaseSensitive {
			// Query terms keep their case here; scan the raw content.
			if containsToken(haystack, qt) {
				score += wholeWordScore
			} else if strings.Contains(haystack, qt) {
				score += substringScore
			}
			continue
		}
		if _, ok := termSet[qt]; ok {
			score += wholeWordScore
		} else if strings.Contains(haystack, qt) {
			score += substringScore
		}
		if strings.Contains(titleNorm, qt) {
			score += titleBoost
		}
	}
	return score
}

func containsToken(haystack, token string) bool {
	for _, f := range strings.Fields(haystack) {
		if f == token {
			return true
		}
	}
	return false
}
