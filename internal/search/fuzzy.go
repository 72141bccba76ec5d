package search

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/models"
)

// Fuzzy recovers from typos with bounded edit-distance matching over the
// document's term list, never against full text. Terms whose length differs
// from the query term by more than the allowed distance are skipped before
// any edit-distance computation, keeping per-document cost linear in the
// term count.
type Fuzzy struct{}

func (Fuzzy) Name() string { return StrategyFuzzy }

func (Fuzzy) Score(doc *models.Document, q Query) float64 {
	if len(q.Terms) == 0 || len(doc.Terms) == 0 {
		return 0
	}

	var score float64
	for _, qt := range q.Terms {
		qtLen := utf8.RuneCountInString(qt)
		maxDist := maxEditDistance(qtLen)
		best := maxDist + 1
		for _, dt := range doc.Terms {
			diff := utf8.RuneCountInString(dt) - qtLen
			if diff < -maxDist || diff > maxDist {
				continue
			}
			if dt == qt {
				best = 0
				break
			}
			if d := levenshtein.ComputeDistance(qt, dt); d < best {
				best = d
			}
		}
		switch {
		case best == 0:
			score += wholeWordScore
		case best <= maxDist:
			// A near miss is worth less the further away it is.
			score += 1.0 / float64(best+1) * wholeWordScore
		}
	}
	return score
}

// maxEditDistance bounds the tolerated distance by term length in runes:
// short terms admit a single edit, longer ones two.
func maxEditDistance(termLen int) int {
	if termLen <= 4 {
		return 1
	}
	return 2
}
