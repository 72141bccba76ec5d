package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/models"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/textnorm"
)

func makeDoc(id, title, content string, createdAt time.Time) models.Document {
	return models.Document{
		ID:         id,
		Title:      title,
		Content:    content,
		Searchable: textnorm.Normalize(content),
		Terms:      textnorm.ExtractTerms(content),
		CreatedAt:  createdAt,
	}
}

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestSearchRanksWholeWordAboveSubstring(t *testing.T) {
	docs := []models.Document{
		// "astrobiology" only contains "biology" as a substring.
		makeDoc("aaaaaaaaaaaaaaaaaaaaaaa1", "Notes", "a survey of astrobiology research", baseTime),
		makeDoc("aaaaaaaaaaaaaaaaaaaaaaa2", "Notes", "an introduction to biology", baseTime),
	}

	results := Search("biology", docs, Options{})
	require.Len(t, results, 2)
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaa2", results[0].Document.ID)
	assert.Equal(t, StrategyExact, results[0].Strategy)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchTitleBoost(t *testing.T) {
	docs := []models.Document{
		makeDoc("aaaaaaaaaaaaaaaaaaaaaaa1", "Cooking", "physics is mentioned here", baseTime),
		makeDoc("aaaaaaaaaaaaaaaaaaaaaaa2", "Physics Notes", "physics is mentioned here", baseTime),
	}

	results := Search("physics", docs, Options{})
	require.Len(t, results, 2)
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaa2", results[0].Document.ID)
}

func TestSearchDeterministicTieBreak(t *testing.T) {
	newer := baseTime.Add(time.Hour)
	docs := []models.Document{
		makeDoc("aaaaaaaaaaaaaaaaaaaaaaa2", "B", "same exact words", baseTime),
		makeDoc("aaaaaaaaaaaaaaaaaaaaaaa3", "C", "same exact words", newer),
		makeDoc("aaaaaaaaaaaaaaaaaaaaaaa1", "A", "same exact words", baseTime),
	}

	for i := 0; i < 5; i++ {
		results := Search("exact words", docs, Options{})
		require.Len(t, results, 3)
		// Newest first, then id ascending among equals.
		assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaa3", results[0].Document.ID)
		assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaa1", results[1].Document.ID)
		assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaa2", results[2].Document.ID)
	}
}

func TestSearchMinScoreAndMaxResults(t *testing.T) {
	docs := []models.Document{
		makeDoc("aaaaaaaaaaaaaaaaaaaaaaa1", "A", "quantum mechanics lecture quantum", baseTime),
		makeDoc("aaaaaaaaaaaaaaaaaaaaaaa2", "B", "brief quantum mention", baseTime),
		makeDoc("aaaaaaaaaaaaaaaaaaaaaaa3", "C", "nothing relevant here", baseTime),
	}

	all := Search("quantum", docs, Options{})
	assert.Len(t, all, 2)

	capped := Search("quantum", docs, Options{MaxResults: 1})
	assert.Len(t, capped, 1)

	filtered := Search("quantum", docs, Options{MinScore: 100})
	assert.Empty(t, filtered)
}

func TestSearchEmptyQueryAndEmptyContent(t *testing.T) {
	docs := []models.Document{
		makeDoc("aaaaaaaaaaaaaaaaaaaaaaa1", "A", "", baseTime),
		makeDoc("aaaaaaaaaaaaaaaaaaaaaaa2", "B", "real content", baseTime),
	}

	assert.Empty(t, Search("", docs, Options{}))
	assert.Empty(t, Search("???", docs, Options{}))

	results := Search("content", docs, Options{})
	require.Len(t, results, 1)
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaa2", results[0].Document.ID)
}

func TestSearchCaseSensitive(t *testing.T) {
	docs := []models.Document{
		makeDoc("aaaaaaaaaaaaaaaaaaaaaaa1", "A", "the DNA double helix", baseTime),
	}

	insensitive := Search("dna", docs, Options{})
	require.Len(t, insensitive, 1)

	// Case-sensitive matching runs against raw content; "dna" is absent.
	sensitive := Search("dna", docs, Options{CaseSensitive: true})
	assert.Empty(t, sensitive)

	// The exact-case query keeps its case and matches.
	exactCase := Search("DNA", docs, Options{CaseSensitive: true})
	require.Len(t, exactCase, 1)
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaa1", exactCase[0].Document.ID)
}

func TestSearchFuzzyStrategy(t *testing.T) {
	docs := []models.Document{
		makeDoc("aaaaaaaaaaaaaaaaaaaaaaa1", "A", "photosynthesis in plants", baseTime),
	}

	exactOnly := Search("fotosynthesis", docs, Options{Strategies: []Strategy{Exact{}}})
	assert.Empty(t, exactOnly)

	fuzzy := Search("fotosynthesis", docs, Options{Strategies: []Strategy{Fuzzy{}}})
	require.Len(t, fuzzy, 1)
	assert.Equal(t, StrategyFuzzy, fuzzy[0].Strategy)
}

func TestSearchFuzzyBudgetCountsRunes(t *testing.T) {
	docs := []models.Document{
		makeDoc("aaaaaaaaaaaaaaaaaaaaaaa1", "A", "τα μιλα ειναι κοκκινα", baseTime),
	}

	// "μηλο" is four runes, so the budget is one edit; "μιλα" is two away.
	assert.Empty(t, Search("μηλο", docs, Options{Strategies: []Strategy{Fuzzy{}}}))

	// One edit away still matches.
	one := Search("μηλα", docs, Options{Strategies: []Strategy{Fuzzy{}}})
	require.Len(t, one, 1)
}

func TestSearchMergeKeepsBestStrategy(t *testing.T) {
	docs := []models.Document{
		makeDoc("aaaaaaaaaaaaaaaaaaaaaaa1", "A", "gravity explained simply", baseTime),
	}

	results := Search("gravity", docs, Options{Strategies: []Strategy{Exact{}, Fuzzy{}}})
	require.Len(t, results, 1)
	// Exact scores wholeWordScore + titleBoost-free 2.0; fuzzy also 2.0 for a
	// perfect term. Exact wins because it runs first with a strict greater-than.
	assert.Equal(t, StrategyExact, results[0].Strategy)
}

func TestStrategiesByName(t *testing.T) {
	st, unknown := StrategiesByName(nil)
	require.Len(t, st, 1)
	assert.Empty(t, unknown)

	st, unknown = StrategiesByName([]string{"exact", "FUZZY"})
	assert.Len(t, st, 2)
	assert.Empty(t, unknown)

	_, unknown = StrategiesByName([]string{"semantic"})
	assert.Equal(t, "semantic", unknown)
}

func TestSortResults(t *testing.T) {
	older := makeDoc("aaaaaaaaaaaaaaaaaaaaaaa2", "Beta", "x", baseTime)
	older.Usage = models.UsageInfo{Generation: 5}
	newer := makeDoc("aaaaaaaaaaaaaaaaaaaaaaa1", "Alpha", "x", baseTime.Add(time.Hour))

	results := []Result{
		{Document: older, Score: 2},
		{Document: newer, Score: 1},
	}

	SortResults(results, SortDate)
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaa1", results[0].Document.ID)

	SortResults(results, SortTitle)
	assert.Equal(t, "Alpha", results[0].Document.Title)

	SortResults(results, SortUsage)
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaa2", results[0].Document.ID)
}

func TestValidSortField(t *testing.T) {
	assert.True(t, ValidSortField(SortRelevance))
	assert.True(t, ValidSortField(SortUsage))
	assert.False(t, ValidSortField("random"))
}

func TestSubstringFallback(t *testing.T) {
	docs := []models.Document{
		makeDoc("aaaaaaaaaaaaaaaaaaaaaaa1", "A", "alpha beta alpha beta", baseTime),
		makeDoc("aaaaaaaaaaaaaaaaaaaaaaa2", "B", "alpha beta once", baseTime),
		makeDoc("aaaaaaaaaaaaaaaaaaaaaaa3", "C", "unrelated", baseTime),
	}

	results := SubstringFallback("Alpha Beta", docs, 10)
	require.Len(t, results, 2)
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaa1", results[0].Document.ID)
	assert.Equal(t, "substring", results[0].Strategy)

	assert.Nil(t, SubstringFallback("", docs, 10))
	assert.Len(t, SubstringFallback("alpha", docs, 1), 1)
}
