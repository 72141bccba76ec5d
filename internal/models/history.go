package models

import (
	"time"

	"github.com/google/uuid"
)

// SearchHistoryEntry is one executed query. Entries are append-only; clicks
// and satisfaction mutate the most recent matching entry within a bounded
// recency window.
type SearchHistoryEntry struct {
	ID              uuid.UUID         `json:"id" db:"id"`
	OwnerID         string            `json:"owner_id" db:"owner_id"`
	Query           string            `json:"query" db:"query"`
	NormalizedQuery string            `json:"normalized_query" db:"normalized_query"`
	ResultCount     int               `json:"result_count" db:"result_count"`
	Filters         map[string]string `json:"filters,omitempty" db:"filters"`
	Strategy        string            `json:"strategy" db:"strategy"`
	ResponseTimeMs  int64             `json:"response_time_ms" db:"response_time_ms"`
	Clicks          []ClickEvent      `json:"clicks,omitempty" db:"clicks"`
	Satisfaction    *int              `json:"satisfaction,omitempty" db:"satisfaction"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
}

type ClickEvent struct {
	DocumentID string    `json:"document_id"`
	Position   int       `json:"position"`
	ClickedAt  time.Time `json:"clicked_at"`
}

// SearchAnalytics aggregates an owner's history over a window.
type SearchAnalytics struct {
	TotalSearches       int     `json:"total_searches"`
	DistinctQueries     int     `json:"distinct_queries"`
	AverageResultCount  float64 `json:"average_result_count"`
	AverageSatisfaction float64 `json:"average_satisfaction"`
	ClickThroughRate    float64 `json:"click_through_rate"`
	WindowDays          int     `json:"window_days"`
}
