// Package history is the append-only log of executed searches, clicks, and
// satisfaction feedback. It is the source of truth for personalization
// (suggestion ranking, recent searches) and for per-user analytics.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/apperr"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/models"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/textnorm"
)

// Recency windows for attaching mutations to the most recent matching
// entry. Under truly concurrent duplicate queries from one user the "most
// recent" pick is racy; that is an accepted limitation, not a bug.
const (
	ClickWindow        = time.Hour
	SatisfactionWindow = 24 * time.Hour
)

type Service struct {
	db *pgxpool.Pool
}

func NewService(db *pgxpool.Pool) *Service {
	return &Service{db: db}
}

type RecordSearchRequest struct {
	OwnerID      string
	Query        string
	ResultCount  int
	Filters      map[string]string
	Strategy     string
	ResponseTime time.Duration
}

// RecordSearch appends one entry per executed query. Zero-result and
// fallback searches still count. The normalized query is derived here and
// must never be empty for a persisted entry.
func (s *Service) RecordSearch(ctx context.Context, req RecordSearchRequest) (*models.SearchHistoryEntry, error) {
	normalized := textnorm.Normalize(req.Query)
	if normalized == "" {
		return nil, apperr.Validation("query", "normalizes to empty")
	}

	entry := &models.SearchHistoryEntry{
		ID:              uuid.New(),
		OwnerID:         req.OwnerID,
		Query:           req.Query,
		NormalizedQuery: normalized,
		ResultCount:     req.ResultCount,
		Filters:         req.Filters,
		Strategy:        req.Strategy,
		ResponseTimeMs:  req.ResponseTime.Milliseconds(),
		CreatedAt:       time.Now().UTC(),
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO search_history (id, owner_id, query, normalized_query, result_count, filters,
		                             strategy, response_time_ms, clicks, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,'[]',$9)`,
		entry.ID, entry.OwnerID, entry.Query, entry.NormalizedQuery, entry.ResultCount,
		entry.Filters, entry.Strategy, entry.ResponseTimeMs, entry.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert history entry: %w", err)
	}
	return entry, nil
}

// RecordClick attaches a click to the most recent matching entry within the
// click window. When no entry matches the click is silently dropped.
func (s *Service) RecordClick(ctx context.Context, ownerID, query, documentID string, position int) error {
	normalized := textnorm.Normalize(query)
	if normalized == "" {
		return apperr.Validation("query", "normalizes to empty")
	}

	click := models.ClickEvent{DocumentID: documentID, Position: position, ClickedAt: time.Now().UTC()}

	tag, err := s.db.Exec(ctx,
		`UPDATE search_history SET clicks = clicks || $4::jsonb
		 WHERE id = (
		     SELECT id FROM search_history
		     WHERE owner_id=$1 AND normalized_query=$2 AND created_at > now() - make_interval(secs => $3)
		     ORDER BY created_at DESC LIMIT 1
		 )`,
		ownerID, normalized, ClickWindow.Seconds(), click)
	if err != nil {
		return fmt.Errorf("record click: %w", err)
	}
	if tag.RowsAffected() == 0 {
		slog.Debug("click dropped, no matching search entry", "owner_id", ownerID)
	}
	return nil
}

// UpdateSatisfaction sets the rating on the most recent matching entry
// within the satisfaction window. A later call may overwrite the rating.
func (s *Service) UpdateSatisfaction(ctx context.Context, ownerID, query string, rating int) error {
	if rating < 1 || rating > 5 {
		return apperr.Validation("rating", "must be between 1 and 5")
	}
	normalized := textnorm.Normalize(query)
	if normalized == "" {
		return apperr.Validation("query", "normalizes to empty")
	}

	_, err := s.db.Exec(ctx,
		`UPDATE search_history SET satisfaction=$4
		 WHERE id = (
		     SELECT id FROM search_history
		     WHERE owner_id=$1 AND normalized_query=$2 AND created_at > now() - make_interval(secs => $3)
		     ORDER BY created_at DESC LIMIT 1
		 )`,
		ownerID, normalized, SatisfactionWindow.Seconds(), rating)
	if err != nil {
		return fmt.Errorf("update satisfaction: %w", err)
	}
	return nil
}

// RecentSearches returns the owner's most recent distinct queries, newest
// first.
func (s *Service) RecentSearches(ctx context.Context, ownerID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(ctx,
		`SELECT query FROM (
		     SELECT DISTINCT ON (normalized_query) query, created_at
		     FROM search_history WHERE owner_id=$1
		     ORDER BY normalized_query, created_at DESC
		 ) q ORDER BY created_at DESC LIMIT $2`,
		ownerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent searches: %w", err)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("scan recent search: %w", err)
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

// QueryStat aggregates one distinct normalized query for suggestion
// ranking.
type QueryStat struct {
	Query        string
	Frequency    int
	LastSearched time.Time
	AvgResults   float64
}

// QueryStats returns per-query aggregates for the owner's history within
// the window, restricted to queries containing the partial input.
func (s *Service) QueryStats(ctx context.Context, ownerID, partial string, windowDays int) ([]QueryStat, error) {
	if windowDays <= 0 {
		windowDays = 30
	}
	normalized := textnorm.Normalize(partial)
	rows, err := s.db.Query(ctx,
		`SELECT normalized_query, COUNT(*), MAX(created_at), AVG(result_count)
		 FROM search_history
		 WHERE owner_id=$1 AND created_at > now() - make_interval(days => $2)
		   AND normalized_query LIKE '%' || $3 || '%'
		 GROUP BY normalized_query
		 ORDER BY COUNT(*) DESC, MAX(created_at) DESC
		 LIMIT 50`,
		ownerID, windowDays, normalized)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var stats []QueryStat
	for rows.Next() {
		var st QueryStat
		if err := rows.Scan(&st.Query, &st.Frequency, &st.LastSearched, &st.AvgResults); err != nil {
			return nil, fmt.Errorf("scan query stat: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// Analytics aggregates the owner's history over the window.
func (s *Service) Analytics(ctx context.Context, ownerID string, windowDays int) (*models.SearchAnalytics, error) {
	if windowDays <= 0 {
		windowDays = 30
	}

	a := &models.SearchAnalytics{WindowDays: windowDays}
	var totalClicks int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(DISTINCT normalized_query),
		        COALESCE(AVG(result_count), 0),
		        COALESCE(AVG(satisfaction), 0),
		        COALESCE(SUM(jsonb_array_length(clicks)), 0)
		 FROM search_history
		 WHERE owner_id=$1 AND created_at > now() - make_interval(days => $2)`,
		ownerID, windowDays,
	).Scan(&a.TotalSearches, &a.DistinctQueries, &a.AverageResultCount, &a.AverageSatisfaction, &totalClicks)
	if err != nil {
		return nil, fmt.Errorf("query analytics: %w", err)
	}

	if a.TotalSearches > 0 {
		a.ClickThroughRate = float64(totalClicks) / float64(a.TotalSearches)
	}
	return a, nil
}

// Purge deletes entries older than the retention horizon. Run periodically
// by the worker.
func (s *Service) Purge(ctx context.Context, retention time.Duration) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM search_history WHERE created_at < now() - make_interval(secs => $1)`,
		retention.Seconds())
	if err != nil {
		return 0, fmt.Errorf("purge history: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		slog.Info("purged search history", "entries", n, "retention", retention.String())
		return n, nil
	}
	return 0, nil
}
