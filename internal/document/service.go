// Package document owns persisted documents and their chunk decomposition.
// All searchable fields are derived at write time through the normalizer so
// the search engine never touches raw content.
package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/apperr"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/models"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/search"
)

const maxTitleLength = 500

type Service struct {
	db        *pgxpool.Pool
	chunkSize int
}

func NewService(db *pgxpool.Pool, chunkSize int) *Service {
	return &Service{db: db, chunkSize: chunkSize}
}

type CreateRequest struct {
	OwnerID    string   `json:"-"`
	Title      string   `json:"title"`
	SourceName string   `json:"source_name"`
	SourceKind string   `json:"source_kind"`
	Content    string   `json:"content"`
	Language   string   `json:"language"`
	Tags       []string `json:"tags"`
	IsPublic   bool     `json:"is_public"`
}

func (r CreateRequest) validate() error {
	if r.OwnerID == "" {
		return apperr.Validation("owner_id", "required")
	}
	if strings.TrimSpace(r.Title) == "" {
		return apperr.Validation("title", "required")
	}
	if len(r.Title) > maxTitleLength {
		return apperr.Validationf("title", "must be at most %d characters", maxTitleLength)
	}
	if !models.ValidSourceKind(r.SourceKind) {
		return apperr.Validationf("source_kind", "unknown kind %q", r.SourceKind)
	}
	if strings.TrimSpace(r.Content) == "" {
		return apperr.Validation("content", "required")
	}
	return nil
}

const docColumns = `id, owner_id, title, source_name, source_kind, content, searchable, terms,
	content_hash, language, word_count, chunk_count, tags, is_public, usage,
	last_indexed_at, last_used_at, created_at, updated_at`

func scanDocument(row pgx.Row) (*models.Document, error) {
	var d models.Document
	err := row.Scan(&d.ID, &d.OwnerID, &d.Title, &d.SourceName, &d.SourceKind, &d.Content,
		&d.Searchable, &d.Terms, &d.ContentHash, &d.Language, &d.WordCount, &d.ChunkCount,
		&d.Tags, &d.IsPublic, &d.Usage, &d.LastIndexed, &d.LastUsedAt, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create validates, derives all searchable fields, and persists the document
// together with its chunks in one transaction.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Document, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc := &models.Document{
		ID:         NewID(),
		OwnerID:    req.OwnerID,
		Title:      strings.TrimSpace(req.Title),
		SourceName: req.SourceName,
		SourceKind: req.SourceKind,
		Content:    req.Content,
		Language:   req.Language,
		Tags:       req.Tags,
		IsPublic:   req.IsPublic,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	BuildIndex(doc, s.chunkSize, now)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO documents (id, owner_id, title, source_name, source_kind, content, searchable, terms,
		                        content_hash, language, word_count, chunk_count, tags, is_public, usage,
		                        last_indexed_at, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,'{}',$15,$16,$17)`,
		doc.ID, doc.OwnerID, doc.Title, doc.SourceName, doc.SourceKind, doc.Content, doc.Searchable,
		doc.Terms, doc.ContentHash, doc.Language, doc.WordCount, doc.ChunkCount, doc.Tags,
		doc.IsPublic, doc.LastIndexed, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}

	if err := insertChunks(ctx, tx, doc); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	slog.Info("document indexed", "document_id", doc.ID, "owner_id", doc.OwnerID,
		"chunks", doc.ChunkCount, "words", doc.WordCount)
	return doc, nil
}

type UpdateRequest struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Tags     *[]string `json:"tags"`
	IsPublic *bool     `json:"is_public"`
}

// Update applies metadata changes and, only when the content hash actually
// changed, re-derives searchable fields and atomically replaces all chunks.
// A no-op content update leaves chunks untouched (idempotent indexing).
func (s *Service) Update(ctx context.Context, ownerID, id string, req UpdateRequest) (*models.Document, error) {
	doc, err := s.getOwned(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, apperr.Validation("title", "required")
		}
		doc.Title = strings.TrimSpace(*req.Title)
	}
	if req.Tags != nil {
		doc.Tags = *req.Tags
	}
	if req.IsPublic != nil {
		doc.IsPublic = *req.IsPublic
	}

	now := time.Now().UTC()
	doc.UpdatedAt = now

	reindex := req.Content != nil && HasContentChanged(doc, *req.Content)
	if reindex {
		doc.Content = *req.Content
		BuildIndex(doc, s.chunkSize, now)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE documents SET title=$1, content=$2, searchable=$3, terms=$4, content_hash=$5,
		        word_count=$6, chunk_count=$7, tags=$8, is_public=$9, last_indexed_at=$10, updated_at=$11
		 WHERE id=$12 AND owner_id=$13`,
		doc.Title, doc.Content, doc.Searchable, doc.Terms, doc.ContentHash, doc.WordCount,
		doc.ChunkCount, doc.Tags, doc.IsPublic, doc.LastIndexed, doc.UpdatedAt, doc.ID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("update document: %w", err)
	}

	if reindex {
		if _, err := tx.Exec(ctx, `DELETE FROM document_chunks WHERE document_id=$1`, doc.ID); err != nil {
			return nil, fmt.Errorf("delete chunks: %w", err)
		}
		if err := insertChunks(ctx, tx, doc); err != nil {
			return nil, err
		}
		slog.Info("document reindexed", "document_id", doc.ID, "chunks", doc.ChunkCount)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return doc, nil
}

func insertChunks(ctx context.Context, tx pgx.Tx, doc *models.Document) error {
	for i := range doc.Chunks {
		c := &doc.Chunks[i]
		c.ID = NewID()
		c.CreatedAt = doc.UpdatedAt
		_, err := tx.Exec(ctx,
			`INSERT INTO document_chunks (id, document_id, chunk_index, content, searchable, terms,
			                              word_count, term_freq, content_hash, created_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			c.ID, doc.ID, c.Index, c.Content, c.Searchable, c.Terms, c.WordCount, c.TermFreq,
			c.ContentHash, c.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert chunk %d: %w", c.Index, err)
		}
	}
	return nil
}

// Get returns a document visible to ownerID: either owned or public.
func (s *Service) Get(ctx context.Context, ownerID, id string) (*models.Document, error) {
	doc, err := scanDocument(s.db.QueryRow(ctx,
		`SELECT `+docColumns+` FROM documents WHERE id=$1 AND (owner_id=$2 OR is_public)`, id, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func (s *Service) getOwned(ctx context.Context, ownerID, id string) (*models.Document, error) {
	doc, err := scanDocument(s.db.QueryRow(ctx,
		`SELECT `+docColumns+` FROM documents WHERE id=$1 AND owner_id=$2`, id, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func (s *Service) List(ctx context.Context, ownerID string, limit, offset int) ([]models.Document, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(ctx,
		`SELECT `+docColumns+` FROM documents WHERE owner_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

// Candidates loads the documents matched by scope, newest first, for
// in-process scoring by the search engine.
func (s *Service) Candidates(ctx context.Context, scope search.Scope, limit int) ([]models.Document, error) {
	if limit <= 0 {
		limit = 500
	}
	where, args := scope.Where(1)
	args = append(args, limit)
	rows, err := s.db.Query(ctx,
		`SELECT `+docColumns+` FROM documents WHERE `+where+
			fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, len(args)), args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()
	return collectDocuments(rows)
}

func collectDocuments(rows pgx.Rows) ([]models.Document, error) {
	var docs []models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *d)
	}
	return docs, rows.Err()
}

// Chunks returns a document's chunks in index order.
func (s *Service) Chunks(ctx context.Context, documentID string) ([]models.Chunk, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, document_id, chunk_index, content, searchable, terms, word_count, term_freq, content_hash, created_at
		 FROM document_chunks WHERE document_id=$1 ORDER BY chunk_index`, documentID)
	if err != nil {
		return nil, fmt.Errorf("query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		var c models.Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Index, &c.Content, &c.Searchable, &c.Terms,
			&c.WordCount, &c.TermFreq, &c.ContentHash, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

// RelevantChunks loads a document's chunks and scores them against the
// query, satisfying the search engine's ChunkSource.
func (s *Service) RelevantChunks(ctx context.Context, documentID, query string, limit int) ([]search.ChunkHit, error) {
	chunks, err := s.Chunks(ctx, documentID)
	if err != nil {
		return nil, err
	}
	scored := SearchRelevantChunks(chunks, query, limit)
	hits := make([]search.ChunkHit, 0, len(scored))
	for _, sc := range scored {
		hits = append(hits, search.ChunkHit{Chunk: sc.Chunk, Score: sc.Score})
	}
	return hits, nil
}

// Delete hard-deletes an owned document and its chunks. A repeat delete
// returns ErrNotFound rather than success.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM documents WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	slog.Info("document deleted", "document_id", id, "owner_id", ownerID)
	return nil
}

// RecordUsage increments a named usage counter and bumps the last-used
// timestamp. Concurrent increments for the same document are last-write-wins
// at the row level, which is acceptable for usage counters.
func (s *Service) RecordUsage(ctx context.Context, ownerID, id, counter string) error {
	if !models.ValidUsageCounter(counter) {
		return apperr.Validationf("counter", "unknown counter %q", counter)
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE documents
		 SET usage = jsonb_set(usage, ARRAY[$3], to_jsonb(COALESCE((usage->>$3)::int, 0) + 1)),
		     last_used_at = now()
		 WHERE id=$1 AND (owner_id=$2 OR is_public)`,
		id, ownerID, counter)
	if err != nil {
		return fmt.Errorf("record usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// ReindexOwner re-derives searchable fields for every document of an owner.
// Documents whose stored content hash still matches their content are
// skipped unless force is set (force is used after chunking configuration
// changes, where the content is unchanged but the decomposition is not).
func (s *Service) ReindexOwner(ctx context.Context, ownerID string, force bool) (int, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM documents WHERE owner_id=$1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("list owner documents: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return 0, fmt.Errorf("collect ids: %w", err)
	}

	reindexed := 0
	for _, id := range ids {
		doc, err := s.getOwned(ctx, ownerID, id)
		if err != nil {
			return reindexed, err
		}
		if !force && !HasContentChanged(doc, doc.Content) {
			// Hash unchanged: indexing is idempotent, nothing to do.
			continue
		}
		if err := s.reindex(ctx, doc); err != nil {
			return reindexed, err
		}
		reindexed++
	}
	return reindexed, nil
}

// reindex rebuilds searchable fields and atomically replaces all chunks.
func (s *Service) reindex(ctx context.Context, doc *models.Document) error {
	now := time.Now().UTC()
	doc.UpdatedAt = now
	BuildIndex(doc, s.chunkSize, now)

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE documents SET searchable=$1, terms=$2, content_hash=$3, word_count=$4,
		        chunk_count=$5, last_indexed_at=$6, updated_at=$7
		 WHERE id=$8`,
		doc.Searchable, doc.Terms, doc.ContentHash, doc.WordCount, doc.ChunkCount,
		doc.LastIndexed, doc.UpdatedAt, doc.ID)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM document_chunks WHERE document_id=$1`, doc.ID); err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}
	if err := insertChunks(ctx, tx, doc); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	slog.Info("document reindexed", "document_id", doc.ID, "chunks", doc.ChunkCount)
	return nil
}
