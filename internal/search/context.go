package search

import (
	"context"
	"sort"
	"strings"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/apperr"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/models"
)

// Context retrieval limits, enforced regardless of caller input.
const (
	MaxContextChunks  = 20
	MinContextLength  = 100
	MaxContextLength  = 10000
	contextCandidates = 50
)

// ChunkHit is one scored chunk from a single document.
type ChunkHit struct {
	Chunk models.Chunk
	Score float64
}

// ChunkSource provides candidate documents and per-document chunk retrieval.
// The document store implements it; tests substitute in-memory fakes.
type ChunkSource interface {
	Candidates(ctx context.Context, scope Scope, limit int) ([]models.Document, error)
	RelevantChunks(ctx context.Context, documentID, query string, limit int) ([]ChunkHit, error)
}

// ContextBuilder is the retrieval strategy consumed by the generative
// layer: it concatenates the top-ranked chunks across the caller's
// documents up to a length budget. No embeddings are involved; ranking is
// the same term-overlap scoring the chunk store uses.
type ContextBuilder struct {
	source ChunkSource
}

func NewContextBuilder(source ChunkSource) *ContextBuilder {
	return &ContextBuilder{source: source}
}

type ContextRequest struct {
	OwnerID          string
	Query            string
	MaxChunks        int
	MaxContextLength int
}

type ContextSource struct {
	DocumentID string  `json:"document_id"`
	Title      string  `json:"title"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

type ContextResult struct {
	Context string          `json:"context"`
	Sources []ContextSource `json:"sources"`
}

func (r *ContextRequest) validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return apperr.Validation("query", "required")
	}
	if r.MaxChunks < 1 || r.MaxChunks > MaxContextChunks {
		return apperr.Validationf("max_chunks", "must be between 1 and %d", MaxContextChunks)
	}
	if r.MaxContextLength < MinContextLength || r.MaxContextLength > MaxContextLength {
		return apperr.Validationf("max_context_length", "must be between %d and %d", MinContextLength, MaxContextLength)
	}
	return nil
}

// Build collects the best-scoring chunks across all documents visible to
// the owner and concatenates them, stopping before the length budget is
// exceeded. Chunk order in the output follows score, ties broken by
// document id then chunk index.
func (b *ContextBuilder) Build(ctx context.Context, req ContextRequest) (*ContextResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	scope := NewScope(req.OwnerID)
	scope.IncludePublic = true
	docs, err := b.source.Candidates(ctx, scope, contextCandidates)
	if err != nil {
		return nil, err
	}

	type docHit struct {
		doc models.Document
		hit ChunkHit
	}
	var hits []docHit
	for _, doc := range docs {
		chunkHits, err := b.source.RelevantChunks(ctx, doc.ID, req.Query, req.MaxChunks)
		if err != nil {
			return nil, err
		}
		for _, h := range chunkHits {
			hits = append(hits, docHit{doc: doc, hit: h})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].hit.Score != hits[j].hit.Score {
			return hits[i].hit.Score > hits[j].hit.Score
		}
		if hits[i].doc.ID != hits[j].doc.ID {
			return hits[i].doc.ID < hits[j].doc.ID
		}
		return hits[i].hit.Chunk.Index < hits[j].hit.Chunk.Index
	})

	result := &ContextResult{}
	var buf strings.Builder
	for _, h := range hits {
		if len(result.Sources) >= req.MaxChunks {
			break
		}
		piece := h.hit.Chunk.Content
		if buf.Len() > 0 && buf.Len()+2+len(piece) > req.MaxContextLength {
			break
		}
		if buf.Len() == 0 && len(piece) > req.MaxContextLength {
			piece = piece[:req.MaxContextLength]
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(piece)
		result.Sources = append(result.Sources, ContextSource{
			DocumentID: h.doc.ID,
			Title:      h.doc.Title,
			ChunkIndex: h.hit.Chunk.Index,
			Score:      h.hit.Score,
		})
	}
	result.Context = buf.String()
	return result, nil
}
