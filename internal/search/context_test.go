package search

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/apperr"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/models"
)

type fakeChunkSource struct {
	docs  []models.Document
	hits  map[string][]ChunkHit
	fail  error
	calls int
}

func (f *fakeChunkSource) Candidates(ctx context.Context, scope Scope, limit int) ([]models.Document, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return f.docs, nil
}

func (f *fakeChunkSource) RelevantChunks(ctx context.Context, documentID, query string, limit int) ([]ChunkHit, error) {
	f.calls++
	return f.hits[documentID], nil
}

func hit(index int, content string, score float64) ChunkHit {
	return ChunkHit{Chunk: models.Chunk{Index: index, Content: content}, Score: score}
}

func TestContextBuildOrdersByScore(t *testing.T) {
	src := &fakeChunkSource{
		docs: []models.Document{
			{ID: "aaaaaaaaaaaaaaaaaaaaaaa1", Title: "Doc A"},
			{ID: "aaaaaaaaaaaaaaaaaaaaaaa2", Title: "Doc B"},
		},
		hits: map[string][]ChunkHit{
			"aaaaaaaaaaaaaaaaaaaaaaa1": {hit(0, "low scoring chunk", 1)},
			"aaaaaaaaaaaaaaaaaaaaaaa2": {hit(2, "high scoring chunk", 5)},
		},
	}

	b := NewContextBuilder(src)
	res, err := b.Build(context.Background(), ContextRequest{
		OwnerID: "u", Query: "chunk", MaxChunks: 5, MaxContextLength: 1000,
	})
	require.NoError(t, err)
	require.Len(t, res.Sources, 2)
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaa2", res.Sources[0].DocumentID)
	assert.Equal(t, "Doc B", res.Sources[0].Title)
	assert.Equal(t, 2, res.Sources[0].ChunkIndex)
	assert.True(t, strings.HasPrefix(res.Context, "high scoring chunk"))
	assert.Contains(t, res.Context, "\n\n")
}

func TestContextBuildDeterministicTieBreak(t *testing.T) {
	src := &fakeChunkSource{
		docs: []models.Document{
			{ID: "aaaaaaaaaaaaaaaaaaaaaaa2", Title: "B"},
			{ID: "aaaaaaaaaaaaaaaaaaaaaaa1", Title: "A"},
		},
		hits: map[string][]ChunkHit{
			"aaaaaaaaaaaaaaaaaaaaaaa1": {hit(1, "chunk one", 3), hit(0, "chunk zero", 3)},
			"aaaaaaaaaaaaaaaaaaaaaaa2": {hit(0, "chunk other", 3)},
		},
	}

	b := NewContextBuilder(src)
	res, err := b.Build(context.Background(), ContextRequest{
		OwnerID: "u", Query: "chunk", MaxChunks: 5, MaxContextLength: 1000,
	})
	require.NoError(t, err)
	require.Len(t, res.Sources, 3)
	// Equal scores: document id ascending, then chunk index ascending.
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaa1", res.Sources[0].DocumentID)
	assert.Equal(t, 0, res.Sources[0].ChunkIndex)
	assert.Equal(t, 1, res.Sources[1].ChunkIndex)
	assert.Equal(t, "aaaaaaaaaaaaaaaaaaaaaaa2", res.Sources[2].DocumentID)
}

func TestContextBuildRespectsLengthBudget(t *testing.T) {
	long := strings.Repeat("a", 80)
	src := &fakeChunkSource{
		docs: []models.Document{{ID: "aaaaaaaaaaaaaaaaaaaaaaa1", Title: "A"}},
		hits: map[string][]ChunkHit{
			"aaaaaaaaaaaaaaaaaaaaaaa1": {hit(0, long, 5), hit(1, long, 4), hit(2, long, 3)},
		},
	}

	b := NewContextBuilder(src)
	res, err := b.Build(context.Background(), ContextRequest{
		OwnerID: "u", Query: "a", MaxChunks: 10, MaxContextLength: 170,
	})
	require.NoError(t, err)
	// Two 80-rune chunks plus separator fit; the third would overflow.
	assert.Len(t, res.Sources, 2)
	assert.LessOrEqual(t, len(res.Context), 170)
}

func TestContextBuildTruncatesOversizedFirstChunk(t *testing.T) {
	src := &fakeChunkSource{
		docs: []models.Document{{ID: "aaaaaaaaaaaaaaaaaaaaaaa1", Title: "A"}},
		hits: map[string][]ChunkHit{
			"aaaaaaaaaaaaaaaaaaaaaaa1": {hit(0, strings.Repeat("b", 500), 5)},
		},
	}

	b := NewContextBuilder(src)
	res, err := b.Build(context.Background(), ContextRequest{
		OwnerID: "u", Query: "b", MaxChunks: 3, MaxContextLength: 100,
	})
	require.NoError(t, err)
	assert.Len(t, res.Context, 100)
}

func TestContextBuildValidation(t *testing.T) {
	b := NewContextBuilder(&fakeChunkSource{})

	_, err := b.Build(context.Background(), ContextRequest{OwnerID: "u", Query: " ", MaxChunks: 5, MaxContextLength: 1000})
	assert.True(t, apperr.IsValidation(err))

	_, err = b.Build(context.Background(), ContextRequest{OwnerID: "u", Query: "x", MaxChunks: 0, MaxContextLength: 1000})
	assert.True(t, apperr.IsValidation(err))

	_, err = b.Build(context.Background(), ContextRequest{OwnerID: "u", Query: "x", MaxChunks: MaxContextChunks + 1, MaxContextLength: 1000})
	assert.True(t, apperr.IsValidation(err))

	_, err = b.Build(context.Background(), ContextRequest{OwnerID: "u", Query: "x", MaxChunks: 5, MaxContextLength: MinContextLength - 1})
	assert.True(t, apperr.IsValidation(err))
}
