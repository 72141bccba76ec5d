package document

import (
	"crypto/rand"
	"encoding/hex"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/models"
	"github.com/vanhau123w-collab/UniQuizz-sub000/internal/textnorm"
	"github.com/vanhau123w-collab/UniQuizz-sub000/pkg/chunker"
)

// Chunk scoring weights: whole-term matches count well above substring hits,
// and precomputed term frequency adds a log-scaled boost.
const (
	exactTermWeight = 3.0
	partialWeight   = 1.0
	tfBoostWeight   = 0.5
)

var idPattern = regexp.MustCompile(`^[0-9a-f]{24}$`)

// NewID returns a fresh 24-hex-character document identifier.
func NewID() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand never fails on supported platforms; fall back to a
		// time-derived id rather than panic in a request path.
		return hex.EncodeToString([]byte(time.Now().Format("060102150405")))
	}
	return hex.EncodeToString(b[:])
}

// ValidID reports whether id looks like a document identifier.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// HasContentChanged compares the stored hash against the hash of newContent.
// Unchanged content lets callers skip re-indexing entirely.
func HasContentChanged(doc *models.Document, newContent string) bool {
	return doc.ContentHash != textnorm.ContentHash(newContent)
}

// BuildIndex derives all searchable fields and the chunk decomposition from
// doc.Content. It is deterministic: the same content always produces the
// same projection, terms, hash, and chunking.
func BuildIndex(doc *models.Document, targetChunkSize int, now time.Time) {
	doc.Searchable = textnorm.Normalize(doc.Content)
	doc.Terms = textnorm.ExtractTerms(doc.Content)
	doc.ContentHash = textnorm.ContentHash(doc.Content)
	doc.WordCount = textnorm.WordCount(doc.Content)
	doc.LastIndexed = now

	segments := chunker.Split(doc.Content, targetChunkSize)
	chunks := make([]models.Chunk, 0, len(segments))
	for _, seg := range segments {
		chunks = append(chunks, models.Chunk{
			DocumentID:  doc.ID,
			Index:       seg.Index,
			Content:     seg.Content,
			Searchable:  textnorm.Normalize(seg.Content),
			Terms:       textnorm.ExtractTerms(seg.Content),
			WordCount:   textnorm.WordCount(seg.Content),
			TermFreq:    textnorm.TermFrequency(seg.Content),
			ContentHash: textnorm.ContentHash(seg.Content),
		})
	}
	doc.Chunks = chunks
	doc.ChunkCount = len(chunks)
}

// ScoredChunk pairs a chunk with its relevance score for a query.
type ScoredChunk struct {
	Chunk models.Chunk
	Score float64
}

// SearchRelevantChunks scores every chunk against the query and returns the
// top limit chunks by score, ties broken by original chunk order. Chunks
// that score zero are omitted; no match at all yields an empty slice, not an
// error.
func SearchRelevantChunks(chunks []models.Chunk, query string, limit int) []ScoredChunk {
	queryTerms := textnorm.ExtractTerms(query)
	if len(queryTerms) == 0 || limit <= 0 {
		return nil
	}

	var scored []ScoredChunk
	for _, c := range chunks {
		score := scoreChunk(c, queryTerms)
		if score > 0 {
			scored = append(scored, ScoredChunk{Chunk: c, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.Index < scored[j].Chunk.Index
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func scoreChunk(c models.Chunk, queryTerms []string) float64 {
	termSet := make(map[string]struct{}, len(c.Terms))
	for _, t := range c.Terms {
		termSet[t] = struct{}{}
	}

	var score float64
	for _, qt := range queryTerms {
		if _, ok := termSet[qt]; ok {
			score += exactTermWeight
			if tf := c.TermFreq[qt]; tf > 1 {
				score += tfBoostWeight * math.Log1p(float64(tf))
			}
			continue
		}
		if strings.Contains(c.Searchable, qt) {
			score += partialWeight
		}
	}
	return score
}
