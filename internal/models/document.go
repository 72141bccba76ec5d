package models

import (
	"time"
)

// Supported source kinds for ingested content.
const (
	SourcePDF        = "pdf"
	SourceDOCX       = "docx"
	SourcePPTX       = "pptx"
	SourceText       = "txt"
	SourceWebURL     = "url"
	SourceTranscript = "transcript"
)

// ValidSourceKind reports whether kind is one of the supported source kinds.
func ValidSourceKind(kind string) bool {
	switch kind {
	case SourcePDF, SourceDOCX, SourcePPTX, SourceText, SourceWebURL, SourceTranscript:
		return true
	}
	return false
}

// Usage counter names tracked per document.
const (
	UsageGeneration = "generation"
	UsageFlashcard  = "flashcard"
	UsageMentor     = "mentor"
)

// ValidUsageCounter reports whether counter is a tracked usage counter.
func ValidUsageCounter(counter string) bool {
	switch counter {
	case UsageGeneration, UsageFlashcard, UsageMentor:
		return true
	}
	return false
}

type Document struct {
	ID          string    `json:"id" db:"id"`
	OwnerID     string    `json:"owner_id" db:"owner_id"`
	Title       string    `json:"title" db:"title"`
	SourceName  string    `json:"source_name,omitempty" db:"source_name"`
	SourceKind  string    `json:"source_kind" db:"source_kind"`
	Content     string    `json:"content,omitempty" db:"content"`
	Searchable  string    `json:"-" db:"searchable"`
	Terms       []string  `json:"-" db:"terms"`
	ContentHash string    `json:"content_hash" db:"content_hash"`
	Language    string    `json:"language,omitempty" db:"language"`
	WordCount   int       `json:"word_count" db:"word_count"`
	ChunkCount  int       `json:"chunk_count" db:"chunk_count"`
	Tags        []string  `json:"tags,omitempty" db:"tags"`
	IsPublic    bool      `json:"is_public" db:"is_public"`
	Usage       UsageInfo `json:"usage" db:"usage"`
	LastIndexed time.Time `json:"last_indexed_at" db:"last_indexed_at"`
	LastUsedAt  time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	// Chunks is populated only when the caller asks for them.
	Chunks []Chunk `json:"chunks,omitempty"`
}

// UsageInfo counts read-side events the document contributed to.
type UsageInfo struct {
	Generation int `json:"generation"`
	Flashcard  int `json:"flashcard"`
	Mentor     int `json:"mentor"`
}

// Total returns the sum of all usage counters, used for usage-ordered sorting.
func (u UsageInfo) Total() int {
	return u.Generation + u.Flashcard + u.Mentor
}

type Chunk struct {
	ID          string         `json:"id" db:"id"`
	DocumentID  string         `json:"document_id" db:"document_id"`
	Index       int            `json:"index" db:"chunk_index"`
	Content     string         `json:"content" db:"content"`
	Searchable  string         `json:"-" db:"searchable"`
	Terms       []string       `json:"-" db:"terms"`
	WordCount   int            `json:"word_count" db:"word_count"`
	TermFreq    map[string]int `json:"-" db:"term_freq"`
	ContentHash string         `json:"content_hash" db:"content_hash"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}
