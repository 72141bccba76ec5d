// Package chunker segments document text into ordered, non-overlapping
// chunks with deterministic, sentence-aware boundaries. The same input
// always yields the same chunking.
package chunker

import (
	"strings"
	"unicode/utf8"
)

// DefaultTargetSize is the target chunk size in runes.
const DefaultTargetSize = 1000

// Segment is one contiguous piece of a document's text.
type Segment struct {
	Index   int
	Content string
}

// Split segments text into chunks of roughly targetSize runes. Paragraph
// boundaries are preferred, then sentence boundaries; a single sentence
// longer than targetSize is hard-split on rune boundaries. Indices are
// contiguous starting at 0. Blank input yields no chunks.
func Split(text string, targetSize int) []Segment {
	if targetSize <= 0 {
		targetSize = DefaultTargetSize
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var pieces []string
	for _, para := range splitParagraphs(text) {
		if utf8.RuneCountInString(para) <= targetSize {
			pieces = append(pieces, para)
			continue
		}
		pieces = append(pieces, packSentences(splitSentences(para), targetSize)...)
	}

	// Greedily merge small neighbors back up toward the target size so a
	// run of one-line paragraphs does not produce a chunk each.
	merged := mergeSmall(pieces, targetSize)

	segments := make([]Segment, 0, len(merged))
	for i, p := range merged {
		segments = append(segments, Segment{Index: i, Content: p})
	}
	return segments
}

func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences splits on sentence-ending punctuation followed by a space.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && runes[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

func packSentences(sentences []string, targetSize int) []string {
	var out []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			out = append(out, current.String())
			current.Reset()
		}
	}

	for _, s := range sentences {
		if utf8.RuneCountInString(s) > targetSize {
			flush()
			out = append(out, hardSplit(s, targetSize)...)
			continue
		}
		if current.Len() > 0 && utf8.RuneCountInString(current.String())+1+utf8.RuneCountInString(s) > targetSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(s)
	}
	flush()
	return out
}

func hardSplit(s string, targetSize int) []string {
	runes := []rune(s)
	var out []string
	for start := 0; start < len(runes); start += targetSize {
		end := start + targetSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

func mergeSmall(pieces []string, targetSize int) []string {
	var out []string
	var current strings.Builder

	for _, p := range pieces {
		if current.Len() > 0 && utf8.RuneCountInString(current.String())+2+utf8.RuneCountInString(p) > targetSize {
			out = append(out, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(p)
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}
