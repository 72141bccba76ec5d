// Package textnorm canonicalizes free text into a comparable form and
// extracts index terms. All derived search fields (document searchable
// projections, chunk terms, normalized history queries) flow through it so
// matching stays consistent across the engine.
package textnorm

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MinTermLength filters out one-character noise tokens.
const MinTermLength = 2

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize lowercases, strips diacritics and punctuation, and collapses
// whitespace, producing a form suitable for substring and prefix matching.
func Normalize(text string) string {
	return normalize(text, true)
}

func normalize(text string, lower bool) string {
	folded, _, err := transform.String(stripMarks, text)
	if err != nil {
		folded = text
	}
	if lower {
		folded = strings.ToLower(folded)
	}

	var b strings.Builder
	b.Grow(len(folded))
	lastSpace := true
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// ExtractTerms tokenizes on word boundaries, drops terms shorter than
// MinTermLength runes, and deduplicates. Order is not significant.
func ExtractTerms(text string) []string {
	return splitTerms(Normalize(text))
}

// ExtractTermsCased tokenizes like ExtractTerms but preserves letter case,
// for matching against raw content in case-sensitive queries.
func ExtractTermsCased(text string) []string {
	return splitTerms(normalize(text, false))
}

func splitTerms(normalized string) []string {
	fields := strings.Fields(normalized)
	seen := make(map[string]struct{}, len(fields))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < MinTermLength {
			continue
		}
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		terms = append(terms, f)
	}
	return terms
}

// TermFrequency counts occurrences of each extracted term.
func TermFrequency(text string) map[string]int {
	fields := strings.Fields(Normalize(text))
	freq := make(map[string]int, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) < MinTermLength {
			continue
		}
		freq[f]++
	}
	return freq
}

// WordCount counts whitespace-separated words in the raw text.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ContentHash returns a stable, cheap digest of the raw text used for
// change detection. Equal content yields equal hashes; it is not
// collision-resistant in the cryptographic sense and must not be used as
// such.
func ContentHash(text string) string {
	return strconv.FormatUint(xxhash.Sum64String(text), 16)
}
