package textnorm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Hello World", "hello world"},
		{"strips punctuation", "foo, bar! (baz)", "foo bar baz"},
		{"collapses whitespace", "a   b\t\nc", "a b c"},
		{"strips diacritics", "café résumé", "cafe resume"},
		{"vietnamese", "Tiếng Việt", "tieng viet"},
		{"keeps digits", "chapter 12", "chapter 12"},
		{"empty", "", ""},
		{"only punctuation", "?!...", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"Hello, World!", "café", "  spaced   out  "}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestExtractTerms(t *testing.T) {
	terms := ExtractTerms("The cat sat on the mat. A cat!")
	assert.Equal(t, []string{"the", "cat", "sat", "on", "mat"}, terms)
}

func TestExtractTermsDropsShort(t *testing.T) {
	terms := ExtractTerms("a b cd e fg")
	assert.Equal(t, []string{"cd", "fg"}, terms)
}

func TestExtractTermsMeasuresRunes(t *testing.T) {
	// Single-rune multibyte tokens are noise just like single ASCII letters.
	assert.Empty(t, ExtractTerms("ω χ"))
	assert.Equal(t, []string{"αβ"}, ExtractTerms("ω αβ"))
	assert.Empty(t, TermFrequency("ω χ"))
}

func TestExtractTermsCased(t *testing.T) {
	terms := ExtractTermsCased("The DNA Helix!")
	assert.Equal(t, []string{"The", "DNA", "Helix"}, terms)
}

func TestTermFrequency(t *testing.T) {
	freq := TermFrequency("go go go stop")
	assert.Equal(t, 3, freq["go"])
	assert.Equal(t, 1, freq["stop"])
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 3, WordCount("one  two\nthree"))
}

func TestContentHash(t *testing.T) {
	a := ContentHash("some content")
	b := ContentHash("some content")
	c := ContentHash("other content")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.NotEmpty(t, a)
}
