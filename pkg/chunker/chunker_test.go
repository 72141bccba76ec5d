package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmpty(t *testing.T) {
	assert.Nil(t, Split("", 100))
	assert.Nil(t, Split("   \n\n  ", 100))
}

func TestSplitShortText(t *testing.T) {
	segs := Split("just one small paragraph", 100)
	require.Len(t, segs, 1)
	assert.Equal(t, 0, segs[0].Index)
	assert.Equal(t, "just one small paragraph", segs[0].Content)
}

func TestSplitContiguousIndices(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("This is a sentence that fills some space in the paragraph. ")
	}
	segs := Split(b.String(), 200)
	require.Greater(t, len(segs), 1)
	for i, s := range segs {
		assert.Equal(t, i, s.Index)
		assert.NotEmpty(t, s.Content)
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := strings.Repeat("Alpha beta gamma. Delta epsilon zeta. ", 50)
	first := Split(text, 150)
	second := Split(text, 150)
	assert.Equal(t, first, second)
}

func TestSplitRespectsSentenceBoundaries(t *testing.T) {
	text := "First sentence here. Second sentence here. Third sentence here."
	segs := Split(text, 25)
	require.Greater(t, len(segs), 1)
	for _, s := range segs {
		// No chunk should start mid-word.
		assert.False(t, strings.HasPrefix(s.Content, " "))
	}
}

func TestSplitHardSplitsOversizedSentence(t *testing.T) {
	long := strings.Repeat("x", 500)
	segs := Split(long, 100)
	require.Len(t, segs, 5)
	for _, s := range segs {
		assert.LessOrEqual(t, utf8.RuneCountInString(s.Content), 100)
	}
}

func TestSplitMergesSmallParagraphs(t *testing.T) {
	text := "one\n\ntwo\n\nthree\n\nfour"
	segs := Split(text, 100)
	require.Len(t, segs, 1)
	assert.Contains(t, segs[0].Content, "one")
	assert.Contains(t, segs[0].Content, "four")
}

func TestSplitMultibyteSafe(t *testing.T) {
	text := strings.Repeat("Tiếng Việt có dấu. ", 60)
	segs := Split(text, 120)
	for _, s := range segs {
		assert.True(t, utf8.ValidString(s.Content))
	}
}

func TestSplitZeroTargetUsesDefault(t *testing.T) {
	segs := Split("small text", 0)
	require.Len(t, segs, 1)
}
