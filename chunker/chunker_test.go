package chunker

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/epigraph/core"
)

// sampleText builds non-repetitive sentence text so overlap reconstruction
// is unambiguous.
func sampleText(sentences int) string {
	var b strings.Builder
	for i := 0; i < sentences; i++ {
		fmt.Fprintf(&b, "Sentence number %04d talks about clause %d of the circular. ", i, i)
	}
	return strings.TrimSpace(b.String())
}

// mergeOverlapping rebuilds the input from overlapping chunks by trimming
// the longest shared suffix/prefix between neighbours.
func mergeOverlapping(chunks []string) string {
	if len(chunks) == 0 {
		return ""
	}
	result := chunks[0]
	for _, chunk := range chunks[1:] {
		k := min(len(result), len(chunk))
		for ; k > 0; k-- {
			if strings.HasSuffix(result, chunk[:k]) {
				break
			}
		}
		result += chunk[k:]
	}
	return result
}

func TestChunker_EmptyInput(t *testing.T) {
	c, err := New(100)
	require.NoError(t, err)

	for _, input := range []string{"", "   ", "\n\t\n  "} {
		chunks, err := c.Split(input)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	}
}

func TestChunker_ShortInputSingleChunk(t *testing.T) {
	c, err := New(1000, WithOverlap(100))
	require.NoError(t, err)

	text := "A single short paragraph that fits in one window."
	chunks, err := c.Split(text)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunker_Deterministic(t *testing.T) {
	c, err := New(200, WithOverlap(40))
	require.NoError(t, err)

	text := sampleText(50)
	first, err := c.Split(text)
	require.NoError(t, err)
	second, err := c.Split(text)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestChunker_ZeroOverlapCoversInput(t *testing.T) {
	c, err := New(150, WithOverlap(0))
	require.NoError(t, err)

	text := sampleText(40)
	chunks, err := c.Split(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// With no overlap, chunks are exact adjacent slices of the input.
	assert.Equal(t, text, strings.Join(chunks, ""))
}

func TestChunker_OverlapReconstructsInput(t *testing.T) {
	c, err := New(200, WithOverlap(50))
	require.NoError(t, err)

	text := sampleText(60)
	chunks, err := c.Split(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 2)

	assert.Equal(t, text, mergeOverlapping(chunks))
}

func TestChunker_BoundedOverlap(t *testing.T) {
	overlap := 50
	c, err := New(200, WithOverlap(overlap), WithLookahead(80), WithLookback(20))
	require.NoError(t, err)

	text := sampleText(60)
	chunks, err := c.Split(text)
	require.NoError(t, err)

	// Each chunk stays within target size + boundary-search slack.
	for i, chunk := range chunks {
		assert.LessOrEqualf(t, len(chunk), 200+80, "chunk %d exceeds size plus lookahead slack", i)
	}
}

func TestChunker_PrefersSentenceBoundaries(t *testing.T) {
	c, err := New(100, WithOverlap(0))
	require.NoError(t, err)

	text := sampleText(20)
	chunks, err := c.Split(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	// Every non-final cut should land just after a sentence terminator,
	// since the text has a period within every lookahead window.
	for i, chunk := range chunks[:len(chunks)-1] {
		trimmed := strings.TrimRight(chunk, " \n")
		assert.Truef(t, strings.HasSuffix(trimmed, "."),
			"chunk %d does not end at a sentence boundary: %q", i, chunk[max(0, len(chunk)-20):])
	}
}

func TestChunker_AvoidsWordSplits(t *testing.T) {
	// No sentence terminators at all, so the word-lookback path decides.
	words := make([]string, 200)
	for i := range words {
		words[i] = fmt.Sprintf("word%04d", i)
	}
	text := strings.Join(words, " ")

	c, err := New(100, WithOverlap(0), WithLookahead(0))
	require.NoError(t, err)

	chunks, err := c.Split(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	vocab := make(map[string]bool, len(words))
	for _, w := range words {
		vocab[w] = true
	}
	for i, chunk := range chunks {
		for _, w := range strings.Fields(chunk) {
			assert.Truef(t, vocab[w], "chunk %d contains split word %q", i, w)
		}
	}
}

func TestChunker_ForwardProgressWithAggressiveOverlap(t *testing.T) {
	// Overlap is clamped below the window size, and the cursor is forced
	// forward even when a boundary search stalls it.
	c, err := New(8, WithOverlap(7), WithLookahead(0), WithLookback(0), WithMinSize(1))
	require.NoError(t, err)

	text := strings.Repeat("abcdefgh ", 20)
	chunks, err := c.Split(text)
	require.NoError(t, err)
	assert.NotEmpty(t, chunks)
}

func TestChunker_OverlapFraction(t *testing.T) {
	c, err := New(200, WithOverlapFraction(0.25))
	require.NoError(t, err)
	assert.Equal(t, 50, c.overlap)

	_, err = New(200, WithOverlapFraction(1.0))
	assert.ErrorIs(t, err, ErrInvalidOverlap)

	_, err = New(200, WithOverlapFraction(0))
	assert.ErrorIs(t, err, ErrInvalidOverlap)
}

func TestChunker_InvalidTargetSize(t *testing.T) {
	_, err := New(0)
	assert.ErrorIs(t, err, ErrInvalidTargetSize)

	_, err = New(-10)
	assert.ErrorIs(t, err, ErrInvalidTargetSize)
}

func TestChunker_TokenMeasure(t *testing.T) {
	c, err := New(10, WithOverlap(2), WithMeasure(WordCounter), WithMinSize(1))
	require.NoError(t, err)

	text := sampleText(30)
	chunks, err := c.Split(text)
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, chunk := range chunks {
		// Boundary extension may add a few words past the target.
		assert.LessOrEqualf(t, WordCounter(chunk), 10+8, "chunk %d is too many words", i)
	}
	assert.Equal(t, text, mergeOverlapping(chunks))
}

func TestWordCounter(t *testing.T) {
	assert.Equal(t, 0, WordCounter(""))
	assert.Equal(t, 0, WordCounter("   \n"))
	assert.Equal(t, 3, WordCounter("one two three"))
	assert.Equal(t, 2, WordCounter("  spaced \n out  "))
}

func TestRecursiveSplitter(t *testing.T) {
	s, err := NewRecursiveSplitter(200, 20)
	require.NoError(t, err)

	text := sampleText(40)
	chunks, err := s.Split(text)
	require.NoError(t, err)
	assert.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.NotEmpty(t, chunk)
	}
}

func TestRecursiveSplitter_ClampsOverlap(t *testing.T) {
	_, err := NewRecursiveSplitter(0, 10)
	assert.ErrorIs(t, err, ErrInvalidTargetSize)

	s, err := NewRecursiveSplitter(100, 100)
	require.NoError(t, err)
	_, err = s.Split(sampleText(10))
	assert.NoError(t, err)
}

func TestSegmentDocument(t *testing.T) {
	doc := &core.Document{
		Id:         core.DocumentID("a.pdf", sampleText(40)),
		Text:       sampleText(40),
		SourceFile: "a.pdf",
	}

	c, err := New(200, WithOverlap(40))
	require.NoError(t, err)

	segments, err := SegmentDocument(doc, c)
	require.NoError(t, err)
	require.Greater(t, len(segments), 1)

	for i, segment := range segments {
		assert.Equal(t, i, segment.Index)
		assert.Equal(t, doc.Id, segment.DocumentId)
		assert.NotZero(t, segment.Id)
		assert.NotEmpty(t, segment.Text)
	}
}

func TestSegmentDocument_InvalidDocument(t *testing.T) {
	c, err := New(200)
	require.NoError(t, err)

	_, err = SegmentDocument(&core.Document{SourceFile: "a.pdf"}, c)
	assert.ErrorIs(t, err, core.ErrInvalidDocument)
}
