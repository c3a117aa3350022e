package chunker

import (
	"github.com/tmc/langchaingo/textsplitter"
)

// RecursiveSplitter adapts langchaingo's recursive-character splitter to the
// Splitter interface. It is an alternative to the sliding-window Chunker for
// inputs with strong structural separators (markdown-ish text, paragraphs).
type RecursiveSplitter struct {
	inner textsplitter.RecursiveCharacter
}

var _ Splitter = (*RecursiveSplitter)(nil)

// NewRecursiveSplitter creates a recursive splitter with the given chunk
// size and overlap, both measured in characters.
func NewRecursiveSplitter(chunkSize, overlap int) (*RecursiveSplitter, error) {
	if chunkSize <= 0 {
		return nil, ErrInvalidTargetSize
	}
	if overlap < 0 {
		return nil, ErrInvalidOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}

	inner := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(chunkSize),
		textsplitter.WithChunkOverlap(overlap),
	)
	return &RecursiveSplitter{inner: inner}, nil
}

// Split splits text into chunks, dropping empty results.
func (s *RecursiveSplitter) Split(text string) ([]string, error) {
	chunks, err := s.inner.SplitText(text)
	if err != nil {
		return nil, err
	}
	out := chunks[:0]
	for _, chunk := range chunks {
		if chunk != "" {
			out = append(out, chunk)
		}
	}
	return out, nil
}
