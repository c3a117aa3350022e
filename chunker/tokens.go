package chunker

import (
	"log/slog"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the tiktoken encoding used when none is specified.
const DefaultEncoding = "cl100k_base"

// WordCounter measures text in whitespace-separated words. It is the last
// resort when no tokenizer is available.
func WordCounter(text string) int {
	return len(strings.Fields(text))
}

// TiktokenCounter returns a Measure backed by the named tiktoken encoding.
func TiktokenCounter(encoding string) (Measure, error) {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, err
	}
	return func(text string) int {
		return len(enc.Encode(text, nil, nil))
	}, nil
}

// TokenCounter returns the tiktoken counter for the encoding, falling back
// to whitespace word counting if the encoding cannot be loaded.
func TokenCounter(encoding string) Measure {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	measure, err := TiktokenCounter(encoding)
	if err != nil {
		slog.Warn("tokenizer unavailable, falling back to word counting", "encoding", encoding, "err", err)
		return WordCounter
	}
	return measure
}
