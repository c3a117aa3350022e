// Package chunker splits normalized document text into ordered, bounded,
// possibly-overlapping segments.
//
// The primary implementation is a sliding-window chunker that prefers to cut
// at sentence boundaries (searching a bounded lookahead window) and refuses
// to split words (searching a bounded lookback window). Chunk size is
// measured in characters by default, or in tokens when a Measure function is
// supplied; see TokenCounter for the tiktoken-backed counter with a
// whitespace-word fallback.
//
// A langchaingo-backed recursive splitter is available as an alternative via
// NewRecursiveSplitter. Both satisfy the Splitter interface consumed by
// SegmentDocument.
//
// Chunking is stateless and deterministic: the same input and configuration
// always yield the same sequence.
package chunker
