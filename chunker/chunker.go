package chunker

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/poiesic/epigraph/core"
)

// DefaultTargetSize is the default chunk window size, in units.
const DefaultTargetSize = 3000

// DefaultOverlap is the default overlap between adjacent chunks, in units.
const DefaultOverlap = 300

// DefaultLookahead is how far past the raw cut point (in bytes) the chunker
// searches for a sentence terminator or newline.
const DefaultLookahead = 200

// DefaultLookback is how far before the raw cut point (in bytes) the chunker
// searches for whitespace to avoid splitting a word.
const DefaultLookback = 40

// Newline groups count as sentence breaks.
var sentenceEndRe = regexp.MustCompile(`[.!?]\s+|\n+`)

// Measure counts the size of a piece of text in chunking units.
// A nil Measure means size is measured in bytes of UTF-8 text.
type Measure func(text string) int

// Splitter turns document text into an ordered sequence of chunk texts.
type Splitter interface {
	// Split splits text into ordered chunks. Empty or whitespace-only
	// input yields no chunks and no error.
	Split(text string) ([]string, error)
}

// Chunker is a sliding-window text splitter with overlap and boundary
// control. It is stateless and safe for concurrent use.
type Chunker struct {
	targetSize int
	overlap    int
	lookahead  int
	lookback   int
	minSize    int
	measure    Measure
}

var _ Splitter = (*Chunker)(nil)

// Option configures a Chunker.
type Option func(*Chunker) error

// WithOverlap sets the overlap between adjacent chunks as an absolute unit
// count.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) error {
		if overlap < 0 {
			return ErrInvalidOverlap
		}
		c.overlap = overlap
		return nil
	}
}

// WithOverlapFraction sets the overlap as a fraction in (0,1) of the target
// size. The fraction is resolved to an absolute unit count up front.
func WithOverlapFraction(fraction float64) Option {
	return func(c *Chunker) error {
		if fraction <= 0 || fraction >= 1 {
			return ErrInvalidOverlap
		}
		c.overlap = int(float64(c.targetSize) * fraction)
		return nil
	}
}

// WithLookahead sets the sentence-boundary search window in bytes.
func WithLookahead(lookahead int) Option {
	return func(c *Chunker) error {
		if lookahead >= 0 {
			c.lookahead = lookahead
		}
		return nil
	}
}

// WithLookback sets the word-boundary search window in bytes.
func WithLookback(lookback int) Option {
	return func(c *Chunker) error {
		if lookback >= 0 {
			c.lookback = lookback
		}
		return nil
	}
}

// WithMinSize sets the minimum chunk size in units. Chunks below the minimum
// are extended unless they are the final chunk.
// Default is targetSize / 4.
func WithMinSize(minSize int) Option {
	return func(c *Chunker) error {
		if minSize > 0 {
			c.minSize = minSize
		}
		return nil
	}
}

// WithMeasure sets the unit-counting function, switching the chunker from
// character sizing to token sizing. See TokenCounter.
func WithMeasure(measure Measure) Option {
	return func(c *Chunker) error {
		c.measure = measure
		return nil
	}
}

// New creates a Chunker with the given target size in units.
func New(targetSize int, opts ...Option) (*Chunker, error) {
	if targetSize <= 0 {
		return nil, ErrInvalidTargetSize
	}

	c := &Chunker{
		targetSize: targetSize,
		overlap:    DefaultOverlap,
		lookahead:  DefaultLookahead,
		lookback:   DefaultLookback,
	}
	if c.overlap >= targetSize {
		c.overlap = targetSize / 4
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	// Overlap must leave room to advance
	if c.overlap >= c.targetSize {
		c.overlap = c.targetSize / 4
	}
	if c.minSize == 0 {
		c.minSize = max(1, c.targetSize/4)
	}

	return c, nil
}

// Split splits text into ordered chunks. Chunks are exact subslices of the
// trimmed input, so concatenating them minus overlaps reconstructs it.
// Returns ErrNoProgress if the cursor cannot advance, instead of looping.
func (c *Chunker) Split(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	length := len(text)
	var chunks []string
	start := 0

	for start < length {
		end := c.rawEnd(text, start)

		if end < length && !atSentenceBoundary(text, end) {
			end = c.extendToSentence(text, end, length)
		}
		if end < length {
			end = c.avoidWordSplit(text, start, end)
		}

		// Too-small chunks are only allowed at the end of the text.
		if end < length && c.unitLen(text[start:end]) < c.minSize {
			if c.measure == nil {
				end = min(start+max(c.minSize, c.targetSize), length)
				end = snapBack(text, end)
			} else if raw := c.rawEnd(text, start); raw > end {
				end = raw
			}
		}

		if end <= start {
			return chunks, ErrNoProgress
		}
		chunks = append(chunks, text[start:end])

		next := c.nextStart(text, start, end)
		if next <= start {
			next = end
		}
		if next <= start {
			return chunks, ErrNoProgress
		}
		start = next
	}

	return chunks, nil
}

// unitLen measures text in the configured units.
func (c *Chunker) unitLen(text string) int {
	if c.measure == nil {
		return len(text)
	}
	return c.measure(text)
}

// rawEnd computes the naive window end for a chunk starting at start.
// With a Measure set, it binary-searches the largest end whose window fits
// within targetSize units, always advancing at least one rune.
func (c *Chunker) rawEnd(text string, start int) int {
	length := len(text)
	if c.measure == nil {
		return snapBack(text, min(start+c.targetSize, length))
	}

	_, firstRune := utf8.DecodeRuneInString(text[start:])
	lo, hi := start+firstRune, length
	for lo < hi {
		mid := snapForward(text, lo+(hi-lo+1)/2)
		if c.measure(text[start:mid]) <= c.targetSize {
			lo = mid
		} else {
			hi = snapBack(text, mid-1)
			if hi < start+firstRune {
				hi = start + firstRune
			}
		}
	}
	return lo
}

// extendToSentence pushes end forward to the nearest sentence terminator or
// newline within the lookahead window, if one exists.
func (c *Chunker) extendToSentence(text string, end, length int) int {
	window := text[end:min(end+c.lookahead, length)]
	if loc := sentenceEndRe.FindStringIndex(window); loc != nil {
		return end + loc[1]
	}
	return end
}

// avoidWordSplit pulls end back to the nearest preceding whitespace within
// the lookback window when the cut would land inside a word.
func (c *Chunker) avoidWordSplit(text string, start, end int) int {
	if isSpace(text[end]) {
		return end
	}
	limit := max(start, end-c.lookback)
	window := text[limit:end]
	cut := strings.LastIndexAny(window, " \t\n")
	if cut < 0 {
		// No whitespace found; use the raw boundary on a rune edge.
		return snapBack(text, end)
	}
	pos := limit + cut
	if pos > start {
		return pos
	}
	return snapBack(text, end)
}

// nextStart computes where the following window begins, honoring overlap.
func (c *Chunker) nextStart(text string, start, end int) int {
	if c.overlap == 0 {
		return end
	}
	if c.measure == nil {
		return snapForward(text, end-c.overlap)
	}

	// Walk back until the tail of the current chunk holds the overlap.
	lo, hi := start, end
	for lo < hi {
		mid := snapForward(text, lo+(hi-lo)/2)
		if mid >= hi {
			break
		}
		if c.measure(text[mid:end]) <= c.overlap {
			hi = mid
		} else {
			lo = nextRune(text, mid)
		}
	}
	return hi
}

// SegmentDocument splits a document's text with the given splitter and maps
// the chunks to ordered segments with content-derived IDs.
func SegmentDocument(doc *core.Document, splitter Splitter) ([]*core.Segment, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	texts, err := splitter.Split(doc.Text)
	if err != nil {
		return nil, err
	}

	segments := make([]*core.Segment, 0, len(texts))
	for i, text := range texts {
		segments = append(segments, core.NewSegment(doc.Id, i, text))
	}
	return segments, nil
}

// atSentenceBoundary reports whether the cut at end already sits just after
// a sentence terminator or a newline, so no lookahead search is needed.
func atSentenceBoundary(text string, end int) bool {
	i := end
	for i > 0 && isSpace(text[i-1]) {
		if text[i-1] == '\n' {
			return true
		}
		i--
	}
	if i == 0 {
		return false
	}
	switch text[i-1] {
	case '.', '!', '?':
		// The terminator must be followed by whitespace, either already
		// consumed above or sitting right at the cut.
		return i < end || (end < len(text) && isSpace(text[end]))
	}
	return false
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// snapBack moves i to the start of the rune it falls inside.
func snapBack(text string, i int) int {
	for i > 0 && i < len(text) && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}

// snapForward moves i forward to the next rune start.
func snapForward(text string, i int) int {
	if i < 0 {
		return 0
	}
	for i < len(text) && !utf8.RuneStart(text[i]) {
		i++
	}
	return i
}

func nextRune(text string, i int) int {
	_, n := utf8.DecodeRuneInString(text[i:])
	if n == 0 {
		return i + 1
	}
	return i + n
}
