package core

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing so identical inputs map to
// identical identities across runs.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// EpisodeSource identifies the kind of content carried by an episode.
type EpisodeSource int

const (
	// EpisodeSourceText represents plain document text.
	EpisodeSourceText EpisodeSource = iota + 1
	// EpisodeSourceStructured represents structured (JSON-like) content.
	EpisodeSourceStructured
)

// String returns the wire-level name of the episode source.
func (s EpisodeSource) String() string {
	switch s {
	case EpisodeSourceText:
		return "text"
	case EpisodeSourceStructured:
		return "structured"
	default:
		return "unknown"
	}
}

// Document represents one normalized input document.
// A Document is created once per normalized input and is immutable afterwards.
type Document struct {
	Id           ID
	Title        string
	Text         string            // Full normalized text
	SourceFile   string            // Original filename the text was extracted from
	Pages        int               // Page count of the source, 0 if unknown
	Metadata     map[string]string // Free-form provenance metadata
	NormalizedAt time.Time         // When the source was normalized, zero if unknown
}

// DocumentID derives the stable identity for a document from its source file
// and normalized text. Two documents with the same source and content always
// share an ID.
func DocumentID(sourceFile, text string) ID {
	return IDFromContent(sourceFile + "\x00" + text)
}

// Segment is an ordered slice of a document's text produced by chunking.
// Segments reference their document by ID and are consumed read-only.
type Segment struct {
	Id         ID
	DocumentId ID
	Index      int // 0-based, contiguous, defines delivery order
	Text       string
	Page       int    // Source page, 0 if unknown
	BlockType  string // Structural block type, empty if unknown
}

// NewSegment builds a segment with a content-derived ID.
func NewSegment(docID ID, index int, text string) *Segment {
	return &Segment{
		Id:         IDFromContent(fmt.Sprintf("%d:%d:%s", docID, index, text)),
		DocumentId: docID,
		Index:      index,
		Text:       text,
	}
}

// Episode is the atomic text-plus-metadata unit submitted to the graph
// loader. Episodes are ephemeral: they are derived from a segment (or from
// document metadata) for the duration of a load call and never persisted.
type Episode struct {
	Name          string
	Body          string
	Source        EpisodeSource
	Description   string
	ReferenceTime time.Time // Ingestion time, not document time
}

// EpisodeName returns the deterministic episode name for a segment of a
// document. Retried loads reuse the same name so they are idempotent keys at
// the graph loader boundary.
func EpisodeName(docID ID, segmentIndex int) string {
	return fmt.Sprintf("%d_segment_%d", docID, segmentIndex)
}

// MetaEpisodeName returns the deterministic name of the synthetic metadata
// episode for a document.
func MetaEpisodeName(docID ID) string {
	return fmt.Sprintf("document_meta_%d", docID)
}

// LoadReport summarizes the outcome of loading one document's episodes.
type LoadReport struct {
	DocumentId ID
	Succeeded  int  // Segments loaded successfully
	Failed     int  // Segments recorded as failed
	Total      int  // Total segments attempted
	MetaLoaded bool // Whether the metadata episode was accepted
	BulkLoaded bool // Whether the bulk path satisfied the whole document
}

// IngestRecord is the journal row written after a document's load cycle
// completes. It lets repeated runs over the same inputs skip finished work.
type IngestRecord struct {
	DocumentId  ID
	SourceFile  string
	Title       string
	Segments    int
	Succeeded   int
	Failed      int
	CompletedAt time.Time
}
