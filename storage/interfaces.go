package storage

import (
	"context"

	"github.com/poiesic/epigraph/core"
)

// JournalRepository persists the ingest journal: one record per completed
// document load cycle, used to skip finished work on repeated runs.
// Implementations must be thread-safe.
type JournalRepository interface {
	// SaveIngest writes or overwrites the journal record for a document.
	SaveIngest(ctx context.Context, record *core.IngestRecord) error

	// GetIngest retrieves the journal record for a document.
	// Returns ErrNotFound if the document has never completed a load cycle.
	GetIngest(ctx context.Context, id core.ID) (*core.IngestRecord, error)

	// ListIngests returns all journal records, ordered by completion time
	// ascending.
	ListIngests(ctx context.Context) ([]*core.IngestRecord, error)

	// DeleteIngest removes a journal record so the document is re-ingested
	// on the next run. Returns ErrNotFound if no record exists.
	DeleteIngest(ctx context.Context, id core.ID) error

	// Close releases the underlying storage.
	Close() error
}
