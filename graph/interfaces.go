package graph

import (
	"context"

	"github.com/poiesic/epigraph/core"
)

// Loader submits single episodes to the graph loader service.
// Implementations must be thread-safe for concurrent use.
type Loader interface {
	// AddEpisode submits one episode. Episode names are deterministic per
	// (document, segment), so resubmitting after a failure is safe.
	AddEpisode(ctx context.Context, episode core.Episode) error
}

// BulkLoader is the optional bulk-submission capability.
// A loader that implements it can take all of a document's episodes in a
// single call; absence of the capability is not an error, callers fall back
// to sequential AddEpisode calls.
type BulkLoader interface {
	Loader

	// AddEpisodeBulk submits episodes as one unit. The call either
	// succeeds for the whole batch or fails for the whole batch; there is
	// no per-item outcome.
	AddEpisodeBulk(ctx context.Context, episodes []core.Episode) error
}
