package ingest

import "errors"

var (
	// ErrInvalidMaxAttempts is returned when a retry is requested with a
	// non-positive attempt budget.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than 0")

	// ErrLoaderRequired is returned when a graph loader is not provided.
	ErrLoaderRequired = errors.New("graph loader required")

	// ErrContextRequired is returned when an ingestion context is not provided.
	ErrContextRequired = errors.New("ingestion context required")

	// ErrSinkRequired is returned when a failure sink is not provided.
	ErrSinkRequired = errors.New("failure sink required")
)
