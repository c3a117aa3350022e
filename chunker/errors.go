package chunker

import "errors"

var (
	// ErrInvalidTargetSize is returned when the target chunk size is not positive.
	ErrInvalidTargetSize = errors.New("target size must be greater than 0")

	// ErrInvalidOverlap is returned for a negative overlap or a fraction outside (0,1).
	ErrInvalidOverlap = errors.New("invalid overlap")

	// ErrNoProgress is returned when the chunk cursor cannot advance.
	// It indicates a configuration that would otherwise loop forever.
	ErrNoProgress = errors.New("chunker cannot make forward progress")
)
