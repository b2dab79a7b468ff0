package models

import (
	"errors"

	"clipseek/internal/vectorindex"
)

// Error taxonomy for the search engine. Handlers and callers classify
// failures with errors.Is; lower layers wrap these sentinels with context.
var (
	// ErrInvalidInput covers malformed video IDs, empty queries and
	// broken transcript data (negative durations, out-of-order segments).
	// Never retried.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound means the transcript source has nothing for the video
	// (private, deleted, or no captions).
	ErrNotFound = errors.New("video not found")

	// ErrDependencyUnavailable is a transient failure of the transcript
	// source or embedding service. Retried internally with backoff before
	// it ever reaches a caller.
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrDimensionMismatch means an embedding's length does not match the
	// index dimension. A deployment misconfiguration - fatal, not retried.
	// Aliases the index's own sentinel so errors.Is matches across layers.
	ErrDimensionMismatch = vectorindex.ErrDimensionMismatch

	// ErrConfiguration covers invalid engine configuration detected at
	// startup or request time.
	ErrConfiguration = errors.New("configuration error")

	// ErrBuildTimeout means an index build exceeded its deadline. The
	// build token is released; a later call may retry the build.
	ErrBuildTimeout = errors.New("index build timed out")
)
