package services

import (
	"context"

	"clipseek/internal/models"
)

// Interfaces for the builder's and query engine's collaborators live here,
// in the consuming package. Production clients and test fakes satisfy the
// same contracts, so the engine is testable without network access.

// TranscriptSource fetches the time-aligned transcript for a video.
// Implementations fail with models.ErrNotFound when the video has no
// captions and models.ErrDependencyUnavailable on transient upstream errors.
type TranscriptSource interface {
	FetchTranscript(ctx context.Context, videoID string) (*models.Transcript, error)
}

// Embedder converts text into fixed-length vectors, all in one embedding
// space. EmbedMany returns vectors in input order with all-or-nothing
// failure semantics.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)
}

// IndexCache holds completed indices keyed by video ID with a TTL. The
// cache is advisory: search correctness never depends on a hit, only
// latency does, so implementations swallow their own errors and report
// misses instead.
type IndexCache interface {
	Get(videoID string) (*models.VideoIndex, bool)
	Put(videoID string, idx *models.VideoIndex)
	Invalidate(videoID string)
}

// IndexStore is optional durable persistence of built indices across
// process restarts. LoadIndex fails with models.ErrNotFound when nothing
// is stored for the video.
type IndexStore interface {
	SaveIndex(ctx context.Context, idx *models.VideoIndex) error
	LoadIndex(ctx context.Context, videoID string) (*models.VideoIndex, error)
	DeleteIndex(ctx context.Context, videoID string) error
}
