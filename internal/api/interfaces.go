package api

import (
	"context"

	"clipseek/internal/models"
	"clipseek/internal/services"
)

// Handler dependencies as consumer-driven interfaces: this package declares
// only the methods it calls, so handlers are testable against fakes and the
// service implementations stay free to change.

// QueryService answers search requests.
type QueryService interface {
	Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error)
}

// IndexAdmin exposes index lifecycle operations to the status and
// invalidation endpoints.
type IndexAdmin interface {
	State(videoID string) services.BuildState
	Cached(videoID string) (*models.VideoIndex, bool)
	Invalidate(ctx context.Context, videoID string)
	Subscribe(videoID string) (<-chan services.BuildEvent, func())
}

// HealthChecker reports embedding-service reachability for the health
// endpoint.
type HealthChecker interface {
	Healthy(ctx context.Context) bool
}
