package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"clipseek/internal/middleware"
	"clipseek/internal/models"
	"clipseek/internal/youtube"
)

// QueryConfig tunes result shaping.
type QueryConfig struct {
	DefaultK      int     // results when the request doesn't ask for a count
	MaxK          int     // hard ceiling; larger requests are clamped, not rejected
	MinScore      float32 // default relevance floor, applied after ranking
	TruncateChars int     // display-text budget per result
}

// QueryEngine answers search requests: it ensures the video's index exists,
// embeds the query, runs the similarity search and formats the hits.
type QueryEngine struct {
	builder  *IndexBuilder
	embedder Embedder
	cfg      QueryConfig
}

// NewQueryEngine creates a query engine sharing the builder's embedder
// (chunk and query vectors must live in the same embedding space).
func NewQueryEngine(builder *IndexBuilder, embedder Embedder, cfg QueryConfig) *QueryEngine {
	if cfg.DefaultK <= 0 {
		cfg.DefaultK = 5
	}
	if cfg.MaxK <= 0 {
		cfg.MaxK = 20
	}
	if cfg.TruncateChars <= 0 {
		cfg.TruncateChars = 200
	}
	return &QueryEngine{builder: builder, embedder: embedder, cfg: cfg}
}

// Search runs one query against one video. Result order is the vector
// index order - descending score, ties broken by lower chunk index - and is
// preserved end to end. Zero matches is a successful empty response, not an
// error; a failed build surfaces as a typed error so the caller can decide
// whether to retry.
func (e *QueryEngine) Search(ctx context.Context, req models.SearchRequest) (*models.SearchResponse, error) {
	started := time.Now()

	ctx, span := middleware.StartSpan(ctx, "QueryEngine.Search",
		attribute.String("video.id", req.VideoID),
		attribute.Int("max_results", req.MaxResults),
	)
	defer span.End()

	if !youtube.ValidVideoID(req.VideoID) {
		return nil, fmt.Errorf("%w: malformed video ID %q", models.ErrInvalidInput, req.VideoID)
	}
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query text is empty", models.ErrInvalidInput)
	}

	k := req.MaxResults
	if k <= 0 {
		k = e.cfg.DefaultK
	}
	if k > e.cfg.MaxK {
		k = e.cfg.MaxK
	}

	idx, cached, err := e.builder.EnsureBuilt(ctx, req.VideoID)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	queryVec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := idx.Index.Search(queryVec, k)
	if err != nil {
		middleware.AddSpanError(ctx, err)
		return nil, err
	}

	minScore := e.cfg.MinScore
	if req.MinScore != nil {
		minScore = *req.MinScore
	}

	results := make([]models.SearchResult, 0, len(hits))
	for _, hit := range hits {
		// The floor is applied after ranking so the index saw the full
		// candidate pool.
		if hit.Score < minScore {
			continue
		}
		chunk := idx.Chunks[hit.ChunkIndex]
		results = append(results, models.SearchResult{
			ChunkIndex:         chunk.ChunkIndex,
			TimestampSeconds:   chunk.StartTime,
			TimestampEnd:       chunk.EndTime,
			TimestampFormatted: youtube.FormatTimestamp(chunk.StartTime),
			Text:               truncate(chunk.Text, e.cfg.TruncateChars),
			Score:              hit.Score,
			YouTubeLink:        youtube.WatchURL(req.VideoID, chunk.StartTime),
		})
	}

	middleware.AddSpanEvent(ctx, "search_completed",
		attribute.Int("results", len(results)),
		attribute.Bool("cached", cached),
	)

	return &models.SearchResponse{
		Success: true,
		Query:   query,
		Video: models.VideoMetadata{
			VideoID:      idx.VideoID,
			Duration:     idx.Duration,
			SegmentCount: idx.SegmentCount,
			Language:     idx.Language,
			IsGenerated:  idx.IsGenerated,
		},
		Results:      results,
		SearchTimeMs: float64(time.Since(started).Microseconds()) / 1000.0,
		Cached:       cached,
	}, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
