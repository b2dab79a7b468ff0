package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"clipseek/internal/chunker"
	"clipseek/internal/middleware"
	"clipseek/internal/models"
	"clipseek/internal/vectorindex"
)

// BuildState is the lifecycle of a video's index: absent -> building ->
// ready, or building -> failed -> absent (failed builds are not cached and
// may be retried by the next call).
type BuildState string

const (
	StateAbsent   BuildState = "absent"
	StateBuilding BuildState = "building"
	StateReady    BuildState = "ready"
	StateFailed   BuildState = "failed"
)

// BuildEvent is a state transition published to status subscribers.
type BuildEvent struct {
	VideoID    string     `json:"video_id"`
	State      BuildState `json:"state"`
	ChunkCount int        `json:"chunk_count,omitempty"`
	Error      string     `json:"error,omitempty"`
	At         time.Time  `json:"at"`
}

// BuilderConfig tunes the index build pipeline.
type BuilderConfig struct {
	Chunker      chunker.Config
	Dimension    int           // embedding dimension, fixed per deployment
	EmbedRetries int           // bounded attempts per external call
	EmbedBackoff time.Duration // base backoff, doubled per attempt
	BuildTimeout time.Duration // deadline for one whole build

	// ANN tuning, passed through to each video's vector index. Zero values
	// keep the index defaults.
	ANNThreshold     int
	ANNProbeFraction float64
}

// buildCell is the result slot behind a build token. The builder closes
// done exactly once; joiners read idx/err only after that.
type buildCell struct {
	done chan struct{}
	idx  *models.VideoIndex
	err  error
}

// IndexBuilder turns raw transcripts into searchable vector indices,
// exactly once per video even under concurrent requests.
//
// The building map is the build-token table: one cell per in-flight video.
// Its mutex is scoped to map operations only - never held across fetch,
// embed or store work - so unrelated videos build in parallel.
type IndexBuilder struct {
	source   TranscriptSource
	embedder Embedder
	cache    IndexCache
	store    IndexStore // optional, may be nil
	cfg      BuilderConfig

	mu       sync.Mutex
	building map[string]*buildCell

	subMu sync.Mutex
	subs  map[string]map[chan BuildEvent]struct{}
}

// NewIndexBuilder creates a builder. store may be nil to disable
// persistence.
func NewIndexBuilder(source TranscriptSource, embedder Embedder, cache IndexCache, store IndexStore, cfg BuilderConfig) *IndexBuilder {
	if cfg.EmbedRetries <= 0 {
		cfg.EmbedRetries = 3
	}
	if cfg.EmbedBackoff <= 0 {
		cfg.EmbedBackoff = 500 * time.Millisecond
	}
	if cfg.BuildTimeout <= 0 {
		cfg.BuildTimeout = 2 * time.Minute
	}
	return &IndexBuilder{
		source:   source,
		embedder: embedder,
		cache:    cache,
		store:    store,
		cfg:      cfg,
		building: make(map[string]*buildCell),
		subs:     make(map[string]map[chan BuildEvent]struct{}),
	}
}

// EnsureBuilt returns the ready index for a video, building it first if
// needed. The bool reports whether the index came from cache.
//
// Single-flight: when N callers arrive for the same unindexed video, one
// build runs and the other N-1 join its result cell. A caller whose context
// expires while joining gets a timeout error, but the underlying build keeps
// running for everyone else.
func (b *IndexBuilder) EnsureBuilt(ctx context.Context, videoID string) (*models.VideoIndex, bool, error) {
	if idx, ok := b.cache.Get(videoID); ok {
		return idx, true, nil
	}

	b.mu.Lock()
	cell, joined := b.building[videoID]
	if !joined {
		cell = &buildCell{done: make(chan struct{})}
		b.building[videoID] = cell
		// The build runs detached from any single caller's context, under
		// its own deadline, so joiners outlive each other's cancellations.
		go b.runBuild(videoID, cell)
	}
	b.mu.Unlock()

	select {
	case <-cell.done:
		return cell.idx, false, cell.err
	case <-ctx.Done():
		return nil, false, fmt.Errorf("%w: gave up waiting for index build of %s: %v",
			models.ErrBuildTimeout, videoID, ctx.Err())
	}
}

// State reports the current lifecycle state for a video.
func (b *IndexBuilder) State(videoID string) BuildState {
	if _, ok := b.cache.Get(videoID); ok {
		return StateReady
	}
	b.mu.Lock()
	_, building := b.building[videoID]
	b.mu.Unlock()
	if building {
		return StateBuilding
	}
	return StateAbsent
}

// Cached returns the cached index for a video without triggering a build.
func (b *IndexBuilder) Cached(videoID string) (*models.VideoIndex, bool) {
	return b.cache.Get(videoID)
}

// Invalidate drops the cached index and any persisted copy. The next
// EnsureBuilt call rebuilds from source.
func (b *IndexBuilder) Invalidate(ctx context.Context, videoID string) {
	b.cache.Invalidate(videoID)
	if b.store != nil {
		if err := b.store.DeleteIndex(ctx, videoID); err != nil {
			log.Printf("⚠️  Failed to delete persisted index for %s: %v", videoID, err)
		}
	}
}

// runBuild executes one build and settles the cell. The token is released
// (cell removed) after the result is published, so a late arrival either
// joins the finished cell or finds the cache populated.
func (b *IndexBuilder) runBuild(videoID string, cell *buildCell) {
	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.BuildTimeout)
	defer cancel()

	buildID := uuid.New().String()
	ctx, span := middleware.StartSpan(ctx, "Builder.Build",
		attribute.String("video.id", videoID),
		attribute.String("build.id", buildID),
	)
	defer span.End()

	started := time.Now()
	log.Printf("🔨 [%s] Building index for video %s", buildID, videoID)
	b.publish(BuildEvent{VideoID: videoID, State: StateBuilding, At: started})

	idx, err := b.build(ctx, videoID)
	if err != nil && ctx.Err() == context.DeadlineExceeded {
		err = fmt.Errorf("%w: build of %s exceeded %v", models.ErrBuildTimeout, videoID, b.cfg.BuildTimeout)
	}

	if err == nil {
		// Publish before releasing the token: a caller arriving in between
		// must never find both the cache and the token table empty.
		b.cache.Put(videoID, idx)
		if b.store != nil {
			if serr := b.store.SaveIndex(ctx, idx); serr != nil {
				log.Printf("⚠️  [%s] Failed to persist index for %s: %v (serving from memory)", buildID, videoID, serr)
			}
		}
		cell.idx = idx
		log.Printf("✓ [%s] Index ready for %s: %d chunks in %dms",
			buildID, videoID, len(idx.Chunks), time.Since(started).Milliseconds())
	} else {
		middleware.AddSpanError(ctx, err)
		cell.err = err
		log.Printf("❌ [%s] Index build failed for %s: %v", buildID, videoID, err)
	}

	b.mu.Lock()
	delete(b.building, videoID)
	b.mu.Unlock()
	close(cell.done)

	if err == nil {
		b.publish(BuildEvent{VideoID: videoID, State: StateReady, ChunkCount: len(idx.Chunks), At: time.Now()})
	} else {
		b.publish(BuildEvent{VideoID: videoID, State: StateFailed, Error: err.Error(), At: time.Now()})
	}
}

// build runs fetch -> chunk -> embed -> index. It either returns a complete
// index or an error; nothing partial ever escapes. A half-embedded video
// must never be served - unembedded chunks would be silently unsearchable.
func (b *IndexBuilder) build(ctx context.Context, videoID string) (*models.VideoIndex, error) {
	// Warm start: a persisted index from a previous process is as good as a
	// cache hit and skips the external collaborators entirely.
	if b.store != nil {
		if idx, err := b.store.LoadIndex(ctx, videoID); err == nil {
			middleware.AddSpanEvent(ctx, "index_loaded_from_store",
				attribute.Int("chunks", len(idx.Chunks)))
			return idx, nil
		} else if !errors.Is(err, models.ErrNotFound) {
			log.Printf("⚠️  Failed to load persisted index for %s: %v (rebuilding from source)", videoID, err)
		}
	}

	var transcript *models.Transcript
	err := b.withRetry(ctx, func() error {
		var ferr error
		transcript, ferr = b.source.FetchTranscript(ctx, videoID)
		return ferr
	})
	if err != nil {
		return nil, fmt.Errorf("fetch transcript for %s: %w", videoID, err)
	}

	chunks, err := chunker.Chunk(videoID, transcript.Segments, b.cfg.Chunker)
	if err != nil {
		return nil, fmt.Errorf("chunk transcript for %s: %w", videoID, err)
	}

	var opts []vectorindex.Option
	if b.cfg.ANNThreshold > 0 {
		opts = append(opts, vectorindex.WithANNThreshold(b.cfg.ANNThreshold))
	}
	if b.cfg.ANNProbeFraction > 0 {
		opts = append(opts, vectorindex.WithProbeFraction(b.cfg.ANNProbeFraction))
	}
	vidx := vectorindex.New(b.cfg.Dimension, opts...)
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}

		var vecs [][]float32
		err = b.withRetry(ctx, func() error {
			var eerr error
			vecs, eerr = b.embedder.EmbedMany(ctx, texts)
			return eerr
		})
		if err != nil {
			return nil, fmt.Errorf("embed %d chunks for %s: %w", len(chunks), videoID, err)
		}

		for i := range chunks {
			if len(vecs[i]) != b.cfg.Dimension {
				return nil, fmt.Errorf("%w: chunk %d embedded to %d dimensions, expected %d",
					models.ErrDimensionMismatch, i, len(vecs[i]), b.cfg.Dimension)
			}
			chunks[i].Embedding = vecs[i]
			if err := vidx.Insert(chunks[i].ChunkIndex, vecs[i]); err != nil {
				return nil, err
			}
		}
	}
	vidx.Seal()

	return &models.VideoIndex{
		VideoID:      videoID,
		Chunks:       chunks,
		BuiltAt:      time.Now().UTC(),
		SegmentCount: len(transcript.Segments),
		Language:     transcript.Language,
		IsGenerated:  transcript.IsGenerated,
		Duration:     transcript.Duration(),
		Index:        vidx,
	}, nil
}

// withRetry runs fn up to EmbedRetries times with exponential backoff.
// Only transient dependency failures are retried; invalid input, missing
// videos and dimension mismatches surface immediately.
func (b *IndexBuilder) withRetry(ctx context.Context, fn func() error) error {
	backoff := b.cfg.EmbedBackoff
	var err error
	for attempt := 1; attempt <= b.cfg.EmbedRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !errors.Is(err, models.ErrDependencyUnavailable) {
			return err
		}
		if attempt == b.cfg.EmbedRetries {
			break
		}
		log.Printf("  Retry %d/%d after transient failure: %v", attempt, b.cfg.EmbedRetries, err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return err
}

// Subscribe registers for build state events for one video. The returned
// cancel func must be called to release the channel. Events are dropped,
// not blocked on, when a subscriber falls behind.
func (b *IndexBuilder) Subscribe(videoID string) (<-chan BuildEvent, func()) {
	ch := make(chan BuildEvent, 8)
	b.subMu.Lock()
	if b.subs[videoID] == nil {
		b.subs[videoID] = make(map[chan BuildEvent]struct{})
	}
	b.subs[videoID][ch] = struct{}{}
	b.subMu.Unlock()

	return ch, func() {
		b.subMu.Lock()
		delete(b.subs[videoID], ch)
		if len(b.subs[videoID]) == 0 {
			delete(b.subs, videoID)
		}
		b.subMu.Unlock()
	}
}

func (b *IndexBuilder) publish(ev BuildEvent) {
	b.subMu.Lock()
	defer b.subMu.Unlock()
	for ch := range b.subs[ev.VideoID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
