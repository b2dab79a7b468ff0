// Package chunker splits a time-aligned transcript into overlapping text
// windows, the retrievable units of the search index.
package chunker

import (
	"fmt"
	"strings"

	"clipseek/internal/models"
)

// Config controls chunk boundaries. Window size and overlap are tunables,
// not constants - retrieval quality depends on them and they should be
// validated empirically per embedding model.
type Config struct {
	// WindowSeconds is the target duration of one chunk.
	WindowSeconds float64
	// OverlapSeconds repeats the tail of the previous window at the start
	// of the next, so a phrase spanning a boundary is fully captured in at
	// least one chunk.
	OverlapSeconds float64
	// MaxChars closes a window early when the concatenated text reaches
	// this budget, whichever limit is hit first.
	MaxChars int
}

// DefaultConfig returns the chunking defaults: 35s windows, 5s overlap,
// 1000-character budget.
func DefaultConfig() Config {
	return Config{WindowSeconds: 35, OverlapSeconds: 5, MaxChars: 1000}
}

// Validate checks the config for values that would produce degenerate or
// non-terminating chunking.
func (c Config) Validate() error {
	if c.WindowSeconds <= 0 {
		return fmt.Errorf("%w: chunk window must be positive, got %v", models.ErrConfiguration, c.WindowSeconds)
	}
	if c.OverlapSeconds < 0 || c.OverlapSeconds >= c.WindowSeconds {
		return fmt.Errorf("%w: chunk overlap must be in [0, window), got %v", models.ErrConfiguration, c.OverlapSeconds)
	}
	if c.MaxChars <= 0 {
		return fmt.Errorf("%w: chunk char budget must be positive, got %d", models.ErrConfiguration, c.MaxChars)
	}
	return nil
}

// Chunk groups segments into windows. Embeddings are left unset; the builder
// fills them in.
//
// Deterministic: identical segments and config always produce identical
// boundaries and text. Rebuilds rely on this. Zero segments yield zero
// chunks, not an error. Segments with negative duration or out of time order
// fail with ErrInvalidInput - this layer never repairs or sorts its input.
func Chunk(videoID string, segments []models.TranscriptSegment, cfg Config) ([]models.Chunk, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for i, seg := range segments {
		if seg.Duration < 0 {
			return nil, fmt.Errorf("%w: segment %d has negative duration %v", models.ErrInvalidInput, i, seg.Duration)
		}
		if i > 0 && seg.Start < segments[i-1].Start {
			return nil, fmt.Errorf("%w: segment %d starts at %v, before segment %d", models.ErrInvalidInput, i, seg.Start, i-1)
		}
	}

	var chunks []models.Chunk
	start := 0
	for start < len(segments) {
		windowStart := segments[start].Start

		// Extend the window until the duration target or the char budget
		// closes it, or the transcript runs out.
		end := start
		chars := 0
		for end < len(segments) {
			seg := segments[end]
			chars += len(seg.Text) + 1
			end++
			if seg.End()-windowStart >= cfg.WindowSeconds || chars >= cfg.MaxChars {
				break
			}
		}

		text := joinSegmentText(segments[start:end])
		if text != "" {
			chunks = append(chunks, models.Chunk{
				VideoID:    videoID,
				ChunkIndex: len(chunks),
				Text:       text,
				StartTime:  windowStart,
				EndTime:    segments[end-1].End(),
			})
		}

		start = nextWindowStart(segments, start, end, cfg.OverlapSeconds)
	}

	return chunks, nil
}

// nextWindowStart picks where the next window opens: the earliest segment
// inside the closed window that falls within the overlap tail, or the first
// uncovered segment when overlap is disabled or no segment qualifies.
// Always advances past start, so chunking terminates.
func nextWindowStart(segments []models.TranscriptSegment, start, end int, overlap float64) int {
	if overlap <= 0 {
		return end
	}
	cutoff := segments[end-1].End() - overlap
	for j := start + 1; j < end; j++ {
		if segments[j].Start >= cutoff {
			return j
		}
	}
	return end
}

func joinSegmentText(segments []models.TranscriptSegment) string {
	parts := make([]string, 0, len(segments))
	for _, seg := range segments {
		if t := strings.Join(strings.Fields(seg.Text), " "); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
