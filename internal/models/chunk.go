package models

import (
	"time"

	"clipseek/internal/vectorindex"
)

// Chunk is the retrievable unit: one or more consecutive transcript segments
// concatenated into a window of speech. Chunks may overlap their neighbours
// by design (sliding window) but never skip transcript content.
type Chunk struct {
	VideoID    string    `json:"video_id"`
	ChunkIndex int       `json:"chunk_index"` // 0-based, unique per video
	Text       string    `json:"text"`
	StartTime  float64   `json:"start_time"` // seconds
	EndTime    float64   `json:"end_time"`   // seconds, always > StartTime
	Embedding  []float32 `json:"embedding,omitempty"`
}

// VideoIndex is the complete searchable index for one video. It is built
// exactly once per video by the index builder and never mutated afterwards;
// cache eviction followed by a rebuild is the only refresh path.
type VideoIndex struct {
	VideoID      string    `json:"video_id"`
	Chunks       []Chunk   `json:"chunks"` // ordered by ChunkIndex
	BuiltAt      time.Time `json:"built_at"`
	SegmentCount int       `json:"segment_count"`
	Language     string    `json:"language"`
	IsGenerated  bool      `json:"is_generated"`
	Duration     float64   `json:"duration"` // seconds

	// Index holds the unit-normalized chunk vectors. Not serialized; it is
	// rebuilt from chunk embeddings when an index is loaded from Redis or
	// Postgres.
	Index *vectorindex.Index `json:"-"`
}

// RebuildIndex reconstructs the vector index from the stored chunk
// embeddings. Used after deserializing a VideoIndex from an external store.
func (vi *VideoIndex) RebuildIndex(dim int) error {
	idx := vectorindex.New(dim)
	for _, c := range vi.Chunks {
		if err := idx.Insert(c.ChunkIndex, c.Embedding); err != nil {
			return err
		}
	}
	idx.Seal()
	vi.Index = idx
	return nil
}
