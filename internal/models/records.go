package models

import (
	"time"

	"github.com/pgvector/pgvector-go"
	"github.com/segmentio/ksuid"
	"gorm.io/gorm"
)

// VideoRecord is the persisted metadata row for a built index.
// Persistence is optional durability across restarts; the in-memory cache
// and builder never depend on it for correctness.
type VideoRecord struct {
	VideoID      string    `json:"video_id" gorm:"type:varchar(32);primaryKey"`
	Language     string    `json:"language" gorm:"type:varchar(16)"`
	IsGenerated  bool      `json:"is_generated"`
	SegmentCount int       `json:"segment_count" gorm:"not null"`
	Duration     float64   `json:"duration"`
	BuiltAt      time.Time `json:"built_at" gorm:"not null"`
}

// ChunkRecord is one persisted chunk with its embedding.
// Using KSUID for time-ordered IDs and better index locality.
// The vector dimension matches the all-MiniLM family (384); changing the
// embedding model requires a migration.
type ChunkRecord struct {
	ID         string          `json:"id" gorm:"type:char(27);primaryKey"`
	VideoID    string          `json:"video_id" gorm:"type:varchar(32);not null;uniqueIndex:idx_video_chunk,priority:1"`
	ChunkIndex int             `json:"chunk_index" gorm:"not null;uniqueIndex:idx_video_chunk,priority:2"`
	Text       string          `json:"text" gorm:"type:text;not null"`
	StartTime  float64         `json:"start_time" gorm:"not null"`
	EndTime    float64         `json:"end_time" gorm:"not null"`
	Embedding  pgvector.Vector `json:"embedding" gorm:"type:vector(384);not null"`
	CreatedAt  time.Time       `json:"created_at" gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate hook generates KSUID before inserting
func (c *ChunkRecord) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = ksuid.New().String()
	}
	return nil
}
