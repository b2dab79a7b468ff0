package repository

import (
	"context"
	"errors"
	"fmt"

	"clipseek/internal/models"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// IndexRepositoryImpl persists built video indices in Postgres with
// pgvector columns. This is the IMPLEMENTATION - the services package
// defines the IndexStore interface it consumes.
type IndexRepositoryImpl struct {
	db  *gorm.DB
	dim int
}

// NewIndexRepository creates a new index repository. dim is the embedding
// dimension used when rebuilding in-memory vector indices from rows.
func NewIndexRepository(db *gorm.DB, dim int) *IndexRepositoryImpl {
	return &IndexRepositoryImpl{db: db, dim: dim}
}

// SaveIndex stores a built index wholesale. The transaction replaces any
// previous rows for the video, so the unique (video_id, chunk_index)
// constraint always sees a consistent generation.
func (r *IndexRepositoryImpl) SaveIndex(ctx context.Context, idx *models.VideoIndex) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_id = ?", idx.VideoID).Delete(&models.ChunkRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear old chunks: %w", err)
		}
		if err := tx.Where("video_id = ?", idx.VideoID).Delete(&models.VideoRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear old video row: %w", err)
		}

		video := models.VideoRecord{
			VideoID:      idx.VideoID,
			Language:     idx.Language,
			IsGenerated:  idx.IsGenerated,
			SegmentCount: idx.SegmentCount,
			Duration:     idx.Duration,
			BuiltAt:      idx.BuiltAt,
		}
		if err := tx.Create(&video).Error; err != nil {
			return fmt.Errorf("failed to store video row: %w", err)
		}

		for _, c := range idx.Chunks {
			record := models.ChunkRecord{
				VideoID:    c.VideoID,
				ChunkIndex: c.ChunkIndex,
				Text:       c.Text,
				StartTime:  c.StartTime,
				EndTime:    c.EndTime,
				Embedding:  pgvector.NewVector(c.Embedding),
			}
			if err := tx.Create(&record).Error; err != nil {
				return fmt.Errorf("failed to store chunk %d: %w", c.ChunkIndex, err)
			}
		}
		return nil
	})
}

// LoadIndex reads a persisted index and rebuilds the in-memory vector
// index from the stored embeddings. Fails with models.ErrNotFound when the
// video has never been persisted.
func (r *IndexRepositoryImpl) LoadIndex(ctx context.Context, videoID string) (*models.VideoIndex, error) {
	var video models.VideoRecord
	err := r.db.WithContext(ctx).Where("video_id = ?", videoID).First(&video).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no persisted index for %s", models.ErrNotFound, videoID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load video row: %w", err)
	}

	var records []models.ChunkRecord
	err = r.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("chunk_index").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load chunks: %w", err)
	}

	chunks := make([]models.Chunk, len(records))
	for i, rec := range records {
		chunks[i] = models.Chunk{
			VideoID:    rec.VideoID,
			ChunkIndex: rec.ChunkIndex,
			Text:       rec.Text,
			StartTime:  rec.StartTime,
			EndTime:    rec.EndTime,
			Embedding:  rec.Embedding.Slice(),
		}
	}

	idx := &models.VideoIndex{
		VideoID:      video.VideoID,
		Chunks:       chunks,
		BuiltAt:      video.BuiltAt,
		SegmentCount: video.SegmentCount,
		Language:     video.Language,
		IsGenerated:  video.IsGenerated,
		Duration:     video.Duration,
	}
	if err := idx.RebuildIndex(r.dim); err != nil {
		return nil, fmt.Errorf("failed to rebuild vector index for %s: %w", videoID, err)
	}
	return idx, nil
}

// DeleteIndex removes the persisted rows for a video.
func (r *IndexRepositoryImpl) DeleteIndex(ctx context.Context, videoID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_id = ?", videoID).Delete(&models.ChunkRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete chunks: %w", err)
		}
		if err := tx.Where("video_id = ?", videoID).Delete(&models.VideoRecord{}).Error; err != nil {
			return fmt.Errorf("failed to delete video row: %w", err)
		}
		return nil
	})
}
