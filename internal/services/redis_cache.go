package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"clipseek/internal/models"
)

// RedisCache is an IndexCache backed by Redis, for deployments where several
// instances should share built indices. Chunks and metadata are stored as
// JSON with a TTL; the vector index itself is rebuilt from the chunk
// embeddings on read.
//
// Like every IndexCache, it is advisory: Redis errors are logged and
// reported as misses, never surfaced to the caller.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
	dim int

	opTimeout time.Duration
}

// NewRedisCache creates a Redis-backed index cache. dim is the embedding
// dimension used to rebuild vector indices from cached chunks.
func NewRedisCache(rdb *redis.Client, ttl time.Duration, dim int) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl, dim: dim, opTimeout: 2 * time.Second}
}

func redisKey(videoID string) string {
	return "clipseek:index:" + videoID
}

func (r *RedisCache) Get(videoID string) (*models.VideoIndex, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), r.opTimeout)
	defer cancel()

	payload, err := r.rdb.Get(ctx, redisKey(videoID)).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		log.Printf("⚠️  Redis cache get failed for %s: %v (treating as miss)", videoID, err)
		return nil, false
	}

	var idx models.VideoIndex
	if err := json.Unmarshal(payload, &idx); err != nil {
		log.Printf("⚠️  Redis cache entry for %s is corrupt: %v (treating as miss)", videoID, err)
		return nil, false
	}
	if err := idx.RebuildIndex(r.dim); err != nil {
		log.Printf("⚠️  Failed to rebuild vector index for cached %s: %v (treating as miss)", videoID, err)
		return nil, false
	}
	return &idx, true
}

func (r *RedisCache) Put(videoID string, idx *models.VideoIndex) {
	payload, err := json.Marshal(idx)
	if err != nil {
		log.Printf("⚠️  Failed to marshal index for %s: %v (not cached)", videoID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.opTimeout)
	defer cancel()

	if err := r.rdb.Set(ctx, redisKey(videoID), payload, r.ttl).Err(); err != nil {
		log.Printf("⚠️  Redis cache put failed for %s: %v (not cached)", videoID, err)
	}
}

func (r *RedisCache) Invalidate(videoID string) {
	ctx, cancel := context.WithTimeout(context.Background(), r.opTimeout)
	defer cancel()

	if err := r.rdb.Del(ctx, redisKey(videoID)).Err(); err != nil {
		log.Printf("⚠️  Redis cache invalidate failed for %s: %v", videoID, err)
	}
}
