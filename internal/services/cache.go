package services

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"clipseek/internal/models"
)

// MemoryCache is the default IndexCache: an in-process TTL cache of built
// indices. An entry older than its TTL reads as absent, which sends the
// next caller through the builder again.
type MemoryCache struct {
	c *gocache.Cache
}

// NewMemoryCache creates a cache whose entries expire after ttl.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	cleanup := ttl / 2
	if cleanup < time.Minute {
		cleanup = time.Minute
	}
	return &MemoryCache{c: gocache.New(ttl, cleanup)}
}

func (m *MemoryCache) Get(videoID string) (*models.VideoIndex, bool) {
	v, ok := m.c.Get(videoID)
	if !ok {
		return nil, false
	}
	return v.(*models.VideoIndex), true
}

func (m *MemoryCache) Put(videoID string, idx *models.VideoIndex) {
	m.c.Set(videoID, idx, gocache.DefaultExpiration)
}

func (m *MemoryCache) Invalidate(videoID string) {
	m.c.Delete(videoID)
}
