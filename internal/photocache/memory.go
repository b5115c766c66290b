package photocache

import (
	"context"
	"sync"

	"poker-coach/internal/models"
)

var _ Cache = (*MemoryCache)(nil)

// MemoryCache - in-process map. The stored pointer is swapped on Put, so
// readers see either the old or the new photo, never a mix.
type MemoryCache struct {
	mu     sync.RWMutex
	photos map[string]*models.StoredPhoto
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{photos: make(map[string]*models.StoredPhoto)}
}

func (c *MemoryCache) Put(_ context.Context, ownerID string, photo *models.StoredPhoto) error {
	c.mu.Lock()
	c.photos[ownerID] = photo
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Get(_ context.Context, ownerID string) (*models.StoredPhoto, error) {
	c.mu.RLock()
	p, ok := c.photos[ownerID]
	c.mu.RUnlock()
	if !ok {
		return nil, models.ErrPhotoNotFound
	}
	return p, nil
}

func (c *MemoryCache) GetByRequestID(ctx context.Context, ownerID, requestID string) (*models.StoredPhoto, error) {
	p, err := c.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if p.RequestID != requestID {
		return nil, models.ErrPhotoNotFound
	}
	return p, nil
}
