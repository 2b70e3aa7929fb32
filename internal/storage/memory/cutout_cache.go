package memory

import (
	"bytes"
	"context"
	"sync"

	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/storage"
)

// CutoutCache is an in-memory implementation of storage.CutoutCache.
// Entries never expire.
type CutoutCache struct {
	mu   sync.RWMutex
	data map[alertKey]*domain.Cutouts
}

// NewCutoutCache creates a new in-memory cutout cache.
func NewCutoutCache() *CutoutCache {
	return &CutoutCache{
		data: make(map[alertKey]*domain.Cutouts),
	}
}

// GetCutouts returns cached stamps. Returns ErrNotFound on a miss.
func (c *CutoutCache) GetCutouts(_ context.Context, survey domain.Survey, candid int64) (*domain.Cutouts, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cut, ok := c.data[alertKey{survey, candid}]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return copyCutouts(cut), nil
}

// PutCutouts stores stamps, replacing any cached entry.
func (c *CutoutCache) PutCutouts(_ context.Context, survey domain.Survey, cut *domain.Cutouts) error {
	if cut == nil || survey == "" {
		return storage.ErrInvalidInput
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[alertKey{survey, cut.Candid}] = copyCutouts(cut)
	return nil
}

func copyCutouts(c *domain.Cutouts) *domain.Cutouts {
	return &domain.Cutouts{
		Candid:     c.Candid,
		Science:    bytes.Clone(c.Science),
		Template:   bytes.Clone(c.Template),
		Difference: bytes.Clone(c.Difference),
	}
}

// Verify interface compliance at compile time.
var _ storage.CutoutCache = (*CutoutCache)(nil)
