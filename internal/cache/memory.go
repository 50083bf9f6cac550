// Package cache provides DraftCache backends for drafts that have not been
// confirmed by the record store yet.
package cache

import (
	"context"
	"sort"
	"sync"

	"rcca-backend/internal/domain"
)

// MemoryCache keeps drafts in process memory. Used in tests and when no
// Redis address or cache directory is configured.
type MemoryCache struct {
	mu     sync.RWMutex
	drafts map[string]domain.Record
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{drafts: make(map[string]domain.Record)}
}

func (c *MemoryCache) Get(_ context.Context, id string) (*domain.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.drafts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.Clone(), nil
}

func (c *MemoryCache) Set(_ context.Context, r *domain.Record) error {
	if r == nil || r.ID == "" {
		return &domain.ValidationError{Field: "id", Message: "cached drafts need a canonical id"}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	stored := r.Clone()
	stored.Tier = domain.TierLocal
	c.drafts[r.ID] = *stored
	return nil
}

func (c *MemoryCache) Remove(_ context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.drafts, id)
	return nil
}

// List returns the cached drafts ordered by id.
func (c *MemoryCache) List(_ context.Context) ([]domain.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Record, 0, len(c.drafts))
	for _, r := range c.drafts {
		out = append(out, *r.Clone())
	}
	sortByID(out)
	return out, nil
}

func sortByID(rs []domain.Record) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].ID < rs[j].ID })
}
