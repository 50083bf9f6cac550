package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"rcca-backend/internal/domain"
)

// FileCache stores one JSON file per draft under a local directory, for
// single-node deployments without Redis.
type FileCache struct {
	mu  sync.Mutex
	dir string
}

// NewFileCache creates dir if it doesn't exist.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create draft cache directory: %w", err)
	}
	return &FileCache{dir: dir}, nil
}

func (c *FileCache) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", &domain.ValidationError{Field: "id", Message: "invalid draft id"}
	}
	return filepath.Join(c.dir, id+".json"), nil
}

func (c *FileCache) Get(_ context.Context, id string) (*domain.Record, error) {
	p, err := c.path(id)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return readDraft(p)
}

func (c *FileCache) Set(_ context.Context, r *domain.Record) error {
	if r == nil {
		return &domain.ValidationError{Field: "id", Message: "cached drafts need a canonical id"}
	}
	p, err := c.path(r.ID)
	if err != nil {
		return err
	}
	stored := r.Clone()
	stored.Tier = domain.TierLocal
	payload, err := json.Marshal(stored)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// write then rename so readers never see a partial file
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return &domain.StoreError{Op: "cache set", Err: err}
	}
	if err := os.Rename(tmp, p); err != nil {
		return &domain.StoreError{Op: "cache set", Err: err}
	}
	return nil
}

func (c *FileCache) Remove(_ context.Context, id string) error {
	p, err := c.path(id)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return &domain.StoreError{Op: "cache remove", Err: err}
	}
	return nil
}

func (c *FileCache) List(_ context.Context) ([]domain.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, &domain.StoreError{Op: "cache list", Err: err}
	}
	var out []domain.Record
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		r, err := readDraft(filepath.Join(c.dir, e.Name()))
		if err != nil {
			continue
		}
		out = append(out, *r)
	}
	sortByID(out)
	return out, nil
}

func readDraft(p string) (*domain.Record, error) {
	raw, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "cache get", Err: err}
	}
	var r domain.Record
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	r.Tier = domain.TierLocal
	return &r, nil
}
