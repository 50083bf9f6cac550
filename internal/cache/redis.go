package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"rcca-backend/internal/domain"
	"rcca-backend/internal/logger"
)

// DefaultRedisKey is the hash holding every cached draft, field per id.
const DefaultRedisKey = "rcca:drafts"

// hashClient is the subset of *redis.Client the cache uses.
type hashClient interface {
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HDel(ctx context.Context, key string, fields ...string) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

type RedisCache struct {
	client hashClient
	key    string
}

func NewRedisCache(client *redis.Client, key string) *RedisCache {
	return newRedisCache(client, key)
}

func newRedisCache(client hashClient, key string) *RedisCache {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisCache{client: client, key: key}
}

func (c *RedisCache) Get(ctx context.Context, id string) (*domain.Record, error) {
	raw, err := c.client.HGet(ctx, c.key, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "cache get", Err: err}
	}
	var r domain.Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return nil, err
	}
	r.Tier = domain.TierLocal
	return &r, nil
}

func (c *RedisCache) Set(ctx context.Context, r *domain.Record) error {
	if r == nil || r.ID == "" {
		return &domain.ValidationError{Field: "id", Message: "cached drafts need a canonical id"}
	}
	stored := r.Clone()
	stored.Tier = domain.TierLocal
	payload, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	logger.ExternalServiceCall("redis", "HSET", "key", c.key, "recordID", r.ID)
	err = c.client.HSet(ctx, c.key, r.ID, payload).Err()
	logger.ExternalServiceResult("redis", "HSET", err)
	if err != nil {
		return &domain.StoreError{Op: "cache set", Err: err}
	}
	return nil
}

func (c *RedisCache) Remove(ctx context.Context, id string) error {
	if err := c.client.HDel(ctx, c.key, id).Err(); err != nil {
		return &domain.StoreError{Op: "cache remove", Err: err}
	}
	return nil
}

func (c *RedisCache) List(ctx context.Context) ([]domain.Record, error) {
	all, err := c.client.HGetAll(ctx, c.key).Result()
	if err != nil {
		return nil, &domain.StoreError{Op: "cache list", Err: err}
	}
	out := make([]domain.Record, 0, len(all))
	for id, raw := range all {
		var r domain.Record
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			logger.Warn("Skipping unreadable cached draft", "recordID", id, "error", err)
			continue
		}
		r.Tier = domain.TierLocal
		out = append(out, r)
	}
	sortByID(out)
	return out, nil
}
