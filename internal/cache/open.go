package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"rcca-backend/internal/config"
	"rcca-backend/internal/logger"
	"rcca-backend/internal/repository"
)

// Open builds the draft cache selected by cfg. The returned close function
// releases any client the cache holds.
func Open(ctx context.Context, cfg config.CacheConfig) (repository.DraftCache, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.CacheMemory, "":
		logger.Info("Using in-memory draft cache")
		return NewMemoryCache(), noop, nil
	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("Using redis draft cache", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return NewRedisCache(client, cfg.RedisKey), client.Close, nil
	case config.CacheFile:
		c, err := NewFileCache(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Using file draft cache", "dir", cfg.Dir)
		return c, noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
