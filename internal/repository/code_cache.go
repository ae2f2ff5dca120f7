package repository

import (
	"context"
	"time"
)

// CodeCache remembers which short codes are taken so the generation loop can
// skip obvious collisions without a database round trip. It is strictly an
// optimization: the unique constraint on links.short_code stays the arbiter,
// so a stale or missing marker is harmless.
type CodeCache interface {
	IsTaken(ctx context.Context, code string) (bool, error)
	MarkTaken(ctx context.Context, code string) error
	Release(ctx context.Context, code string) error
}

const codeMarkerTTL = 24 * time.Hour

type codeCache struct {
	redis *RedisDB
}

func NewCodeCache(redis *RedisDB) CodeCache {
	return &codeCache{redis: redis}
}

func (c *codeCache) IsTaken(ctx context.Context, code string) (bool, error) {
	n, err := c.redis.Client.Exists(ctx, c.key(code)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (c *codeCache) MarkTaken(ctx context.Context, code string) error {
	return c.redis.Client.Set(ctx, c.key(code), 1, codeMarkerTTL).Err()
}

func (c *codeCache) Release(ctx context.Context, code string) error {
	return c.redis.Client.Del(ctx, c.key(code)).Err()
}

func (c *codeCache) key(code string) string {
	return "code:" + code
}
