package profile

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"seva/internal/platform/redis"
	"seva/pkg/platform/sentinel"
)

// Cache is the read-through profile cache. The server remains the source of
// truth: writes never populate the cache, they delete the entry, and the next
// read backfills from the store.
type Cache interface {
	Get(ctx context.Context, userID string) (Profile, error)
	Set(ctx context.Context, p Profile) error
	Invalidate(ctx context.Context, userID string) error
}

// RedisCache stores profiles as JSON under a per-user key with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func cacheKey(userID string) string { return "profile:" + userID }

func (c *RedisCache) Get(ctx context.Context, userID string) (Profile, error) {
	raw, err := c.client.Get(ctx, cacheKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return Profile{}, sentinel.ErrNotFound
		}
		return Profile{}, err
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		// A corrupt entry behaves like a miss; the next Set overwrites it.
		return Profile{}, sentinel.ErrNotFound
	}
	return p, nil
}

func (c *RedisCache) Set(ctx context.Context, p Profile) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey(p.UserID), raw, c.ttl).Err()
}

func (c *RedisCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, cacheKey(userID)).Err()
}
