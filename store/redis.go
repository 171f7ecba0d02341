package store

import (
	"context"
	"path"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
	"github.com/redis/go-redis/v9"
)

// The redis cache shares tool results between server instances.
// The keys namespace is organized as follows:
// - `/<prefix>/toolcache/<tool>/<hash>` for storing the text result of a tool call

type redisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache returns a Cache backed by Redis
func NewRedisCache(client *redis.Client, prefix string) Cache {
	return &redisCache{
		client: client,
		prefix: prefix,
	}
}

func (m *redisCache) getRedisKey(key string) string {
	return path.Join("/", m.prefix, key)
}

func (m *redisCache) Get(ctx context.Context, key string) (string, bool, error) {
	data, err := m.client.Get(ctx, m.getRedisKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, errors.Wrap(err, "failed to get value from Redis")
	}
	return data, true, nil
}

func (m *redisCache) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	err := m.client.Set(ctx, m.getRedisKey(key), value, ttl).Err()
	if err != nil {
		return errors.Wrap(err, "failed to store value in Redis")
	}
	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "stored",
		"key", key,
		"ttl", ttl.String(),
	)
	return nil
}

func (m *redisCache) Delete(ctx context.Context, key string) error {
	err := m.client.Del(ctx, m.getRedisKey(key)).Err()
	if err != nil {
		return errors.Wrap(err, "failed to delete value from Redis")
	}
	return nil
}
