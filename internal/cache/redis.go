package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "blsload:flatfile:"

// RedisStore caches entries in Redis with a TTL, for deployments where
// several processes share one cache.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore connects to the given Redis address. ttl <= 0 means entries
// never expire.
func NewRedisStore(addr string, ttl time.Duration) *RedisStore {
	return &RedisStore{
		rdb: redis.NewClient(&redis.Options{Addr: addr}),
		ttl: ttl,
	}
}

// Client exposes the underlying connection for callers that share it, such
// as the cross-process survey lock.
func (s *RedisStore) Client() *redis.Client {
	return s.rdb
}

// Ping verifies the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

// Get returns the cached entry for url, or (nil, nil) if absent.
func (s *RedisStore) Get(ctx context.Context, url string) (*Entry, error) {
	data, err := s.rdb.Get(ctx, redisKeyPrefix+Key(url)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, nil
	}
	return &e, nil
}

// Put stores the entry under the URL's key.
func (s *RedisStore) Put(ctx context.Context, url string, e *Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling cache entry: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+Key(url), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
