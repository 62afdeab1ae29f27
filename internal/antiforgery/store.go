package antiforgery

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "antiforgery:jti:"

// RedisStore keeps consumed token ids in Redis so every replica sees them.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a replay store backed by client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Consume implements ReplayStore with SET NX.
func (s *RedisStore) Consume(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, redisKeyPrefix+id, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx token %s: %w", id, err)
	}
	return ok, nil
}

// MemoryStore keeps consumed token ids in process memory. Suitable for a
// single instance only.
type MemoryStore struct {
	cache *cache.Cache
}

// NewMemoryStore creates a replay store whose expired entries are swept
// every cleanupInterval.
func NewMemoryStore(cleanupInterval time.Duration) *MemoryStore {
	return &MemoryStore{cache: cache.New(cache.NoExpiration, cleanupInterval)}
}

// Consume implements ReplayStore. go-cache's Add is atomic, so two concurrent
// calls for the same id cannot both succeed.
func (s *MemoryStore) Consume(_ context.Context, id string, ttl time.Duration) (bool, error) {
	if err := s.cache.Add(id, struct{}{}, ttl); err != nil {
		return false, nil
	}
	return true, nil
}

// Len returns the number of tracked ids, including expired ones not yet swept.
func (s *MemoryStore) Len() int {
	return s.cache.ItemCount()
}
