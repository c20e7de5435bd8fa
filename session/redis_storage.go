package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage persists the token in Redis so that several processes
// (workers, sidecars) can share one authenticated session. The entry
// lives under prefix:StorageKey with an optional TTL.
type RedisStorage struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStorage creates a Redis-backed token store. prefix namespaces
// the key; ttl of zero stores the token without expiry.
func NewRedisStorage(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStorage {
	if prefix == "" {
		prefix = "wfa"
	}
	return &RedisStorage{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (r *RedisStorage) key() string {
	return r.prefix + ":" + StorageKey
}

// Load fetches the stored token.
//
//	Performance: 1 Redis GET.
func (r *RedisStorage) Load(ctx context.Context) (string, error) {
	token, err := r.redis.Get(ctx, r.key()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return token, nil
}

// Save stores the token, refreshing the TTL when one is configured.
//
//	Performance: 1 Redis SET.
func (r *RedisStorage) Save(ctx context.Context, token string) error {
	if err := r.redis.Set(ctx, r.key(), token, r.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// Clear deletes the stored token. Deleting an absent key is a no-op.
//
//	Performance: 1 Redis DEL.
func (r *RedisStorage) Clear(ctx context.Context) error {
	if err := r.redis.Del(ctx, r.key()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}
	return nil
}
