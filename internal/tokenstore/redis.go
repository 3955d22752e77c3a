package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "gwsess:"

// RedisStore persists session namespaces as Redis hashes with a rolling TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
	}
}

func redisKey(sid string) string {
	return redisKeyPrefix + sid
}

func (r *RedisStore) Get(ctx context.Context, sid string, key string) (string, error) {
	value, err := r.client.HGet(ctx, redisKey(sid), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("hget %s: %w", key, err)
	}
	return value, nil
}

func (r *RedisStore) Set(ctx context.Context, sid string, key string, value string) error {
	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, redisKey(sid), key, value)
	if r.ttl > 0 {
		pipe.Expire(ctx, redisKey(sid), r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Remove(ctx context.Context, sid string, key string) error {
	if err := r.client.HDel(ctx, redisKey(sid), key).Err(); err != nil {
		return fmt.Errorf("hdel %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Clear(ctx context.Context, sid string) error {
	if err := r.client.Del(ctx, redisKey(sid)).Err(); err != nil {
		return fmt.Errorf("del session: %w", err)
	}
	return nil
}
