package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mad23dog/nomad-detroit-coffee/config"
)

// RedisStore backs the cache with a Redis server.
type RedisStore struct {
	rdb *redis.Client
	ctx context.Context
}

// Connect initialises a Redis client, verifies it with a ping, and installs
// it as the active store. On failure the memory store stays active and the
// error is returned so the caller can log a warning.
func Connect() error {
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr(),
		Password: config.RedisPassword(),
		DB:       0,
	})

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("cache: redis ping: %w", err)
	}

	SetStore(&RedisStore{rdb: rdb, ctx: ctx})
	return nil
}

func (s *RedisStore) Get(key string) ([]byte, bool) {
	val, err := s.rdb.Get(s.ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return val, true
}

func (s *RedisStore) Set(key string, value []byte, ttl time.Duration) error {
	return s.rdb.Set(s.ctx, key, value, ttl).Err()
}

func (s *RedisStore) Del(keys ...string) error {
	return s.rdb.Del(s.ctx, keys...).Err()
}
