package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/i474232898/park-factors/internal/factors"
)

// DefaultRedisKey holds the current document when no key is configured.
const DefaultRedisKey = "park-factors:current"

// RedisStore keeps the result under a single key. SET replaces the value
// atomically so readers never observe a partial document.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore connects to redisURL and verifies the connection.
func NewRedisStore(ctx context.Context, redisURL, key string) (*RedisStore, error) {
	if redisURL == "" {
		return nil, errors.New("redis store requires REDIS_URL")
	}
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewRedisStoreWithClient(client, key), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Load(ctx context.Context) (factors.Result, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return factors.Result{}, ErrNotFound
	}
	if err != nil {
		return factors.Result{}, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	return factors.Unmarshal(data)
}

func (s *RedisStore) Save(ctx context.Context, r factors.Result) error {
	data, err := factors.Marshal(r)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}
