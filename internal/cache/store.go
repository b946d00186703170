// Package cache provides the shared key-value store the gateway keeps
// short-lived state in (document catalog snapshots, rate-limit windows).
// The interface is explicit rather than ambient so tests can inject a
// miniredis-backed store.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vantri-labs/ragchat/internal/circuitbreaker"
)

// Store is a minimal byte-oriented key-value facade with explicit TTLs.
type Store interface {
	// Get returns the value and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Clear(ctx context.Context, key string) error
}

// RedisStore implements Store on the shared Redis instance, with the circuit
// breaker wrapper so a dead Redis degrades to cache misses instead of
// blocking requests.
type RedisStore struct {
	client *circuitbreaker.RedisWrapper
	logger *zap.Logger
}

func NewRedisStore(client *redis.Client, logger *zap.Logger) *RedisStore {
	return &RedisStore{
		client: circuitbreaker.NewRedisWrapper(client, logger),
		logger: logger,
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// Close releases the underlying Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
