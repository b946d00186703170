package circuitbreaker

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisWrapper routes the cache commands the gateway uses through a breaker.
// A key miss (redis.Nil) is a normal answer, not a failure.
type RedisWrapper struct {
	client  *redis.Client
	breaker *Breaker
}

func NewRedisWrapper(client *redis.Client, logger *zap.Logger) *RedisWrapper {
	return &RedisWrapper{
		client:  client,
		breaker: New("redis", "cache", redisSettings(), logger),
	}
}

func (w *RedisWrapper) Ping(ctx context.Context) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	err := w.breaker.Do(func() error {
		cmd = w.client.Ping(ctx)
		return cmd.Err()
	})
	if err != nil && cmd.Err() == nil {
		cmd.SetErr(err)
	}
	return cmd
}

func (w *RedisWrapper) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	err := w.breaker.Do(func() error {
		cmd = w.client.Get(ctx, key)
		if errors.Is(cmd.Err(), redis.Nil) {
			return nil
		}
		return cmd.Err()
	})
	if err != nil && cmd.Err() == nil {
		cmd.SetErr(err)
	}
	return cmd
}

func (w *RedisWrapper) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	err := w.breaker.Do(func() error {
		cmd = w.client.Set(ctx, key, value, ttl)
		return cmd.Err()
	})
	if err != nil && cmd.Err() == nil {
		cmd.SetErr(err)
	}
	return cmd
}

func (w *RedisWrapper) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	err := w.breaker.Do(func() error {
		cmd = w.client.Del(ctx, keys...)
		return cmd.Err()
	})
	if err != nil && cmd.Err() == nil {
		cmd.SetErr(err)
	}
	return cmd
}

func (w *RedisWrapper) Close() error {
	return w.client.Close()
}

// Open reports whether the breaker is currently rejecting commands.
func (w *RedisWrapper) Open() bool {
	return w.breaker.State() == StateOpen
}
