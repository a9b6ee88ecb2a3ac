package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/johnquangdev/meeting-functions/pkg/config"
)

// NewRedisClient creates a Redis client and checks the connection
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// RedisGuard implements claim semantics with SETNX so the guard holds across instances
type RedisGuard struct {
	client redis.Cmdable
	prefix string
}

// NewRedisGuard creates a guard storing keys under prefix
func NewRedisGuard(client redis.Cmdable, prefix string) *RedisGuard {
	return &RedisGuard{client: client, prefix: prefix}
}

// Acquire claims key for ttl. It returns false when the key is already held.
func (g *RedisGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.prefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", key, err)
	}
	return ok, nil
}

// Release drops a claim
func (g *RedisGuard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, g.prefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release %s: %w", key, err)
	}
	return nil
}
