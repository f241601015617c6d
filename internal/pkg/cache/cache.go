package cache

import (
	"context"
	"fmt"

	"github.com/a47williams/back-in-stock-app-sub000/internal/pkg/env"
	"github.com/redis/go-redis/v9"
)

// NewClient builds the Redis client used for webhook receipt deduplication
// and shared rate-limiter storage. The handle is owned by the caller.
func NewClient() *redis.Client {
	host := env.GetEnv("CACHE_HOST", "localhost")
	port := env.GetEnv("CACHE_PORT", "6379")

	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", host, port),
		Password: env.GetEnv("CACHE_PASSWORD", ""),
		DB:       0,
	})
}

// Ping is the readiness probe for the Redis handle.
func Ping(ctx context.Context, client *redis.Client) error {
	return client.Ping(ctx).Err()
}
