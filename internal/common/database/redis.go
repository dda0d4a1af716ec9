// internal/common/database/redis.go
package database

import (
	"context"
	"fmt"
	"time"

	"care-chatbot/internal/common/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient owns the connection backing the answer cache. Redis is
// optional; when it is down the service runs without caching.
type RedisClient struct {
	Client *redis.Client
}

// NewRedis connects with timeouts short enough that a dead Redis cannot
// stall a conversation turn.
func NewRedis(cfg config.RedisConfig) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	return &RedisClient{Client: rdb}, nil
}

// Ping verifies Redis is reachable.
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// GetClient exposes the raw client to the answer cache.
func (c *RedisClient) GetClient() *redis.Client {
	return c.Client
}
