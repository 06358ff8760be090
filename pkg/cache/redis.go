// Package cache wraps the redis client used for the mission catalog's
// short-TTL read cache. Definitions change rarely, so a small staleness
// window is acceptable; correctness never depends on the cache.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds redis connection settings
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Client is a thin JSON cache over redis
type Client struct {
	rdb *redis.Client
	ttl time.Duration
}

// New connects to redis and verifies the connection
func New(cfg Config) (*Client, error) {
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	return &Client{rdb: rdb, ttl: cfg.TTL}, nil
}

// GetJSON reads key into dest. Returns false on a miss; cache read errors
// are reported as misses so callers always fall through to the store.
func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) bool {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false
	}
	return true
}

// SetJSON stores value under key with the configured TTL
func (c *Client) SetJSON(ctx context.Context, key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}
	return c.rdb.Set(ctx, key, data, c.ttl).Err()
}

// Delete removes keys, used to invalidate after catalog mutations
func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Close closes the underlying connection pool
func (c *Client) Close() error {
	return c.rdb.Close()
}
