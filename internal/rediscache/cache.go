// Package rediscache shares remote lyrics lookups between players through
// Redis.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/llehouerou/singalong/internal/lyrics"
)

const (
	// DefaultTTL is how long a cached lyrics payload lives.
	DefaultTTL = 7 * 24 * time.Hour

	keyPrefix   = "singalong:lyrics:"
	pingTimeout = 5 * time.Second
)

// Config describes the Redis server.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Cache is a lyrics.Cache stored in Redis.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ lyrics.Cache = (*Cache)(nil)

// Connect opens a client and checks the server answers.
func Connect(ctx context.Context, cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis %s: %w", cfg.Addr, err)
	}
	return New(client, cfg.TTL), nil
}

// New wraps an existing client. A non-positive ttl uses DefaultTTL.
func New(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached synced lyrics for key.
func (c *Cache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores synced lyrics under key for the cache's TTL.
func (c *Cache) Set(ctx context.Context, key, synced string) error {
	return c.client.Set(ctx, keyPrefix+key, synced, c.ttl).Err()
}

// Close closes the client.
func (c *Cache) Close() error {
	return c.client.Close()
}
