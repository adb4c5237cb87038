package redis

import (
	"context"
	"errors"
	"time"

	"docshelf/internal/config"

	redis "github.com/redis/go-redis/v9"
)

// Client wraps go-redis to cache signed download URLs.
type Client struct {
	inner *redis.Client
}

// ErrCacheMiss mirrors redis.Nil for callers.
var ErrCacheMiss = redis.Nil

const urlKeyPrefix = "docshelf:url:"

// NewClient connects and verifies the server is reachable.
func NewClient(cfg config.RedisConfig) (*Client, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &Client{inner: client}, nil
}

// SetURL caches a signed URL for the given storage path.
func (c *Client) SetURL(ctx context.Context, path, url string, ttl time.Duration) error {
	if c == nil || c.inner == nil {
		return errors.New("redis client not initialized")
	}
	return c.inner.Set(ctx, urlKeyPrefix+path, url, ttl).Err()
}

// GetURL fetches a cached signed URL. Absent keys yield ErrCacheMiss.
func (c *Client) GetURL(ctx context.Context, path string) (string, error) {
	if c == nil || c.inner == nil {
		return "", errors.New("redis client not initialized")
	}
	return c.inner.Get(ctx, urlKeyPrefix+path).Result()
}

// InvalidateURL drops the cached URL for a path, if any.
func (c *Client) InvalidateURL(ctx context.Context, path string) error {
	if c == nil || c.inner == nil {
		return errors.New("redis client not initialized")
	}
	return c.inner.Del(ctx, urlKeyPrefix+path).Err()
}

// Close closes the connection.
func (c *Client) Close() error {
	if c == nil || c.inner == nil {
		return nil
	}
	return c.inner.Close()
}
