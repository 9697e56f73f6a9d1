// Package redis wraps the shared Redis client used for SIEM response
// caching and the background job queue.
package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type Client struct {
	*redis.Client
}

func NewClient(addr, password string, db int) *Client {
	opt, err := redis.ParseURL(addr)
	if err != nil {
		opt = &redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}
	}
	return &Client{redis.NewClient(opt)}
}

func (c *Client) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, expiration).Err()
}

func (c *Client) GetJSON(ctx context.Context, key string, dest interface{}) error {
	data, err := c.Get(ctx, key).Result()
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(data), dest)
}

// GetRaw returns the cached bytes for key. A miss surfaces as an error
// and the caller falls through to the origin.
func (c *Client) GetRaw(ctx context.Context, key string) ([]byte, error) {
	return c.Get(ctx, key).Bytes()
}

func (c *Client) SetRaw(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return c.Set(ctx, key, data, ttl).Err()
}
