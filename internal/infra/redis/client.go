package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client wraps Redis operations for webhook delivery de-duplication.
// The indexing provider delivers at least once; a short-lived marker per
// signature keeps repeated deliveries from producing repeated alerts.
type Client struct {
	rdb *redis.Client
}

// Config holds Redis connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DedupTTL string `yaml:"dedup_ttl"` // e.g. "24h"
}

// DedupTTLDuration returns the parsed marker TTL, defaulting to 24h.
func (c Config) DedupTTLDuration() time.Duration {
	if c.DedupTTL == "" {
		return 24 * time.Hour
	}
	d, err := time.ParseDuration(c.DedupTTL)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// NewClient creates a new Redis client.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Health pings the server.
func (c *Client) Health(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func seenKey(signature string) string {
	return fmt.Sprintf("seen_sig:%s", signature)
}

// Seen records the signature and reports whether it was already recorded.
// The first caller for a given signature gets false; everyone after gets
// true until the marker expires.
func (c *Client) Seen(ctx context.Context, signature string, ttl time.Duration) (bool, error) {
	set, err := c.rdb.SetNX(ctx, seenKey(signature), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx failed: %w", err)
	}
	return !set, nil
}
