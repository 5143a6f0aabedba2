package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mercapi/mercapi-backend/pkg/config"
)

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	LPush(context.Context, string, ...any) *redis.IntCmd
	BRPop(context.Context, time.Duration, ...string) *redis.StringSliceCmd
	LLen(context.Context, string) *redis.IntCmd
}

// Client wraps the redis connection used for the async report queue.
type Client struct {
	store cmdable
	raw   *redis.Client
}

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(context.Context) error
}

// Queue exposes the list operations the report pipeline relies on.
type Queue interface {
	Enqueue(ctx context.Context, key string, payload any) error
	Dequeue(ctx context.Context, key string, timeout time.Duration) (string, error)
}

// New bootstraps a redis client with pooling/timeouts and verifies
// connectivity.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Client{store: raw, raw: raw}, nil
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if opts.PoolSize == 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if opts.MinIdleConns == 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

// Ping verifies the connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.Ping(ctx).Err()
}

// Enqueue pushes payload onto the head of the list at key.
func (c *Client) Enqueue(ctx context.Context, key string, payload any) error {
	if c == nil || c.store == nil {
		return errors.New("redis client not initialized")
	}
	return c.store.LPush(ctx, key, payload).Err()
}

// Dequeue blocks up to timeout for an element from the tail of the list
// at key. It returns redis.Nil when the wait times out.
func (c *Client) Dequeue(ctx context.Context, key string, timeout time.Duration) (string, error) {
	if c == nil || c.store == nil {
		return "", errors.New("redis client not initialized")
	}
	vals, err := c.store.BRPop(ctx, timeout, key).Result()
	if err != nil {
		return "", err
	}
	// BRPOP returns [key, value].
	if len(vals) != 2 {
		return "", fmt.Errorf("unexpected BRPOP reply of length %d", len(vals))
	}
	return vals[1], nil
}

// QueueLen returns the number of pending elements at key.
func (c *Client) QueueLen(ctx context.Context, key string) (int64, error) {
	if c == nil || c.store == nil {
		return 0, errors.New("redis client not initialized")
	}
	return c.store.LLen(ctx, key).Result()
}

// IsEmpty reports whether err is the redis nil-reply sentinel.
func IsEmpty(err error) bool {
	return errors.Is(err, redis.Nil)
}

// Close shuts down the underlying connection pool.
func (c *Client) Close() error {
	if c == nil || c.raw == nil {
		return nil
	}
	return c.raw.Close()
}
