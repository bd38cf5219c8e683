// Package redis forwards committed events and outgoing mail to Redis for
// consumers outside this process.
package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// Default keys
const (
	DefaultEventChannelPrefix = "ats:events:"
	DefaultMailQueue          = "ats:mail:outbox"
)

// Client is the subset of *goredis.Client used here
type Client interface {
	Publish(ctx context.Context, channel string, message interface{}) *goredis.IntCmd
	LPush(ctx context.Context, key string, values ...interface{}) *goredis.IntCmd
}

// NewClient creates and verifies a Redis client connection.
func NewClient(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	rdb := goredis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}
