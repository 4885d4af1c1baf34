// Package redis opens the Redis connection used by the session backend.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/newshub/apiserver/config"
	goredis "github.com/redis/go-redis/v9"
)

const pingTimeout = 2 * time.Second

type Client struct {
	*goredis.Client
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}
	return &Client{Client: client}, nil
}
