// utils/redis.go
package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"pie-progression/models"

	goredis "github.com/redis/go-redis/v9"
)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// RedisPublisher fans stored notifications out over a pub/sub channel for the
// realtime delivery service.
type RedisPublisher struct {
	rdb     *goredis.Client
	channel string
}

func NewRedisPublisher(c RedisConfig) (*RedisPublisher, error) {
	if c.Addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}
	channel := c.Channel
	if channel == "" {
		channel = "pie:notifications"
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        c.Addr,
		Password:    c.Password,
		DB:          c.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisPublisher{rdb: rdb, channel: channel}, nil
}

func (p *RedisPublisher) Publish(ctx context.Context, n *models.Notification) error {
	raw, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, p.channel, raw).Err()
}

func (p *RedisPublisher) Close() error {
	return p.rdb.Close()
}
