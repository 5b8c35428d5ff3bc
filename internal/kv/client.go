// Package kv - Redis: очередь повторов объявлений, аренда планировщика и лимит ставок.
package kv

import (
	"context"
	"fmt"
	"numbers_backend/internal/config"

	"github.com/redis/go-redis/v9"
)

func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password(),
		DB:       cfg.DB(),
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}
