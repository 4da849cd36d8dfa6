package redis

import (
	"github.com/redis/go-redis/v9"

	"relaydesk/internal/config"
)

// NewClient creates a Redis client from app config.
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
