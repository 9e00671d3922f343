package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient returns a client even when redis is unreachable; callers that need
// redis (the sweep lock) degrade to a local-only lock on errors.
func NewRedisClient(env Env) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     env.RedisAddr,
		Password: env.RedisPassword,
		DB:       env.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		zap.L().Warn("redis ping failed", zap.String("addr", env.RedisAddr), zap.Error(err))
	}
	return rdb
}
