package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/citadelbuy/returns/internal/domain/shared"
	"github.com/citadelbuy/returns/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewRedisClient connects to Redis and verifies the connection with a PING
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// NewIdempotencyStore returns a Redis store when Redis is configured and
// reachable, and an in-memory store otherwise.
func NewIdempotencyStore(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) shared.IdempotencyStore {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Host == "" {
		log.Info("redis not configured, using in-memory idempotency store")
		return NewInMemoryIdempotencyStore()
	}

	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		log.Warn("redis unavailable, falling back to in-memory idempotency store; "+
			"duplicate notifications are possible across instances",
			zap.Error(err),
		)
		return NewInMemoryIdempotencyStore()
	}

	log.Info("using redis idempotency store", zap.String("addr", cfg.Addr()))
	return NewRedisIdempotencyStore(client, "")
}
