package infrastructure

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"user-store-service/internal/config"
	redisclient "user-store-service/pkg/redis"
)

const redisConnectTimeout = 5 * time.Second

// NewRedisClient connects to Redis when it is enabled.
// It returns nil without an error when Redis is disabled.
func NewRedisClient(cfg *config.Config, l *zap.Logger) (goredis.UniversalClient, error) {
	if !cfg.Redis.Enabled {
		l.Info("Redis disabled; user cache and rate limiting are off")
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
	defer cancel()

	rdb, err := redisclient.Connect(ctx, cfg.Redis, l)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return rdb, nil
}
