package di

import (
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"user-store-service/cmd/api/infrastructure"
	"user-store-service/internal/adapter/cache"
	"user-store-service/internal/adapter/db/postgres"
	"user-store-service/internal/adapter/gin/handler"
	"user-store-service/internal/adapter/grpc/middleware"
	"user-store-service/internal/adapter/repository/cached"
	"user-store-service/internal/config"
	"user-store-service/internal/usecase/user"
	"user-store-service/pkg/metrics"
	redisclient "user-store-service/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	Logger        *zap.Logger
	DB            *gorm.DB
	RedisClient   goredis.UniversalClient // nil when Redis is disabled
	Metrics       *metrics.Metrics
	UserService   user.Service
	RateLimiter   *middleware.RateLimiter // nil when rate limiting is disabled
	HealthHandler *handler.HealthHandler
}

// NewContainer creates and initializes all application dependencies
func NewContainer(cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Initialize database
	db, err := infrastructure.NewDatabase(cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize Redis client
	rdb, err := infrastructure.NewRedisClient(cfg, l)
	if err != nil {
		_ = infrastructure.CloseDatabase(db)
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}

	m := metrics.New(cfg.Logger.ServiceName)

	// Initialize repository, with the read-through cache when enabled
	var repo user.Repository = postgres.NewUserRepoPG(db, l)
	var userCache cache.UserCache
	if cfg.Cache.Enabled && rdb != nil {
		redisCache := cache.NewRedisUserCache(rdb, cfg.Cache.TTL(), l)
		repo = cached.NewUserRepository(repo, redisCache, m, l)
		userCache = redisCache
		l.Info("user cache enabled", zap.Duration("ttl", cfg.Cache.TTL()))
	}

	// Initialize use case
	userService := user.New(repo, postgres.NewTxManager(db, l), userCache, l)

	// Initialize rate limiter
	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimit.Enabled && rdb != nil {
		rateLimiter = middleware.NewRateLimiter(
			rdb,
			middleware.RateLimiterConfig{
				RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
				BurstCapacity:     cfg.RateLimit.BurstCapacity,
				Enabled:           cfg.RateLimit.Enabled,
			},
			l,
		)
	}

	checkers := map[string]handler.HealthChecker{
		"database": handler.HealthCheckerFunc(infrastructure.PingDatabase(db)),
	}
	if rdb != nil {
		checkers["redis"] = handler.HealthCheckerFunc(redisclient.Checker(rdb))
	}

	return &Container{
		Config:        cfg,
		Logger:        l,
		DB:            db,
		RedisClient:   rdb,
		Metrics:       m,
		UserService:   userService,
		RateLimiter:   rateLimiter,
		HealthHandler: handler.NewHealthHandler(cfg.Logger.ServiceName, checkers, l),
	}, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	// Close Redis connection
	if c.RedisClient != nil {
		c.Logger.Info("closing Redis connection")
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Close database connection
	if c.DB != nil {
		if err := infrastructure.CloseDatabase(c.DB); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("container close errors: %v", errs)
	}

	return nil
}
