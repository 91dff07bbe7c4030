package cached

import (
	"context"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-store-service/internal/adapter/cache"
	domain "user-store-service/internal/domain/user"
	"user-store-service/internal/usecase/user"
	"user-store-service/pkg/metrics"
)

// UserRepository implements user.Repository with read-through caching.
// It wraps a persistent repository (DB) and a cache implementation. Writes are
// passed through untouched; the service invalidates entries once they commit.
type UserRepository struct {
	dbRepo  user.Repository
	cache   cache.UserCache
	metrics *metrics.Metrics
	log     *zap.Logger
	group   singleflight.Group
}

var _ user.Repository = (*UserRepository)(nil)

// NewUserRepository creates a new instance of UserRepository.
// m may be nil.
func NewUserRepository(dbRepo user.Repository, c cache.UserCache, m *metrics.Metrics, log *zap.Logger) *UserRepository {
	return &UserRepository{
		dbRepo:  dbRepo,
		cache:   c,
		metrics: m,
		log:     log,
	}
}

// FindAll delegates to the DB repository.
func (r *UserRepository) FindAll(ctx context.Context) ([]domain.User, error) {
	return r.dbRepo.FindAll(ctx)
}

// FindByID retrieves a user by ID using Cache-Aside pattern.
// Absent users are not cached. The cache generation is read before the
// database, so a fill that raced an invalidation never lands.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	if cachedUser := r.lookup(ctx, id); cachedUser != nil {
		return cachedUser, nil
	}

	gen, err := r.cache.Generation(ctx, id)
	if err != nil {
		r.log.Warn("cache generation unavailable, reading through", zap.Int64("id", id), zap.Error(err))
		return r.dbRepo.FindByID(ctx, id)
	}

	// Cache miss - use single-flight to prevent stampede. Readers that arrive
	// after an invalidation see a new generation and start their own flight.
	flight := cache.Key(id) + "@" + strconv.FormatInt(gen, 10)
	result, err, _ := r.group.Do(flight, func() (any, error) {
		u, err := r.dbRepo.FindByID(ctx, id)
		if err != nil || u == nil {
			return u, err
		}

		if _, err := r.cache.Set(ctx, u, gen); err != nil {
			r.log.Warn("failed to cache user", zap.Int64("id", id), zap.Error(err))
		}
		return u, nil
	})
	if err != nil {
		return nil, err
	}

	u, _ := result.(*domain.User)
	if u == nil {
		return nil, nil
	}
	// callers sharing a flight must not share the pointer
	clone := *u
	return &clone, nil
}

// FindByEmail delegates to the DB repository.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.dbRepo.FindByEmail(ctx, email)
}

// ExistsByID delegates to the DB repository; it never answers from the cache.
func (r *UserRepository) ExistsByID(ctx context.Context, id int64) (bool, error) {
	return r.dbRepo.ExistsByID(ctx, id)
}

// Save delegates to the DB repository.
func (r *UserRepository) Save(ctx context.Context, u *domain.User) (*domain.User, error) {
	return r.dbRepo.Save(ctx, u)
}

// DeleteByID delegates to the DB repository.
func (r *UserRepository) DeleteByID(ctx context.Context, id int64) error {
	return r.dbRepo.DeleteByID(ctx, id)
}

// lookup returns the cached user or nil. Cache failures count as a miss.
func (r *UserRepository) lookup(ctx context.Context, id int64) *domain.User {
	cachedUser, err := r.cache.Get(ctx, id)
	switch {
	case err != nil:
		r.metrics.ObserveCacheLookup(metrics.CacheError)
		r.log.Warn("cache get error, falling back to database", zap.Int64("id", id), zap.Error(err))
		return nil
	case cachedUser == nil:
		r.metrics.ObserveCacheLookup(metrics.CacheMiss)
		return nil
	default:
		r.metrics.ObserveCacheLookup(metrics.CacheHit)
		r.log.Debug("user retrieved from cache", zap.Int64("id", id))
		return cachedUser
	}
}
