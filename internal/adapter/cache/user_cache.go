package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	domain "user-store-service/internal/domain/user"
)

// keyPrefix namespaces cached users; bump the version when the payload shape changes.
const keyPrefix = "users:v1:"

// generationTTL keeps a user's invalidation counter alive well past any in-flight fill.
const generationTTL = 24 * time.Hour

// fillScript stores the payload only while the generation still matches the one
// the reader saw before it went to the database.
// KEYS[1] entry, KEYS[2] generation; ARGV[1] expected generation, ARGV[2] payload, ARGV[3] ttl ms.
var fillScript = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
return 1
`)

// invalidateScript drops the entry and bumps the generation in one step.
// KEYS[1] entry, KEYS[2] generation; ARGV[1] generation ttl ms.
var invalidateScript = redis.NewScript(`
redis.call('DEL', KEYS[1])
redis.call('INCR', KEYS[2])
redis.call('PEXPIRE', KEYS[2], ARGV[1])
return 1
`)

// UserCache defines the interface for user caching operations.
//
// Fills are guarded by a per-user generation: read it with Generation before
// loading the user from the store and hand it to Set. Delete bumps the
// generation, so a fill that raced an invalidation is discarded.
type UserCache interface {
	// Get retrieves a user from cache by ID.
	// Returns nil if user is not found in cache.
	Get(ctx context.Context, id int64) (*domain.User, error)

	// Generation returns the invalidation counter of the user with the given ID.
	Generation(ctx context.Context, id int64) (int64, error)

	// Set stores a user with the configured TTL unless the user was invalidated
	// after gen was read. It reports whether the entry was written.
	Set(ctx context.Context, user *domain.User, gen int64) (bool, error)

	// Delete removes a user from cache by ID.
	Delete(ctx context.Context, id int64) error

	// DeleteMultiple removes multiple users from cache by IDs.
	DeleteMultiple(ctx context.Context, ids ...int64) error
}

// RedisUserCache implements UserCache using Redis as the backing store.
type RedisUserCache struct {
	client redis.Cmdable
	ttl    time.Duration
	log    *zap.Logger
}

var _ UserCache = (*RedisUserCache)(nil)

// NewRedisUserCache creates a new Redis-backed user cache.
func NewRedisUserCache(client redis.Cmdable, ttl time.Duration, log *zap.Logger) *RedisUserCache {
	return &RedisUserCache{
		client: client,
		ttl:    ttl,
		log:    log,
	}
}

// Key returns the Redis key holding the user with the given ID.
// The hash tag keeps an entry and its generation in the same cluster slot.
func Key(id int64) string {
	return keyPrefix + "{" + strconv.FormatInt(id, 10) + "}"
}

// GenerationKey returns the Redis key holding the invalidation counter of a user.
func GenerationKey(id int64) string {
	return Key(id) + ":gen"
}

// Get retrieves a user from Redis cache.
func (c *RedisUserCache) Get(ctx context.Context, id int64) (*domain.User, error) {
	data, err := c.client.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		c.log.Debug("cache miss", zap.Int64("user_id", id))
		return nil, nil
	}
	if err != nil {
		c.log.Error("failed to get from cache", zap.Int64("user_id", id), zap.Error(err))
		return nil, err
	}

	var user domain.User
	if err := json.Unmarshal(data, &user); err != nil {
		// drop the unreadable entry so the next read repopulates it
		c.log.Warn("evicting unreadable cache entry", zap.Int64("user_id", id), zap.Error(err))
		_ = c.client.Del(ctx, Key(id)).Err()
		return nil, nil
	}

	c.log.Debug("cache hit", zap.Int64("user_id", id))
	return &user, nil
}

// Generation reads the invalidation counter; a user never invalidated is at 0.
func (c *RedisUserCache) Generation(ctx context.Context, id int64) (int64, error) {
	gen, err := c.client.Get(ctx, GenerationKey(id)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

// Set stores a user in Redis cache with TTL when gen is still current.
func (c *RedisUserCache) Set(ctx context.Context, user *domain.User, gen int64) (bool, error) {
	if user == nil {
		return false, fmt.Errorf("cannot cache nil user")
	}

	data, err := json.Marshal(user)
	if err != nil {
		c.log.Error("failed to marshal user for cache", zap.Int64("user_id", user.ID), zap.Error(err))
		return false, err
	}

	stored, err := fillScript.Run(ctx, c.client,
		[]string{Key(user.ID), GenerationKey(user.ID)},
		strconv.FormatInt(gen, 10), data, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		c.log.Error("failed to set cache", zap.Int64("user_id", user.ID), zap.Error(err))
		return false, err
	}

	if stored == 0 {
		c.log.Debug("discarded stale cache fill", zap.Int64("user_id", user.ID), zap.Int64("generation", gen))
		return false, nil
	}

	c.log.Debug("cached user", zap.Int64("user_id", user.ID), zap.Duration("ttl", c.ttl))
	return true, nil
}

// Delete removes a user from Redis cache and invalidates in-flight fills.
func (c *RedisUserCache) Delete(ctx context.Context, id int64) error {
	err := invalidateScript.Run(ctx, c.client,
		[]string{Key(id), GenerationKey(id)},
		generationTTL.Milliseconds(),
	).Err()
	if err != nil {
		c.log.Error("failed to invalidate cache", zap.Int64("user_id", id), zap.Error(err))
		return err
	}

	c.log.Debug("invalidated cache", zap.Int64("user_id", id))
	return nil
}

// DeleteMultiple removes multiple users from Redis cache.
// Every id is attempted; the failures are joined.
func (c *RedisUserCache) DeleteMultiple(ctx context.Context, ids ...int64) error {
	var errs []error
	for _, id := range ids {
		if err := c.Delete(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
