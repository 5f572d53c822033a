package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"clinic-orders/internal/config"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// GenerationKey holds the catalogue generation counter. Every cached
// entry is namespaced by the generation it was written under, so bumping
// the counter orphans all earlier entries until their TTL expires.
const GenerationKey = "catalog:generation"

// Cache stores catalogue read results.
type Cache interface {
	// Get decodes the entry for key into dest. Reports false on a miss.
	Get(ctx context.Context, key string, dest any) bool

	// Set stores value under key. Failures are logged, not returned.
	Set(ctx context.Context, key string, value any)

	// Invalidate drops every entry written so far.
	Invalidate(ctx context.Context) error
}

// Locker guards a named critical section across processes.
type Locker interface {
	// Acquire takes the lock or returns ErrLocked if another holder has it.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// ErrLocked is returned by Locker.Acquire when the lock is already held.
var ErrLocked = errors.New("lock already held")

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}

	return client, nil
}

// redisCache implements Cache on top of Redis with JSON encoded values.
type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRedisCache creates a Redis-backed catalogue cache.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) Cache {
	return &redisCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "catalog-cache").Logger(),
	}
}

func (c *redisCache) generation(ctx context.Context) (int64, error) {
	val, err := c.client.Get(ctx, GenerationKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

func (c *redisCache) key(ctx context.Context, key string) (string, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("catalog:%d:%s", gen, key), nil
}

func (c *redisCache) Get(ctx context.Context, key string, dest any) bool {
	fullKey, err := c.key(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to read catalog generation")
		return false
	}

	val, err := c.client.Get(ctx, fullKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", fullKey).Msg("failed to read cache entry")
		}
		return false
	}

	if err := json.Unmarshal(val, dest); err != nil {
		c.logger.Warn().Err(err).Str("key", fullKey).Msg("failed to decode cache entry")
		return false
	}

	return true
}

func (c *redisCache) Set(ctx context.Context, key string, value any) {
	fullKey, err := c.key(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Msg("failed to read catalog generation")
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", fullKey).Msg("failed to encode cache entry")
		return
	}

	if err := c.client.Set(ctx, fullKey, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", fullKey).Msg("failed to write cache entry")
	}
}

func (c *redisCache) Invalidate(ctx context.Context) error {
	gen, err := c.client.Incr(ctx, GenerationKey).Result()
	if err != nil {
		return fmt.Errorf("failed to bump catalog generation: %w", err)
	}

	c.logger.Info().Int64("generation", gen).Msg("catalog cache invalidated")
	return nil
}

// noopCache never stores anything. Used when Redis is disabled.
type noopCache struct{}

// NewNoopCache returns a Cache that always misses.
func NewNoopCache() Cache {
	return noopCache{}
}

func (noopCache) Get(context.Context, string, any) bool { return false }

func (noopCache) Set(context.Context, string, any) {}

func (noopCache) Invalidate(context.Context) error { return nil }

// redisLocker implements Locker with bsm/redislock.
type redisLocker struct {
	client *redislock.Client
	logger zerolog.Logger
}

// NewRedisLocker creates a Locker backed by Redis.
func NewRedisLocker(client *redis.Client, logger zerolog.Logger) Locker {
	return &redisLocker{
		client: redislock.New(client),
		logger: logger.With().Str("component", "redis-locker").Logger(),
	}
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrLocked
	}
	if err != nil {
		return nil, fmt.Errorf("failed to obtain lock %s: %w", key, err)
	}

	release := func() {
		// The caller's context may already be cancelled by the time we release.
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn().Err(err).Str("key", key).Msg("failed to release lock")
		}
	}

	return release, nil
}

// localLocker is an in-process Locker for single instance deployments.
type localLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocalLocker returns a Locker that only excludes callers in this process.
func NewLocalLocker() Locker {
	return &localLocker{held: make(map[string]bool)}
}

func (l *localLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[key] {
		return nil, ErrLocked
	}
	l.held[key] = true

	return func() {
		l.mu.Lock()
		delete(l.held, key)
		l.mu.Unlock()
	}, nil
}
