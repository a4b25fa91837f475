package rate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds rate limiter tuning parameters.
type Config struct {
	MaxAttempts int
	Window      time.Duration
}

// Enabled reports whether c describes an active limit.
func (c Config) Enabled() bool {
	return c.MaxAttempts > 0 && c.Window > 0
}

// Limiter counts attempts per scope and subject in Redis.
type Limiter struct {
	redis  redis.UniversalClient
	prefix string
	config Config
}

// New creates a [Limiter] backed by the given Redis client.
func New(redisClient redis.UniversalClient, prefix string, cfg Config) *Limiter {
	if prefix == "" {
		prefix = "portal"
	}
	return &Limiter{
		redis:  redisClient,
		prefix: prefix,
		config: cfg,
	}
}

// Allow records an attempt and reports whether it is within budget.
func (l *Limiter) Allow(ctx context.Context, scope, subject string) error {
	if l == nil || !l.config.Enabled() {
		return nil
	}

	count, err := l.incrementWithTTL(ctx, l.key(scope, subject), l.config.Window)
	if err != nil {
		return err
	}
	if count > int64(l.config.MaxAttempts) {
		return ErrRateLimited
	}
	return nil
}

// Attempts returns the attempts recorded in the current window. Missing keys
// return zero.
func (l *Limiter) Attempts(ctx context.Context, scope, subject string) (int, error) {
	count, err := l.redis.Get(ctx, l.key(scope, subject)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if count < 0 {
		return 0, nil
	}
	return int(count), nil
}

// Reset clears the counter for subject.
func (l *Limiter) Reset(ctx context.Context, scope, subject string) error {
	if err := l.redis.Del(ctx, l.key(scope, subject)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// RetryAfter returns how long until the current window for subject closes.
func (l *Limiter) RetryAfter(ctx context.Context, scope, subject string) time.Duration {
	ttl, err := l.redis.TTL(ctx, l.key(scope, subject)).Result()
	if err != nil || ttl < 0 {
		return l.config.Window
	}
	return ttl
}

func (l *Limiter) key(scope, subject string) string {
	return l.prefix + ":rl:" + scope + ":" + subject
}

func (l *Limiter) incrementWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	// Fixed-window semantics: set TTL only for the first hit in the window.
	if count == 1 {
		if err := l.redis.Expire(ctx, key, ttl).Err(); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
	}

	return count, nil
}
