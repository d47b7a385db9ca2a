package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter gates repeated requests for the same key. Allow reports whether the
// caller may proceed; when it returns false the caller is inside the cooldown
// window started by the previous allowed call.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter implements a fixed cooldown on top of Redis using SET NX with
// a TTL. The first caller for a key wins and starts the window; everyone else
// is refused until the key expires.
type RedisLimiter struct {
	client   *redis.Client
	prefix   string
	cooldown time.Duration
}

// NewRedisLimiter creates a cooldown limiter. The prefix namespaces keys so
// independent limiters can share one Redis instance.
func NewRedisLimiter(client *redis.Client, prefix string, cooldown time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:   client,
		prefix:   prefix,
		cooldown: cooldown,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := l.client.SetNX(ctx, fmt.Sprintf("%s:%s", l.prefix, key), 1, l.cooldown).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit: %w", err)
	}
	return ok, nil
}
