package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisWindow shares one fixed window across server instances.
type RedisWindow struct {
	rdb    redis.UniversalClient
	prefix string
	limit  int
	period time.Duration
}

func NewRedisWindow(rdb redis.UniversalClient, prefix string, limit int, period time.Duration) *RedisWindow {
	return &RedisWindow{rdb: rdb, prefix: prefix, limit: limit, period: period}
}

func (l *RedisWindow) Allow(ctx context.Context, key string) (Decision, error) {
	k := fmt.Sprintf("%s:%s", l.prefix, key)

	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit incr: %w", err)
	}
	if n == 1 {
		if err := l.rdb.PExpire(ctx, k, l.period).Err(); err != nil {
			return Decision{}, fmt.Errorf("ratelimit expire: %w", err)
		}
	}
	if n <= int64(l.limit) {
		return Decision{Allowed: true}, nil
	}

	ttl, err := l.rdb.PTTL(ctx, k).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit ttl: %w", err)
	}
	if ttl < 0 {
		// key lost its expiry (crash between INCR and PEXPIRE); start over
		if err := l.rdb.PExpire(ctx, k, l.period).Err(); err != nil {
			return Decision{}, fmt.Errorf("ratelimit expire: %w", err)
		}
		ttl = l.period
	}
	return Decision{RetryAfter: ttl}, nil
}
