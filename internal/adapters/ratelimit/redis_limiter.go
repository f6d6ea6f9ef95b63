package ratelimit

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/AchilleasB/blood-quest/donation-service/internal/config"
	"github.com/AchilleasB/blood-quest/donation-service/internal/core/ports"
)

const keyPrefix = "bq:ratelimit:"

// Counter is the subset of the Redis client the limiter needs.
type Counter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisLimiter is a fixed window counter. Each key gets its own counter per
// window; the counter key expires shortly after its window closes.
type RedisLimiter struct {
	client Counter
	limit  int64
	window time.Duration
	cb     *gobreaker.CircuitBreaker
	now    func() time.Time
}

var _ ports.RateLimiter = (*RedisLimiter)(nil)

func NewRedisLimiter(client Counter, limit int, window time.Duration, logger *slog.Logger) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
		cb:     config.NewCircuitBreaker(config.BreakerRedis, logger, nil),
		now:    time.Now,
	}
}

// Allow counts one hit for key and reports whether it is within the limit.
// A limit of zero disables limiting.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}

	bucket := l.now().UnixNano() / int64(l.window)
	k := keyPrefix + key + ":" + strconv.FormatInt(bucket, 10)

	res, err := l.cb.Execute(func() (interface{}, error) {
		n, err := l.client.Incr(ctx, k).Result()
		if err != nil {
			return int64(0), err
		}
		if n == 1 {
			if err := l.client.Expire(ctx, k, 2*l.window).Err(); err != nil {
				return int64(0), err
			}
		}
		return n, nil
	})
	if err != nil {
		return false, err
	}
	return res.(int64) <= l.limit, nil
}
