package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// The first hit in a window sets its expiry, so the window is fixed rather
// than sliding.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {count, redis.call("PTTL", KEYS[1])}
`)

// RedisLimiter shares fixed windows between every API instance.
type RedisLimiter struct {
	rdb    *redis.Client
	limit  int
	period time.Duration
	prefix string
}

// NewRedisClient connects and checks the connection with a ping.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

func NewRedisLimiter(rdb *redis.Client, limit int, period time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, limit: limit, period: period, prefix: "ratelimit:"}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := fixedWindowScript.Run(ctx, l.rdb, []string{l.prefix + key}, l.period.Milliseconds()).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit script failed: %w", err)
	}
	values, ok := res.([]interface{})
	if !ok || len(values) != 2 {
		return Decision{}, fmt.Errorf("unexpected rate limit reply %v", res)
	}
	count, _ := values[0].(int64)
	ttl, _ := values[1].(int64)
	return decide(int(count), l.limit, time.Duration(ttl)*time.Millisecond), nil
}

func decide(count, limit int, ttl time.Duration) Decision {
	if count > limit {
		return Decision{RetryAfter: ttl}
	}
	return Decision{Allowed: true, Remaining: limit - count}
}
