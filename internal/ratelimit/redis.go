package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// incrWindow increments the counter and starts its window on first hit, in
// one round trip so a crash cannot leave a counter without an expiry.
var incrWindow = redis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {count, redis.call('PTTL', KEYS[1])}
`)

type RedisLimiter struct {
	client redis.Scripter
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(client redis.Scripter, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, prefix: prefix, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	vals, err := incrWindow.Run(ctx, l.client, []string{l.prefix + ":" + key}, l.window.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("Allow: %w", err)
	}
	if len(vals) != 2 {
		return Result{}, fmt.Errorf("Allow: unexpected script reply %v", vals)
	}

	ttl := time.Duration(vals[1]) * time.Millisecond
	if ttl < 0 {
		ttl = l.window
	}
	return newResult(l.limit, vals[0], ttl), nil
}

// NewRedisClient parses a redis:// URL and verifies the server answers.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("NewRedisClient: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("NewRedisClient: ping: %w", err)
	}
	return client, nil
}
