package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates and pings a Redis client
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

// RedisLimiter is a fixed window limiter shared by every instance using the same Redis
type RedisLimiter struct {
	client redis.Cmdable
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedis creates a Redis backed limiter. Keys are stored as prefix:key:windowStart.
func NewRedis(client redis.Cmdable, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: strings.TrimRight(prefix, ":"),
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Allow increments the counter of the current window for key
func (rl *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	now := rl.now()
	windowStart := now.Truncate(rl.window)
	redisKey := fmt.Sprintf("%s:%s:%d", rl.prefix, key, windowStart.Unix())

	pipe := rl.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("rate limit counter: %w", err)
	}

	count := int(incr.Val())
	res := Result{
		Allowed: count <= rl.limit,
		Limit:   rl.limit,
		ResetAt: windowStart.Add(rl.window),
	}
	if res.Allowed {
		res.Remaining = rl.limit - count
	}
	return res, nil
}
