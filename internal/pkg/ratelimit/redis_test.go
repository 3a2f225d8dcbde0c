package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements the INCR/EXPIRE transaction the limiter issues
type fakeRedis struct {
	redis.Cmdable

	mu      sync.Mutex
	counts  map[string]int64
	ttls    map[string]time.Duration
	execErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{counts: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) TxPipeline() redis.Pipeliner {
	return &fakePipe{f: f}
}

type fakePipe struct {
	redis.Pipeliner

	f   *fakeRedis
	ops []func()
}

func (p *fakePipe) Incr(ctx context.Context, key string) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx, "incr", key)
	p.ops = append(p.ops, func() {
		p.f.counts[key]++
		cmd.SetVal(p.f.counts[key])
	})
	return cmd
}

func (p *fakePipe) Expire(ctx context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	cmd := redis.NewBoolCmd(ctx, "expire", key, ttl)
	p.ops = append(p.ops, func() {
		p.f.ttls[key] = ttl
		cmd.SetVal(true)
	})
	return cmd
}

func (p *fakePipe) Exec(context.Context) ([]redis.Cmder, error) {
	p.f.mu.Lock()
	defer p.f.mu.Unlock()
	if p.f.execErr != nil {
		return nil, p.f.execErr
	}
	for _, op := range p.ops {
		op()
	}
	return nil, nil
}

func fixedClock(t time.Time) (func() time.Time, func(time.Duration)) {
	now := t
	return func() time.Time { return now }, func(d time.Duration) { now = now.Add(d) }
}

func TestRedisLimiter_CountsUpToLimit(t *testing.T) {
	fake := newFakeRedis()
	rl := NewRedis(fake, "lostfound:ratelimit:auth", 2, time.Minute)
	start := time.Date(2024, 3, 5, 10, 0, 10, 0, time.UTC)
	rl.now, _ = fixedClock(start)
	ctx := context.Background()

	res, err := rl.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.Equal(t, 1, res.Remaining)
	require.Equal(t, 2, res.Limit)
	require.Equal(t, start.Truncate(time.Minute).Add(time.Minute), res.ResetAt)

	res, err = rl.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.Equal(t, 0, res.Remaining)

	res, err = rl.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	require.False(t, res.Allowed)
	require.Equal(t, 0, res.Remaining)

	// other clients have their own counter
	res, err = rl.Allow(ctx, "10.0.0.2")
	require.NoError(t, err)
	require.True(t, res.Allowed)

	key := "lostfound:ratelimit:auth:10.0.0.1:" + strconv.FormatInt(start.Truncate(time.Minute).Unix(), 10)
	require.Equal(t, int64(3), fake.counts[key])
	require.Equal(t, time.Minute, fake.ttls[key])
}

func TestRedisLimiter_TrailingColonInPrefix(t *testing.T) {
	fake := newFakeRedis()
	rl := NewRedis(fake, "lostfound:ratelimit:auth:", 5, time.Minute)

	_, err := rl.Allow(context.Background(), "ip")
	require.NoError(t, err)
	for key := range fake.counts {
		require.NotContains(t, key, "::")
	}
}

func TestRedisLimiter_WindowReset(t *testing.T) {
	rl := NewRedis(newFakeRedis(), "rl", 1, time.Minute)
	var advance func(time.Duration)
	rl.now, advance = fixedClock(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC))
	ctx := context.Background()

	res, _ := rl.Allow(ctx, "ip")
	require.True(t, res.Allowed)
	res, _ = rl.Allow(ctx, "ip")
	require.False(t, res.Allowed)

	advance(time.Minute)
	res, err := rl.Allow(ctx, "ip")
	require.NoError(t, err)
	require.True(t, res.Allowed)
}

func TestRedisLimiter_MiddlewareResponds429(t *testing.T) {
	r := newRouter(NewRedis(newFakeRedis(), "rl", 1, time.Minute))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	require.Equal(t, 200, w.Code)
	require.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	require.Equal(t, 429, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "RATE_LIMITED", body["code"])
}

func TestRedisLimiter_ExecErrorFailsOpen(t *testing.T) {
	fake := newFakeRedis()
	fake.execErr = errors.New("READONLY You can't write against a read only replica")
	rl := NewRedis(fake, "rl", 1, time.Minute)

	_, err := rl.Allow(context.Background(), "ip")
	require.ErrorContains(t, err, "rate limit counter")

	r := newRouter(rl)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
		require.Equal(t, 200, w.Code)
		require.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	}
}

func TestRedisLimiter_UnreachableServerFailsOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	r := newRouter(NewRedis(client, "rl", 1, time.Minute))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	require.Equal(t, 200, w.Code)
}
