package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newRouter(l Limiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(l))
	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true})
	})
	return r
}

func TestMiddleware_RateLimitExceeded(t *testing.T) {
	r := newRouter(New(0, time.Minute)) // limit 0 -> always deny

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, 429, w.Code)
	var body map[string]any
	err := json.Unmarshal(w.Body.Bytes(), &body)
	require.NoError(t, err)
	require.Equal(t, false, body["success"])
	require.Equal(t, float64(429), body["statusCode"])
	require.Equal(t, "Rate limit exceeded. Try again later.", body["message"])
	data := body["data"].(map[string]any)
	require.Contains(t, data, "retry_after")
	require.Contains(t, data, "reset_time")
	require.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestMiddleware_AllowsUpToLimit(t *testing.T) {
	r := newRouter(New(2, time.Minute))

	for i, want := range []int{200, 200, 429} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
		require.Equal(t, want, w.Code, "request %d", i)
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (Result, error) {
	return Result{}, errors.New("connection refused")
}

func TestMiddleware_FailsOpen(t *testing.T) {
	r := newRouter(failingLimiter{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	require.Equal(t, 200, w.Code)
}

func TestRateLimiter_ResetAndCleanup(t *testing.T) {
	rl := New(1, time.Minute)
	ctx := context.Background()

	res, err := rl.Allow(ctx, "k")
	require.NoError(t, err)
	require.True(t, res.Allowed)
	require.Equal(t, 0, res.Remaining)

	res, _ = rl.Allow(ctx, "k")
	require.False(t, res.Allowed)

	rl.Reset("k")
	res, _ = rl.Allow(ctx, "k")
	require.True(t, res.Allowed)

	short := New(1, time.Millisecond)
	_, _ = short.Allow(ctx, "k")
	time.Sleep(5 * time.Millisecond)
	short.Cleanup()
	require.Empty(t, short.requests)
}
