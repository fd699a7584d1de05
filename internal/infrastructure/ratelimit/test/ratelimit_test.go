package ratelimit_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/sanidhyy/yt-clone/internal/infrastructure/ratelimit"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestRedisLimiter_SlidingWindow(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	limiter := ratelimit.NewRedisLimiter(client, ratelimit.Config{Requests: 3, Window: 10 * time.Second, KeyPrefix: "rl:"})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "user:a")
		require.NoError(t, err)
		require.True(t, ok, "request %d should pass", i)
	}
	ok, err := limiter.Allow(ctx, "user:a")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = limiter.Allow(ctx, "user:b")
	require.NoError(t, err)
	require.True(t, ok, "keys are independent")

	require.True(t, srv.Exists("rl:user:a"))
	ttl := srv.TTL("rl:user:a")
	require.Positive(t, ttl)
	require.LessOrEqual(t, ttl, 10*time.Second)
}

func TestRedisLimiter_ErrorWhenUnavailable(t *testing.T) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	srv.Close()

	limiter := ratelimit.NewRedisLimiter(client, ratelimit.Config{Requests: 1, Window: time.Second})
	_, err := limiter.Allow(context.Background(), "k")
	require.Error(t, err)
}

func TestMemoryLimiter(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(ratelimit.Config{Requests: 10, Window: 10 * time.Second})
	ctx := context.Background()
	for i := 0; i < 10; i++ {
		ok, err := limiter.Allow(ctx, "user:a")
		require.NoError(t, err)
		require.True(t, ok)
	}
	ok, _ := limiter.Allow(ctx, "user:a")
	require.False(t, ok)
	ok, _ = limiter.Allow(ctx, "user:b")
	require.True(t, ok)
}

func TestNew_SelectsBackend(t *testing.T) {
	logger := log.NewStdLogger(io.Discard)

	limiter, cleanup, err := ratelimit.New(ratelimit.Config{Requests: 1, Window: time.Second, Backend: ratelimit.BackendMemory}, logger)
	require.NoError(t, err)
	defer cleanup()
	require.IsType(t, &ratelimit.MemoryLimiter{}, limiter)

	srv := miniredis.RunT(t)
	limiter, cleanup2, err := ratelimit.New(ratelimit.Config{
		Requests: 1, Window: time.Second, Backend: ratelimit.BackendRedis, RedisURL: "redis://" + srv.Addr(),
	}, logger)
	require.NoError(t, err)
	defer cleanup2()
	require.IsType(t, &ratelimit.RedisLimiter{}, limiter)

	_, _, err = ratelimit.New(ratelimit.Config{Requests: 0, Window: time.Second}, logger)
	require.Error(t, err)
}
