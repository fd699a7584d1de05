// Package ratelimit 提供按键的滑动窗口限流。
//
// 配置了 Redis 时使用共享的 sorted-set 滑动日志，多实例之间一致；
// 否则退化为进程内令牌桶。
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Backend 取值。
const (
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config 描述限流窗口与后端。
type Config struct {
	Requests  int
	Window    time.Duration
	Backend   string
	RedisURL  string
	KeyPrefix string
}

// Limiter 判断某个键是否仍有额度。
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// slidingLog 在一个原子脚本中清理过期成员、计数并写入本次请求。
var slidingLog = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
local count = redis.call('ZCARD', key)
if count >= limit then
  return 0
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return 1
`)

// RedisLimiter 基于 Redis sorted set 的滑动日志限流器。
type RedisLimiter struct {
	client   redis.UniversalClient
	requests int
	window   time.Duration
	prefix   string
	now      func() time.Time
}

// NewRedisLimiter 使用已有客户端构造 RedisLimiter。
func NewRedisLimiter(client redis.UniversalClient, cfg Config) *RedisLimiter {
	return &RedisLimiter{
		client:   client,
		requests: cfg.Requests,
		window:   cfg.Window,
		prefix:   cfg.KeyPrefix,
		now:      time.Now,
	}
}

// Allow 实现 Limiter。
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := l.now().UnixMilli()
	res, err := slidingLog.Run(ctx, l.client, []string{l.prefix + key},
		now, l.window.Milliseconds(), l.requests, fmt.Sprintf("%d-%s", now, uuid.NewString())).Int()
	if err != nil {
		return false, fmt.Errorf("ratelimit: eval sliding log: %w", err)
	}
	return res == 1, nil
}

// MemoryLimiter 为每个键维护一个令牌桶，速率等价于 requests/window。
type MemoryLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

// NewMemoryLimiter 构造进程内限流器。
func NewMemoryLimiter(cfg Config) *MemoryLimiter {
	return &MemoryLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(cfg.Window / time.Duration(cfg.Requests)),
		burst:    cfg.Requests,
	}
}

// Allow 实现 Limiter。
func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow(), nil
}

// New 按配置选择后端。返回的 cleanup 负责关闭 Redis 连接。
func New(cfg Config, logger log.Logger) (Limiter, func(), error) {
	helper := log.NewHelper(logger)
	if cfg.Requests <= 0 || cfg.Window <= 0 {
		return nil, nil, fmt.Errorf("ratelimit: invalid window %d/%s", cfg.Requests, cfg.Window)
	}
	if strings.EqualFold(cfg.Backend, BackendRedis) && cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("ratelimit: parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		helper.Infof("rate limiter using redis sliding window: %d req / %s", cfg.Requests, cfg.Window)
		cleanup := func() {
			if err := client.Close(); err != nil {
				helper.Warnf("close redis client: %v", err)
			}
		}
		return NewRedisLimiter(client, cfg), cleanup, nil
	}
	helper.Infof("rate limiter using in-memory token bucket: %d req / %s", cfg.Requests, cfg.Window)
	return NewMemoryLimiter(cfg), func() {}, nil
}
