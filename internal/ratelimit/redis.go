package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// INCR + PEXPIRE 在脚本内原子执行，保证多实例共享计数时同一 key 不会丢增量。
var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

// RedisLimiter 是跨实例共享的计数后端。远程调用带 2s 超时；
// 超时或出错一律按拒绝处理（fail-closed）：静默放行未经检查的流量会让限流形同虚设。
type RedisLimiter struct {
	Client  *redis.Client
	Window  time.Duration
	Prefix  string
	Timeout time.Duration
}

func NewRedis(client *redis.Client, window time.Duration) *RedisLimiter {
	if window <= 0 {
		window = time.Minute
	}
	return &RedisLimiter{
		Client:  client,
		Window:  window,
		Prefix:  "rl:",
		Timeout: 2 * time.Second,
	}
}

func (l *RedisLimiter) Allow(key string, limit int) Decision {
	if limit <= 0 {
		limit = 1
	}
	denied := Decision{Allowed: false, Limit: limit, ResetAt: time.Now().UTC().Add(l.Window)}
	if l.Client == nil {
		return denied
	}
	ctx, cancel := context.WithTimeout(context.Background(), l.Timeout)
	defer cancel()
	res, err := rateLimitScript.Run(ctx, l.Client, []string{l.Prefix + key}, l.Window.Milliseconds()).Result()
	if err != nil {
		slog.Warn("限流 Redis 访问失败，按拒绝处理", "key", key, "err", err)
		return denied
	}
	vals, ok := res.([]interface{})
	if !ok || len(vals) < 2 {
		slog.Warn("限流 Redis 返回结构异常，按拒绝处理", "key", key)
		return denied
	}
	count, _ := vals[0].(int64)
	ttlMs, _ := vals[1].(int64)
	if ttlMs < 0 {
		ttlMs = l.Window.Milliseconds()
	}
	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   int(count) <= limit,
		Count:     int(count),
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   time.Now().UTC().Add(time.Duration(ttlMs) * time.Millisecond),
	}
}
