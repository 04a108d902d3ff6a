// Package ratelimit bounds how often a caller may use the enrichment endpoints.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// callTimeout bounds one limiter round trip
const callTimeout = 250 * time.Millisecond

const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// RedisLimiter is a fixed-window counter kept in redis. It fails open:
// when redis is unreachable every call is allowed.
type RedisLimiter struct {
	client redis.Scripter
	limit  int
	window time.Duration
	prefix string
	script *redis.Script
	logger *zap.Logger
}

// NewRedisLimiter creates a limiter allowing limit calls per window and key.
// A nil client returns nil, which allows everything.
func NewRedisLimiter(client redis.Scripter, limit int, window time.Duration, prefix string, logger *zap.Logger) *RedisLimiter {
	if client == nil {
		return nil
	}
	return &RedisLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: prefix,
		script: redis.NewScript(rateLimitScript),
		logger: logger,
	}
}

// Allow reports whether key may make another call in the current window
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}
	if l.limit <= 0 || l.window <= 0 || key == "" {
		return true, nil
	}

	redisKey := key
	if l.prefix != "" {
		redisKey = l.prefix + ":" + key
	}
	ttl := l.window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}

	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	allowed, err := l.script.Run(ctx, l.client, []string{redisKey}, ttl, l.limit).Int64()
	if err != nil {
		l.logger.Warn("Rate limiter unavailable, allowing request", zap.String("key", redisKey), zap.Error(err))
		return true, nil
	}
	return allowed == 1, nil
}

// NewClient connects to redis and verifies the connection with a ping
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
