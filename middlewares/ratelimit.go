package middlewares

import (
	"context"
	"fmt"
	"sync"
	"time"

	"smartorder/pkg/resp"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Limiter decides whether key may make another request.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// tokenBucketScript refills and consumes one token atomically.
// KEYS[1] bucket key; ARGV rate/s, capacity, now (unix seconds, fractional).
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local state = redis.call("HMGET", key, "tokens", "last_refill")
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if not tokens or not last_refill then
    tokens = capacity
    last_refill = now
end

local elapsed = now - last_refill
if elapsed > 0 then
    tokens = math.min(capacity, tokens + elapsed * rate)
    last_refill = now
end

local allowed = 0
if tokens >= 1 then
    tokens = tokens - 1
    allowed = 1
end

redis.call("HSET", key, "tokens", tokens, "last_refill", last_refill)
redis.call("EXPIRE", key, 60)
return allowed
`)

// RedisLimiter shares buckets across server instances.
type RedisLimiter struct {
	client redis.Scripter
	rps    float64
	burst  int
}

func NewRedisLimiter(client redis.Scripter, rps float64, burst int) *RedisLimiter {
	if rps <= 0 {
		rps = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &RedisLimiter{client: client, rps: rps, burst: burst}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	now := float64(time.Now().UnixMicro()) / 1e6
	n, err := tokenBucketScript.Run(ctx, l.client, []string{"ratelimit:" + key}, l.rps, l.burst, now).Int64()
	if err != nil {
		return false, fmt.Errorf("redis limiter: %w", err)
	}
	return n == 1, nil
}

// MemoryLimiter keeps one x/time/rate limiter per key in process.
type MemoryLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rps      rate.Limit
	burst    int
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewMemoryLimiter starts a sweeper that drops idle keys until ctx is done.
func NewMemoryLimiter(ctx context.Context, rps float64, burst int) *MemoryLimiter {
	if burst <= 0 {
		burst = 1
	}
	l := &MemoryLimiter{
		visitors: make(map[string]*visitor),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
	go l.sweep(ctx, time.Minute, 3*time.Minute)
	return l
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	v, ok := l.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[key] = v
	}
	v.lastSeen = time.Now()
	l.mu.Unlock()
	return v.limiter.Allow(), nil
}

func (l *MemoryLimiter) sweep(ctx context.Context, every, idle time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.mu.Lock()
			for k, v := range l.visitors {
				if time.Since(v.lastSeen) > idle {
					delete(l.visitors, k)
				}
			}
			l.mu.Unlock()
		}
	}
}

// RateLimit rejects with 429 once the client's bucket is empty. Limiter
// errors fail open so a Redis outage does not take the API down.
func RateLimit(limiter Limiter, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if limiter == nil {
			c.Next()
			return
		}
		key := "ip:" + c.ClientIP()
		ok, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.WithError(err).WithField("key", key).Warn("rate limiter unavailable")
			c.Next()
			return
		}
		if !ok {
			c.Header("Retry-After", "1")
			resp.TooManyRequests(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
