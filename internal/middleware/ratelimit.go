package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/iliyamo/elternsprechtag/internal/config"
)

// bucketScript refills the bucket stored under KEYS[1] by whole intervals,
// takes one token if available and returns {allowed, remaining, retry_ms}.
var bucketScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(state[1]) or capacity
local ts = tonumber(state[2]) or now

local steps = math.floor(math.max(0, now - ts) / interval)
if steps > 0 then
  tokens = math.min(capacity, tokens + steps * refill)
  ts = ts + steps * interval
end

local allowed, retry = 0, 0
if tokens >= 1 then
  allowed = 1
  tokens = tokens - 1
else
  retry = math.max(0, interval - (now - ts))
end

redis.call('HSET', key, 'tokens', tokens, 'ts', ts)
redis.call('EXPIRE', key, tonumber(ARGV[5]))
return {allowed, tokens, retry}
`)

type decision struct {
	allowed   bool
	remaining int64
	retry     time.Duration
}

type bucketStore interface {
	take(ctx context.Context, key string, now time.Time) (decision, error)
}

type redisBuckets struct {
	rdb *redis.Client
	cfg config.RateLimitConfig
}

func (b *redisBuckets) take(ctx context.Context, key string, now time.Time) (decision, error) {
	res, err := bucketScript.Run(ctx, b.rdb, []string{key},
		now.UnixMilli(),
		b.cfg.Capacity,
		b.cfg.RefillTokens,
		b.cfg.RefillInterval.Milliseconds(),
		int64(b.cfg.TTL/time.Second),
	).Int64Slice()
	if err != nil {
		return decision{}, err
	}
	if len(res) != 3 {
		return decision{}, fmt.Errorf("unexpected script result %v", res)
	}
	return decision{
		allowed:   res[0] == 1,
		remaining: res[1],
		retry:     time.Duration(res[2]) * time.Millisecond,
	}, nil
}

// memoryBuckets keeps one x/time/rate limiter per key. It is used when no
// Redis is configured, so a single instance is still protected.
type memoryBuckets struct {
	cfg       config.RateLimitConfig
	mu        sync.Mutex
	limiters  map[string]*memoryEntry
	lastSweep time.Time
}

type memoryEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

func newMemoryBuckets(cfg config.RateLimitConfig) *memoryBuckets {
	return &memoryBuckets{cfg: cfg, limiters: map[string]*memoryEntry{}, lastSweep: time.Now()}
}

func (b *memoryBuckets) limiter(key string, now time.Time) *rate.Limiter {
	b.mu.Lock()
	defer b.mu.Unlock()
	if now.Sub(b.lastSweep) > b.cfg.TTL {
		for k, e := range b.limiters {
			if now.Sub(e.seen) > b.cfg.TTL {
				delete(b.limiters, k)
			}
		}
		b.lastSweep = now
	}
	e, ok := b.limiters[key]
	if !ok {
		every := b.cfg.RefillInterval / time.Duration(b.cfg.RefillTokens)
		e = &memoryEntry{lim: rate.NewLimiter(rate.Every(every), b.cfg.Capacity)}
		b.limiters[key] = e
	}
	e.seen = now
	return e.lim
}

func (b *memoryBuckets) take(_ context.Context, key string, now time.Time) (decision, error) {
	lim := b.limiter(key, now)
	r := lim.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return decision{retry: delay}, nil
	}
	return decision{allowed: true, remaining: int64(lim.TokensAt(now))}, nil
}

// NewTokenBucket limits requests per key (see config.RateLimitConfig) with a
// token bucket kept in Redis, or in process memory when rdb is nil. Redis
// errors let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, logger *zap.Logger) echo.MiddlewareFunc {
	if !cfg.Enabled {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	var store bucketStore = newMemoryBuckets(cfg)
	if rdb != nil {
		store = &redisBuckets{rdb: rdb, cfg: cfg}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := rateKey(cfg, c)
			d, err := store.take(c.Request().Context(), key, time.Now())
			if err != nil {
				logger.Warn("rate limit check failed", zap.String("key", key), zap.Error(err))
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.remaining, 10))
			if cfg.Debug {
				h.Set("X-RateLimit-Key", key)
			}
			if d.allowed {
				return next(c)
			}

			secs := int(math.Ceil(d.retry.Seconds()))
			h.Set("Retry-After", strconv.Itoa(secs))
			if cfg.Debug {
				logger.Debug("rate limited", zap.String("key", key), zap.Duration("retry", d.retry))
			}
			return c.JSON(http.StatusTooManyRequests, echo.Map{
				"error":       "Zu viele Anfragen, bitte später erneut versuchen",
				"retry_after": secs,
			})
		}
	}
}

func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	user := subject(c)
	route := c.Request().Method + " " + c.Path()

	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "user":
		parts = append(parts, "user", user)
	case "route":
		parts = append(parts, "route", route)
	case "ip_user":
		parts = append(parts, "ip", ip, "user", user)
	case "ip_route":
		parts = append(parts, "ip", ip, "route", route)
	case "user_route":
		parts = append(parts, "user", user, "route", route)
	default:
		parts = append(parts, "ip", ip, "user", user, "route", route)
	}
	return strings.Join(parts, ":")
}
