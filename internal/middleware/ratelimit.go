package middleware

import (
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/meeting-reservation/internal/config"
)

// takeToken refills the bucket at KEYS[1] by whole intervals, then takes one
// token.  ARGV: now_ms, burst, every_ms, ttl_ms.
// Returns {allowed, remaining, retry_ms}.
var takeToken = redis.NewScript(`
local now = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local every = tonumber(ARGV[3])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'at')
local tokens = tonumber(state[1]) or burst
local at = tonumber(state[2]) or now

local gained = math.floor((now - at) / every)
if gained > 0 then
  tokens = math.min(burst, tokens + gained)
  at = at + gained * every
end
if tokens >= burst then
  at = now
end

local allowed, wait = 0, 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  wait = every - (now - at)
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'at', at)
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return {allowed, tokens, wait}
`)

// bucketFor picks the bucket a write request drains.  Bookings share one
// bucket per client; updates and cancellations get a bucket per client and
// reservation id, so the admin alias and the public route count together.
func bucketFor(cfg config.RateLimitConfig, c echo.Context) (string, config.Bucket) {
    ip := c.RealIP()
    if ip == "" {
        ip = "unknown"
    }
    if id := c.Param("id"); id != "" && c.Request().Method != http.MethodPost {
        return cfg.Prefix + ":" + ip + ":change:" + id, cfg.Change
    }
    return cfg.Prefix + ":" + ip + ":book", cfg.Book
}

// NewTokenBucket limits write requests with token buckets kept in Redis so
// every API instance shares them.  A blocked request gets 429 with
// Retry-After; Redis errors let the request through.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return passThrough
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key, b := bucketFor(cfg, c)
            ttl := time.Duration(b.Burst) * b.Every
            res, err := takeToken.Run(c.Request().Context(), rdb, []string{key},
                time.Now().UnixMilli(), b.Burst, b.Every.Milliseconds(), ttl.Milliseconds()).Int64Slice()
            if err != nil || len(res) != 3 {
                log.Warn("rate limit skipped", zap.String("key", key), zap.Error(err))
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(b.Burst))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
            if res[0] == 1 {
                return next(c)
            }

            retry := int((time.Duration(res[2])*time.Millisecond + time.Second - 1) / time.Second)
            if retry < 1 {
                retry = 1
            }
            h.Set("Retry-After", strconv.Itoa(retry))
            log.Info("rate limited", zap.String("key", key), zap.Int("retry_after", retry))
            return c.JSON(http.StatusTooManyRequests, echo.Map{
                "error":       "too_many_requests",
                "message":     "Too many requests. Please wait before trying again.",
                "retry_after": retry,
            })
        }
    }
}
