package middleware

import (
    "fmt"
    "log/slog"
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/contacts-api/internal/config"
    "github.com/iliyamo/contacts-api/internal/metrics"
)

// limiterScript refills the bucket by whole intervals, takes one token if
// available and returns {allowed, remaining, retry_after_ms}.
//
// KEYS[1] bucket key
// ARGV    now_ms, capacity, refill_tokens, interval_ms, ttl_seconds
var limiterScript = redis.NewScript(`
    local now, cap, step, every, ttl =
        tonumber(ARGV[1]), tonumber(ARGV[2]), tonumber(ARGV[3]), tonumber(ARGV[4]), tonumber(ARGV[5])

    local b = redis.call('HMGET', KEYS[1], 'tokens', 'ts')
    local tokens, ts = tonumber(b[1]), tonumber(b[2])
    if not tokens or not ts then
        tokens, ts = cap, now
    end

    if every > 0 and step > 0 and now > ts then
        local n = math.floor((now - ts) / every)
        if n > 0 then
            tokens = math.min(cap, tokens + n * step)
            ts = ts + n * every
        end
    end

    local ok, wait = 0, 0
    if tokens >= 1 then
        ok, tokens = 1, tokens - 1
    else
        wait = math.max(0, every - (now - ts))
    end

    redis.call('HSET', KEYS[1], 'tokens', tokens, 'ts', ts)
    redis.call('EXPIRE', KEYS[1], ttl)
    return { ok, tokens, wait }
`)

// NewTokenBucket limits one route to policy per client IP and user. name
// identifies the route in keys and metrics. The limiter fails open: when
// disabled, without a Redis client or on a Redis error requests pass.
func NewTokenBucket(cfg config.RateLimitConfig, policy config.Policy, rdb *redis.Client, name string, log *slog.Logger) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := strings.Join([]string{cfg.Prefix, name, subject(c)}, ":")
            args := []interface{}{
                time.Now().UnixMilli(),
                policy.Capacity,
                policy.RefillTokens,
                policy.RefillInterval.Milliseconds(),
                int64(math.Ceil(policy.TTL.Seconds())),
            }

            vals, err := limiterScript.Run(c.Request().Context(), rdb, []string{key}, args...).Result()
            if err != nil {
                if cfg.Debug {
                    log.Warn("rate limit redis error", slog.String("key", key), slog.Any("error", err))
                }
                return next(c)
            }
            arr, ok := vals.([]interface{})
            if !ok || len(arr) != 3 {
                if cfg.Debug {
                    log.Warn("rate limit unexpected script result", slog.String("key", key), slog.String("result", fmt.Sprintf("%#v", vals)))
                }
                return next(c)
            }
            allowed := asInt64(arr[0]) == 1
            remaining := asInt64(arr[1])
            retryMs := asInt64(arr[2])

            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(policy.Capacity))
            c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

            if !allowed {
                secs := int(math.Ceil(float64(retryMs) / 1000.0))
                if secs < 1 {
                    secs = 1
                }
                c.Response().Header().Set("Retry-After", strconv.Itoa(secs))
                metrics.RateLimitRejections.WithLabelValues(name).Inc()
                if cfg.Debug {
                    log.Info("rate limit block", slog.String("key", key), slog.Int64("retry_ms", retryMs))
                }
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "error":       "rate limit exceeded",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}

func asInt64(v interface{}) int64 {
    switch t := v.(type) {
    case int64:
        return t
    case int:
        return int64(t)
    case float64:
        return int64(t)
    case string:
        if n, err := strconv.ParseInt(t, 10, 64); err == nil {
            return n
        }
    }
    return 0
}
