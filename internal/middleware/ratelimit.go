package middleware

import (
    "fmt"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/student-records/internal/config"
)

// NewTokenBucket returns a distributed token-bucket rate limiter keyed
// by caller identity (subject when authenticated, client IP otherwise)
// and route.  The bucket state lives in Redis so limits hold across
// replicas.  With rate limiting disabled or Redis unavailable the
// middleware is a no-op.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc {
            return func(c echo.Context) error { return next(c) }
        }
    }

    limiterScript := redis.NewScript(`
        local key = KEYS[1]
        local now_ms = tonumber(ARGV[1])
        local capacity = tonumber(ARGV[2])
        local refill_tokens = tonumber(ARGV[3])
        local interval_ms = tonumber(ARGV[4])
        local ttl_seconds = tonumber(ARGV[5])

        local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
        local tokens = tonumber(state[1])
        local last_refill = tonumber(state[2])

        if tokens == nil or last_refill == nil then
            tokens = capacity
            last_refill = now_ms
        end

        if interval_ms > 0 and refill_tokens > 0 then
            local elapsed = math.max(0, now_ms - last_refill)
            local intervals = math.floor(elapsed / interval_ms)
            if intervals > 0 then
                tokens = math.min(capacity, tokens + (intervals * refill_tokens))
                last_refill = last_refill + (intervals * interval_ms)
            end
        end

        local allowed = 0
        local retry_after_ms = 0
        if tokens > 0 then
            allowed = 1
            tokens = tokens - 1
        else
            local until_next = interval_ms - (now_ms - last_refill)
            if until_next < 0 then until_next = 0 end
            retry_after_ms = until_next
        end

        redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
        redis.call('EXPIRE', key, ttl_seconds)
        return {allowed, tokens, retry_after_ms}
    `)

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            caller := c.RealIP()
            if id, ok := CurrentIdentity(c); ok {
                caller = id.Sub
            }
            key := fmt.Sprintf("%s:%s:%s", cfg.Prefix, caller, c.Path())

            nowMs := time.Now().UnixMilli()
            res, err := limiterScript.Run(c.Request().Context(), rdb, []string{key},
                nowMs, cfg.Capacity, cfg.RefillTokens,
                cfg.RefillInterval.Milliseconds(), int(cfg.TTL.Seconds()),
            ).Int64Slice()
            if err != nil || len(res) != 3 {
                // Fail open: a broken limiter must not take the API down.
                return next(c)
            }

            c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res[1], 10))
            if res[0] != 1 {
                retryAfter := (time.Duration(res[2]) * time.Millisecond).Round(time.Second)
                if retryAfter < time.Second {
                    retryAfter = time.Second
                }
                c.Response().Header().Set("Retry-After", strconv.Itoa(int(retryAfter.Seconds())))
                return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
            }
            return next(c)
        }
    }
}
