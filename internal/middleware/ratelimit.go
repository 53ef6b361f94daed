package middleware

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/study-room-reservation/internal/config"
)

// RateLimit applies a fixed-window limiter keyed by client IP and route.
// The counter lives in Redis so the limit holds across replicas. INCR and
// EXPIRE run in one atomic script; when the counter exceeds the limit the
// request is rejected with 429 and a Retry-After header. The middleware
// is a no-op when rdb is nil or the limiter is disabled, and fails open
// on Redis errors.
func RateLimit(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	windowScript := redis.NewScript(`
		local n = redis.call('INCR', KEYS[1])
		if n == 1 then
			redis.call('PEXPIRE', KEYS[1], ARGV[1])
		end
		local ttl = redis.call('PTTL', KEYS[1])
		return { n, ttl }
	`)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := fmt.Sprintf("%s:%s:%s", cfg.Prefix, c.RealIP(), c.Path())
			ctx := c.Request().Context()

			vals, err := windowScript.Run(ctx, rdb, []string{key}, cfg.Window.Milliseconds()).Int64Slice()
			if err != nil || len(vals) != 2 {
				return next(c)
			}
			count, ttlMs := vals[0], vals[1]
			if count > int64(cfg.Limit) {
				retry := (ttlMs + 999) / 1000
				c.Response().Header().Set("Retry-After", strconv.FormatInt(retry, 10))
				return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
			}
			return next(c)
		}
	}
}
