package middleware

import (
    "fmt"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
)

// RateLimit caps each authenticated user at limit requests per minute,
// counted in Redis so the cap holds across instances.  A nil client or
// a Redis error disables the limit; availability wins over enforcement.
func RateLimit(client *redis.Client, limit int) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if client == nil || limit <= 0 {
                return next(c)
            }
            userID, ok := c.Get(ContextUserID).(uint64)
            if !ok {
                return next(c)
            }

            ctx := c.Request().Context()
            key := fmt.Sprintf("ratelimit:%d:%s", userID, time.Now().UTC().Format("15:04"))
            n, err := client.Incr(ctx, key).Result()
            if err != nil {
                return next(c)
            }
            if n == 1 {
                client.Expire(ctx, key, time.Minute)
            }
            if n > int64(limit) {
                return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "rate limit exceeded"})
            }
            return next(c)
        }
    }
}
