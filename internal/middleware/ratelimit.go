package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Omakidx/link6ync/internal/cache"
)

// RateLimit is a fixed-window per-IP limiter backed by Redis. It fails open
// when Redis is unavailable.
func RateLimit(cacheClient *cache.Client, name string, limit int64, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := fmt.Sprintf("ratelimit:%s:%s", name, c.RealIP())

			count, err := cacheClient.Incr(c.Request().Context(), key, window)
			if err == nil && count > limit {
				return echo.NewHTTPError(http.StatusTooManyRequests,
					"Too many requests from this IP, please try again later")
			}
			return next(c)
		}
	}
}
