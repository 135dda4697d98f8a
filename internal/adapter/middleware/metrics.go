package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
)

type HTTPObserver interface {
	ObserveHTTP(method, route string, code int, elapsed time.Duration)
}

// Metrics reports every request under its route pattern, not the raw path.
func Metrics(obs HTTPObserver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			obs.ObserveHTTP(c.Request().Method, route, c.Response().Status, time.Since(start))
			return nil
		}
	}
}
