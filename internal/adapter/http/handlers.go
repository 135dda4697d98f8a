package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthCheck pings one dependency; a nil error means it is reachable.
type HealthCheck func(ctx context.Context) error

const healthTimeout = 2 * time.Second

type Handler struct {
	checks map[string]HealthCheck
}

func NewHandler(checks map[string]HealthCheck) *Handler { return &Handler{checks: checks} }

type healthResp struct {
	Status string            `json:"status"`
	Time   string            `json:"time"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Health reports "ok" when every dependency answers, otherwise "degraded"
// with a 503 so load balancers stop routing check-sheet traffic here.
func (h *Handler) Health(c echo.Context) error {
	resp := healthResp{Status: "ok"}
	code := http.StatusOK

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) > 0 {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
		defer cancel()
		resp.Checks = make(map[string]string, len(names))
		for _, name := range names {
			if err := h.checks[name](ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[name] = "ok"
		}
	}
	resp.Time = time.Now().UTC().Format(time.RFC3339Nano)
	return c.JSON(code, resp)
}
