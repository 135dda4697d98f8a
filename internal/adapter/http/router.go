package http

import (
	stdhttp "net/http"
	"time"

	"checksheet-backend/internal/adapter/middleware"
	"checksheet-backend/internal/domain/blob"
	"checksheet-backend/internal/usecase/approval"
	"checksheet-backend/internal/usecase/checksheet"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type RouterDeps struct {
	Checksheet  *checksheet.Usecase
	Approval    *approval.Usecase
	Blobs       blob.Store
	PhotoPrefix string
	// Redis backs the idempotency guard; nil disables it.
	Redis    *redis.Client
	IdempTTL time.Duration
	// Metrics is served on /metrics when set.
	Metrics stdhttp.Handler
	// HealthChecks are run by /health, keyed by dependency name.
	HealthChecks map[string]HealthCheck
	Log          zerolog.Logger
}

// Register mounts every route on e.
func Register(e *echo.Echo, d RouterDeps) {
	e.Validator = NewValidator()

	h := NewHandler(d.HealthChecks)
	e.GET("/health", h.Health)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics))
	}

	ph := NewPhotoHandler(d.Blobs, d.PhotoPrefix, d.Log)
	e.GET(ph.prefix+"*", ph.Get)

	guard := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	if d.Redis != nil {
		guard = middleware.Idempotency(d.Redis, d.IdempTTL, d.Log)
	}

	sh := NewSessionHandler(d.Checksheet, d.Log)
	s := e.Group("/sessions", middleware.Identity())
	s.POST("", sh.Open)
	s.GET("/:id", sh.View)
	s.DELETE("/:id", sh.Close)
	s.PUT("/:id/values/:form_key", sh.SetValue)
	s.POST("/:id/acknowledge/:form_key", sh.Acknowledge)
	s.POST("/:id/sections/:section_id/rows", sh.AddRow)
	s.DELETE("/:id/sections/:section_id/rows", sh.RemoveRow)
	s.POST("/:id/photos/:form_key", sh.AttachPhoto)
	s.POST("/:id/save", sh.Save, guard)
	s.POST("/:id/submit", sh.Submit, guard)

	rh := NewRecordHandler(d.Approval, d.Log)
	r := e.Group("/records", middleware.Identity())
	r.GET("", rh.List)
	r.GET("/:id", rh.Detail)
	r.POST("/:id/approve", rh.Approve, guard)
	r.POST("/:id/reject", rh.Reject, guard)
}
