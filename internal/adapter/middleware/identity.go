package middleware

import (
	"net/http"
	"strings"

	"checksheet-backend/internal/domain/identity"

	"github.com/labstack/echo/v4"
)

const (
	HeaderActorID   = "Ax-Actor-Id"
	HeaderActorRole = "Ax-Actor-Role"
)

// Identity resolves the acting user from request headers and stores it in the
// request context. A missing role means employee.
func Identity() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			actorID := strings.TrimSpace(req.Header.Get(HeaderActorID))
			if actorID == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing " + HeaderActorID})
			}
			if !validActorID(actorID) {
				return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid " + HeaderActorID})
			}

			role := identity.RoleEmployee
			if raw := strings.ToLower(strings.TrimSpace(req.Header.Get(HeaderActorRole))); raw != "" {
				role = identity.Role(raw)
				if !role.Valid() {
					return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid " + HeaderActorRole})
				}
			}

			actor := identity.Actor{
				ID:        actorID,
				Role:      role,
				IP:        c.RealIP(),
				UserAgent: req.UserAgent(),
			}
			c.SetRequest(req.WithContext(identity.WithActor(req.Context(), actor)))
			return next(c)
		}
	}
}
