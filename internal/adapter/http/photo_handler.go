package http

import (
	"net/http"
	"strings"

	"checksheet-backend/internal/domain/blob"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// PhotoHandler serves uploaded photos. Stored references are prefix + path,
// so the route wildcard maps straight back to a reference.
type PhotoHandler struct {
	blobs  blob.Store
	prefix string
	log    zerolog.Logger
}

func NewPhotoHandler(blobs blob.Store, prefix string, log zerolog.Logger) *PhotoHandler {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &PhotoHandler{blobs: blobs, prefix: prefix, log: log}
}

func (h *PhotoHandler) Get(c echo.Context) error {
	path := c.Param("*")
	if path == "" || strings.Contains(path, "..") {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: blob.ErrNotFound.Error()})
	}
	data, contentType, err := h.blobs.Open(c.Request().Context(), h.prefix+path)
	if err != nil {
		return writeError(c, h.log, err)
	}
	// paths embed the upload time, so content never changes under a reference
	c.Response().Header().Set("Cache-Control", "private, max-age=31536000, immutable")
	return c.Blob(http.StatusOK, contentType, data)
}
