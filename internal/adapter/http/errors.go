package http

import (
	"errors"
	"net/http"

	"checksheet-backend/internal/domain/blob"
	"checksheet-backend/internal/domain/form"
	"checksheet-backend/internal/domain/identity"
	"checksheet-backend/internal/domain/record"
	"checksheet-backend/internal/domain/session"
	"checksheet-backend/internal/domain/template"
	"checksheet-backend/internal/usecase/approval"
	"checksheet-backend/internal/usecase/checksheet"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

var errorStatus = []struct {
	err  error
	code int
}{
	{record.ErrNotFound, http.StatusNotFound},
	{template.ErrNotFound, http.StatusNotFound},
	{session.ErrNotFound, http.StatusNotFound},
	{blob.ErrNotFound, http.StatusNotFound},
	{form.ErrUnknownFormKey, http.StatusNotFound},
	{checksheet.ErrUnknownSection, http.StatusNotFound},

	{identity.ErrNoActor, http.StatusUnauthorized},
	{approval.ErrForbidden, http.StatusForbidden},
	{checksheet.ErrNotOwner, http.StatusForbidden},

	{record.ErrInvalidTransition, http.StatusConflict},
	{record.ErrNotEditable, http.StatusConflict},

	{record.ErrIncomplete, http.StatusUnprocessableEntity},
	{record.ErrValidationFailed, http.StatusUnprocessableEntity},
	{record.ErrRejectReasonRequired, http.StatusUnprocessableEntity},
	{record.ErrMissingLinkage, http.StatusUnprocessableEntity},
	{form.ErrFutureProductionDate, http.StatusUnprocessableEntity},
	{form.ErrNotPhotoField, http.StatusUnprocessableEntity},
	{form.ErrLocalPhotoRef, http.StatusUnprocessableEntity},
	{checksheet.ErrEmptyPhoto, http.StatusUnprocessableEntity},

	{approval.ErrInvalidStatus, http.StatusBadRequest},
}

// statusFor maps a use case error to its HTTP status. Unknown errors are 500.
func statusFor(err error) int {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return http.StatusInternalServerError
}

// writeError maps domain errors → HTTP codes. Internal errors are logged and
// not echoed to the client.
func writeError(c echo.Context, log zerolog.Logger, err error) error {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		log.Error().Err(err).
			Str("method", c.Request().Method).
			Str("route", c.Path()).
			Msg("request failed")
		return c.JSON(code, ErrorResponse{Error: "internal error"})
	}
	return c.JSON(code, ErrorResponse{Error: err.Error()})
}

func actorOf(c echo.Context) (identity.Actor, error) {
	return identity.FromContext(c.Request().Context())
}
