package http

import (
	"io"
	"net/http"
	"strings"

	"checksheet-backend/internal/domain/form"
	"checksheet-backend/internal/usecase/checksheet"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// MaxPhotoBytes bounds one photo upload.
const MaxPhotoBytes = 10 << 20

type SessionHandler struct {
	uc  *checksheet.Usecase
	log zerolog.Logger
}

func NewSessionHandler(uc *checksheet.Usecase, log zerolog.Logger) *SessionHandler {
	return &SessionHandler{uc: uc, log: log}
}

type openSessionReq struct {
	ProductID string `json:"product_id" validate:"required_without=RecordID,excluded_with=RecordID,omitempty,ident"`
	RecordID  string `json:"record_id"  validate:"omitempty,ident"`
}

type setValueReq struct {
	Value   form.Value `json:"value"`
	Confirm bool       `json:"confirm"`
}

func (h *SessionHandler) Open(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req openSessionReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	v, err := h.uc.Open(c.Request().Context(), actor, checksheet.OpenInput(req))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, v)
}

func (h *SessionHandler) View(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	v, err := h.uc.View(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *SessionHandler) Close(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	if err := h.uc.Close(c.Request().Context(), actor, c.Param("id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SessionHandler) SetValue(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req setValueReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	// explicit null clears the field; a missing value is a client bug
	if !req.Value.IsSet() {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: []FieldError{{Field: "Value", Message: "is required"}},
		})
	}
	res, err := h.uc.SetValue(c.Request().Context(), actor, c.Param("id"), checksheet.SetValueInput{
		FormKey: c.Param("form_key"),
		Value:   req.Value,
		Confirm: req.Confirm,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *SessionHandler) Acknowledge(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	v, err := h.uc.Acknowledge(c.Request().Context(), actor, c.Param("id"), c.Param("form_key"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *SessionHandler) AddRow(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	v, err := h.uc.AddRow(c.Request().Context(), actor, c.Param("id"), c.Param("section_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *SessionHandler) RemoveRow(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	v, err := h.uc.RemoveRow(c.Request().Context(), actor, c.Param("id"), c.Param("section_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, v)
}

// AttachPhoto accepts either a multipart form with a "photo" file or the raw
// image as the request body.
func (h *SessionHandler) AttachPhoto(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	data, contentType, err := readPhoto(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	if !strings.HasPrefix(contentType, "image/") {
		return c.JSON(http.StatusUnsupportedMediaType, ErrorResponse{Error: "photo must be an image"})
	}
	v, err := h.uc.AttachPhoto(c.Request().Context(), actor, c.Param("id"), c.Param("form_key"), data, contentType)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, v)
}

func readPhoto(c echo.Context) ([]byte, string, error) {
	req := c.Request()
	req.Body = http.MaxBytesReader(c.Response(), req.Body, MaxPhotoBytes)

	var (
		data        []byte
		contentType string
	)
	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		fh, err := c.FormFile("photo")
		if err != nil {
			return nil, "", errPhotoField
		}
		f, err := fh.Open()
		if err != nil {
			return nil, "", err
		}
		defer f.Close()
		if data, err = io.ReadAll(f); err != nil {
			return nil, "", errPhotoTooLarge
		}
		contentType = fh.Header.Get(echo.HeaderContentType)
	} else {
		var err error
		if data, err = io.ReadAll(req.Body); err != nil {
			return nil, "", errPhotoTooLarge
		}
		contentType = req.Header.Get(echo.HeaderContentType)
	}
	if contentType == "" || contentType == echo.MIMEOctetStream {
		contentType = http.DetectContentType(data)
	}
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	return data, strings.TrimSpace(strings.ToLower(contentType)), nil
}

func (h *SessionHandler) Save(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	res, err := h.uc.Save(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *SessionHandler) Submit(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	res, err := h.uc.Submit(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}
