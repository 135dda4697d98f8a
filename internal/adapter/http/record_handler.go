package http

import (
	"net/http"
	"strconv"

	"checksheet-backend/internal/domain/record"
	"checksheet-backend/internal/usecase/approval"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type RecordHandler struct {
	uc  *approval.Usecase
	log zerolog.Logger
}

func NewRecordHandler(uc *approval.Usecase, log zerolog.Logger) *RecordHandler {
	return &RecordHandler{uc: uc, log: log}
}

type listRecordsReq struct {
	Status    string `query:"status"     validate:"omitempty,oneof=draft submitted approved rejected"`
	ProductID string `query:"product_id" validate:"omitempty,ident"`
	Limit     int    `query:"limit"      validate:"gte=0,lte=100"`
}

type rejectReq struct {
	Reason string `json:"reason" validate:"notblank,max=1000"`
}

// List serves the approval queue; without a status filter it lists
// submitted records.
func (h *RecordHandler) List(c echo.Context) error {
	var req listRecordsReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid query"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	recs, err := h.uc.List(c.Request().Context(), approval.ListInput{
		Status:    record.Status(req.Status),
		ProductID: req.ProductID,
		Limit:     req.Limit,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Response().Header().Set("X-Total-Count", strconv.Itoa(len(recs)))
	return c.JSON(http.StatusOK, recs)
}

func (h *RecordHandler) Detail(c echo.Context) error {
	d, err := h.uc.Detail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *RecordHandler) Approve(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	dto, err := h.uc.Approve(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *RecordHandler) Reject(c echo.Context) error {
	actor, err := actorOf(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	var req rejectReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	dto, err := h.uc.Reject(c.Request().Context(), actor, approval.RejectInput{
		RecordID: c.Param("id"),
		Reason:   req.Reason,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}
