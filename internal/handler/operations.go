package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resource-reservation/internal/engine"
	"github.com/iliyamo/resource-reservation/internal/model"
)

// Activate handles POST /v1/reservations/:id/activate.  A desk agent marks
// the start of usage, moving a confirmed reservation to ACTIVE.
func (h *ReservationHandler) Activate(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	updated, err := h.Service.Activate(c.Request().Context(), id)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reservation": updated})
}

// Complete handles POST /v1/reservations/:id/complete.  The agent records
// what actually happened during usage; the engine settles late, overage,
// condition-mismatch and extra-item fees from those figures.
func (h *ReservationHandler) Complete(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	var body struct {
		UnitsUsed     int64     `json:"units_used"`
		LevelAtPickup int       `json:"level_at_pickup"`
		LevelAtReturn int       `json:"level_at_return"`
		ExtraItems    int64     `json:"extra_items"`
		ReturnedAt    time.Time `json:"returned_at"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	attrs := model.PolicyAttributes{
		UnitsUsed:     body.UnitsUsed,
		LevelAtPickup: body.LevelAtPickup,
		LevelAtReturn: body.LevelAtReturn,
		ExtraItems:    body.ExtraItems,
		ReturnedAt:    body.ReturnedAt,
	}
	updated, err := h.Service.Complete(c.Request().Context(), id, attrs)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"reservation": updated,
		"fees":        updated.Fees,
	})
}

// SweepHandler handles POST /v1/admin/sweep, forcing one reconciliation
// pass on demand instead of waiting for the background ticker.
func SweepHandler(rec *engine.Reconciler) echo.HandlerFunc {
	return func(c echo.Context) error {
		report := rec.Sweep(c.Request().Context())
		return c.JSON(http.StatusOK, echo.Map{"report": report})
	}
}
