package handler

import (
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/resource-reservation/internal/engine"
    "github.com/iliyamo/resource-reservation/internal/middleware"
    "github.com/iliyamo/resource-reservation/internal/model"
)

// ReservationHandler is the thin HTTP wrapper around the engine's service
// façade.  It binds requests, resolves the authenticated customer and maps
// the engine's typed errors to HTTP status codes; all reservation logic
// lives in the engine.
type ReservationHandler struct {
    Service *engine.Service
}

// NewReservationHandler constructs a handler over the given service.
func NewReservationHandler(svc *engine.Service) *ReservationHandler {
    if svc == nil {
        panic("nil service passed to NewReservationHandler")
    }
    return &ReservationHandler{Service: svc}
}

// intervalRequest is the JSON shape of a requested window.
type intervalRequest struct {
    Start time.Time `json:"start"`
    End   time.Time `json:"end"`
}

func (r intervalRequest) toModel() model.Interval {
    return model.NewInterval(r.Start, r.End)
}

// writeEngineError translates the engine's error taxonomy into HTTP
// responses.  Unknown errors become a 500 without leaking internals.
func writeEngineError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, engine.ErrValidation):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, engine.ErrNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
    case errors.Is(err, engine.ErrConflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, engine.ErrInvalidTransition):
        return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
    case errors.Is(err, engine.ErrPolicyViolation):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": err.Error()})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
    }
}

// Quote handles POST /v1/quotes.  It prices a resource and interval
// without reserving anything.
func (h *ReservationHandler) Quote(c echo.Context) error {
    var body struct {
        ResourceID string          `json:"resource_id"`
        Interval   intervalRequest `json:"interval"`
        ExtraItems int64           `json:"extra_items"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.ResourceID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "resource_id is required"})
    }
    quote, err := h.Service.Quote(c.Request().Context(), body.ResourceID, body.Interval.toModel(), engine.QuoteAttributes{ExtraItems: body.ExtraItems})
    if err != nil {
        return writeEngineError(c, err)
    }
    available, err := h.Service.Availability().IsAvailable(c.Request().Context(), body.ResourceID, body.Interval.toModel())
    if err != nil {
        return writeEngineError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "quote":     quote,
        "available": available,
    })
}

// Book handles POST /v1/reservations.  The Idempotency-Key header makes
// retries safe: repeating the request returns the originally created
// reservation.
func (h *ReservationHandler) Book(c echo.Context) error {
    customerID := middleware.CustomerID(c)
    if customerID == "" {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var body struct {
        ResourceID string          `json:"resource_id"`
        Interval   intervalRequest `json:"interval"`
        ExtraItems int64           `json:"extra_items"`
        Hold       bool            `json:"hold"`
        PaymentRef *string         `json:"payment_ref"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if body.ResourceID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "resource_id is required"})
    }
    res, err := h.Service.Book(c.Request().Context(), engine.BookInput{
        ResourceID:     body.ResourceID,
        CustomerID:     customerID,
        Interval:       body.Interval.toModel(),
        Attributes:     engine.QuoteAttributes{ExtraItems: body.ExtraItems},
        IdempotencyKey: c.Request().Header.Get("Idempotency-Key"),
        Hold:           body.Hold,
        PaymentRef:     body.PaymentRef,
    })
    if err != nil {
        return writeEngineError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"reservation": res})
}

// Confirm handles POST /v1/reservations/:id/confirm, turning a PENDING
// hold into a CONFIRMED, paid reservation.
func (h *ReservationHandler) Confirm(c echo.Context) error {
    res, ok := h.ownReservation(c)
    if !ok {
        return nil
    }
    var body struct {
        PaymentRef *string `json:"payment_ref"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    updated, svcErr := h.Service.Confirm(c.Request().Context(), res.ID, body.PaymentRef)
    if svcErr != nil {
        return writeEngineError(c, svcErr)
    }
    return c.JSON(http.StatusOK, echo.Map{"reservation": updated})
}

// Modify handles PATCH /v1/reservations/:id.  It reschedules the
// reservation and re-prices it, charging the modification fee.
func (h *ReservationHandler) Modify(c echo.Context) error {
    res, ok := h.ownReservation(c)
    if !ok {
        return nil
    }
    var body struct {
        Interval   intervalRequest `json:"interval"`
        ExtraItems int64           `json:"extra_items"`
    }
    if err := c.Bind(&body); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    updated, svcErr := h.Service.Modify(c.Request().Context(), res.ID, body.Interval.toModel(), engine.QuoteAttributes{ExtraItems: body.ExtraItems})
    if svcErr != nil {
        return writeEngineError(c, svcErr)
    }
    return c.JSON(http.StatusOK, echo.Map{"reservation": updated})
}

// Cancel handles POST /v1/reservations/:id/cancel.  Cancelling twice is a
// no-op; the stored reservation is returned either way.
func (h *ReservationHandler) Cancel(c echo.Context) error {
    res, ok := h.ownReservation(c)
    if !ok {
        return nil
    }
    updated, svcErr := h.Service.Cancel(c.Request().Context(), res.ID)
    if svcErr != nil {
        return writeEngineError(c, svcErr)
    }
    return c.JSON(http.StatusOK, echo.Map{"reservation": updated})
}

// Get handles GET /v1/reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
    res, ok := h.ownReservation(c)
    if !ok {
        return nil
    }
    return c.JSON(http.StatusOK, echo.Map{"reservation": res})
}

// List handles GET /v1/my-reservations, returning the authenticated
// customer's reservations newest first.
func (h *ReservationHandler) List(c echo.Context) error {
    customerID := middleware.CustomerID(c)
    if customerID == "" {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    items, err := h.Service.ListByCustomer(c.Request().Context(), customerID)
    if err != nil {
        return writeEngineError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// ownReservation loads the reservation in the :id path parameter and
// enforces ownership: customers only operate on their own reservations,
// agents on any.  On failure it writes the HTTP error response itself and
// returns ok=false so the handler stops.
func (h *ReservationHandler) ownReservation(c echo.Context) (model.Reservation, bool) {
    customerID := middleware.CustomerID(c)
    if customerID == "" {
        _ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
        return model.Reservation{}, false
    }
    id := c.Param("id")
    if id == "" {
        _ = c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
        return model.Reservation{}, false
    }
    res, err := h.Service.Get(c.Request().Context(), id)
    if err != nil {
        _ = writeEngineError(c, err)
        return model.Reservation{}, false
    }
    if role, _ := c.Get("role").(string); role != "AGENT" && res.CustomerID != customerID {
        _ = c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        return model.Reservation{}, false
    }
    return res, true
}
