package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/resource-reservation/internal/catalog"
)

// ResourceHandler serves the bookable catalog.  Responses are read-only
// and safe to cache at the edge or in Redis.
type ResourceHandler struct {
	Catalog catalog.Catalog
}

// NewResourceHandler constructs a handler over the given catalog.
func NewResourceHandler(cat catalog.Catalog) *ResourceHandler {
	return &ResourceHandler{Catalog: cat}
}

// List handles GET /v1/resources, optionally filtered by ?category=.
func (h *ResourceHandler) List(c echo.Context) error {
	items, err := h.Catalog.List(c.Request().Context(), c.QueryParam("category"))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

// Get handles GET /v1/resources/:id.
func (h *ResourceHandler) Get(c echo.Context) error {
	res, err := h.Catalog.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, catalog.ErrResourceNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "resource not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"resource": res})
}
