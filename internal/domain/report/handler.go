package report

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mcare/mcare/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole("anm", "supervisor"))
	read.GET("/indicators", h.ListIndicators)
}

// ListIndicators returns the indicators recorded for one entity.
func (h *Handler) ListIndicators(c echo.Context) error {
	entityID := c.QueryParam("entity_id")
	if entityID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "entity_id is required")
	}
	items, err := h.svc.Indicators(c.Request().Context(), entityID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}
