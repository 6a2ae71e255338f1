package action

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mcare/mcare/internal/platform/auth"
	"github.com/mcare/mcare/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	role := auth.RequireRole("anm", "supervisor")
	read := api.Group("", role)
	read.GET("/alerts", h.ListOpenAlerts)
	read.GET("/alerts/history", h.AlertHistory)
}

// ListOpenAlerts returns the open alerts for a provider, soonest due first.
func (h *Handler) ListOpenAlerts(c echo.Context) error {
	providerID := c.QueryParam("provider_id")
	if providerID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "provider_id is required")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.OpenAlerts(c.Request().Context(), providerID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

// AlertHistory returns every alert record for one (provider, entity,
// schedule) key, newest first.
func (h *Handler) AlertHistory(c echo.Context) error {
	providerID := c.QueryParam("provider_id")
	entityID := c.QueryParam("entity_id")
	schedule := c.QueryParam("schedule")
	if providerID == "" || entityID == "" || schedule == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "provider_id, entity_id and schedule are required")
	}
	items, err := h.svc.History(c.Request().Context(), providerID, entityID, schedule)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}
