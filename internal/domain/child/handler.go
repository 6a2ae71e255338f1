package child

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
	role := auth.RequireRole("anm", "supervisor")
	g := api.Group("", role)
	g.POST("/children", h.Register)
	g.GET("/children/:case_id", h.Get)
	g.GET("/mothers/:case_id/children", h.Siblings)
	g.PUT("/children/:case_id/immunizations", h.UpdateImmunizations)
	g.POST("/children/:case_id/close", h.CloseCase)
}

func (h *Handler) Register(c echo.Context) error {
	var ch Child
	if err := c.Bind(&ch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Register(c.Request().Context(), &ch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, ch)
}

func (h *Handler) Get(c echo.Context) error {
	ch, err := h.svc.Get(c.Request().Context(), c.Param("case_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if ch == nil {
		return echo.NewHTTPError(http.StatusNotFound, "child not found")
	}
	return c.JSON(http.StatusOK, ch)
}

func (h *Handler) Siblings(c echo.Context) error {
	items, err := h.svc.Siblings(c.Request().Context(), c.Param("case_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, items)
}

type immunizationRequest struct {
	ProviderID         string `json:"provider_id"`
	ImmunizationsGiven string `json:"immunizations_given"`
}

func (h *Handler) UpdateImmunizations(c echo.Context) error {
	var req immunizationRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ProviderID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "provider_id is required")
	}
	if err := h.svc.UpdateImmunizations(c.Request().Context(), c.Param("case_id"), req.ProviderID, req.ImmunizationsGiven); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

type closeRequest struct {
	ProviderID string `json:"provider_id"`
}

func (h *Handler) CloseCase(c echo.Context) error {
	var req closeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ProviderID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "provider_id is required")
	}
	if err := h.svc.CloseCase(c.Request().Context(), c.Param("case_id"), req.ProviderID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}
