package mother

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
	g := api.Group("", role)
	g.POST("/mothers", h.Register)
	g.GET("/mothers", h.List)
	g.GET("/mothers/:case_id", h.Get)
	g.POST("/mothers/:case_id/anc-visits", h.ANCVisit)
	g.POST("/mothers/:case_id/close", h.CloseCase)
}

func (h *Handler) Register(c echo.Context) error {
	var m Mother
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Register(c.Request().Context(), &m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) Get(c echo.Context) error {
	m, err := h.svc.Get(c.Request().Context(), c.Param("case_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if m == nil {
		return echo.NewHTTPError(http.StatusNotFound, "mother not found")
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) List(c echo.Context) error {
	providerID := c.QueryParam("provider_id")
	if providerID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "provider_id is required")
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), providerID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

type visitRequest struct {
	ProviderID string            `json:"provider_id"`
	Fields     map[string]string `json:"fields"`
}

func (h *Handler) ANCVisit(c echo.Context) error {
	var req visitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.ProviderID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "provider_id is required")
	}
	if err := h.svc.ANCVisit(c.Request().Context(), c.Param("case_id"), req.ProviderID, req.Fields); err != nil {
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
