// Package reporting exposes predefined operational measures over the mcare
// tables for program supervisors.
package reporting

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"

	"github.com/mcare/mcare/internal/platform/auth"
)

// MeasureDefinition defines a reporting measure with its SQL query.
type MeasureDefinition struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	SQL         string `json:"sql"`
}

// MeasureReport holds the results of evaluating a measure.
type MeasureReport struct {
	MeasureID   string                   `json:"measure_id"`
	MeasureName string                   `json:"measure_name"`
	GeneratedAt time.Time                `json:"generated_at"`
	Results     []map[string]interface{} `json:"results"`
}

// PredefinedMeasures is the list of available reporting measures.
var PredefinedMeasures = []MeasureDefinition{
	{
		ID:          "open-alerts-by-status",
		Name:        "Open Alerts by Status",
		Description: "Count of non-closed alert records grouped by status",
		SQL:         `SELECT status, COUNT(*) AS total FROM action WHERE status <> 'closed' GROUP BY status ORDER BY total DESC`,
	},
	{
		ID:          "enrollments-by-milestone",
		Name:        "Enrollments by Milestone",
		Description: "Open alert records grouped by schedule and milestone",
		SQL:         `SELECT schedule_name, milestone, COUNT(*) AS total FROM action WHERE status <> 'closed' GROUP BY schedule_name, milestone ORDER BY schedule_name, milestone`,
	},
	{
		ID:          "registered-beneficiaries",
		Name:        "Registered Beneficiaries",
		Description: "Open mother and child cases in the register",
		SQL:         `SELECT 'mother' AS register, COUNT(*) AS total FROM mother WHERE NOT is_closed UNION ALL SELECT 'child', COUNT(*) FROM child WHERE NOT is_closed`,
	},
	{
		ID:          "overdue-alerts",
		Name:        "Overdue Alerts",
		Description: "Open alerts past their due date, grouped by provider",
		SQL:         `SELECT provider_id, COUNT(*) AS total FROM action WHERE status <> 'closed' AND due_date < NOW() GROUP BY provider_id ORDER BY total DESC`,
	},
	{
		ID:          "indicator-totals",
		Name:        "Indicator Totals",
		Description: "Reporting indicators recorded, grouped by indicator",
		SQL:         `SELECT indicator, COUNT(*) AS total FROM report_indicator GROUP BY indicator ORDER BY total DESC`,
	},
}

// Handler provides HTTP handlers for the reporting API.
type Handler struct {
	pool *pgxpool.Pool
}

func NewHandler(pool *pgxpool.Pool) *Handler {
	return &Handler{pool: pool}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	reportGroup := api.Group("/reports", auth.RequireRole("supervisor"))
	reportGroup.GET("/measures", h.ListMeasures)
	reportGroup.GET("/measures/:id/evaluate", h.EvaluateMeasure)
}

// ListMeasures returns all available measure definitions.
func (h *Handler) ListMeasures(c echo.Context) error {
	return c.JSON(http.StatusOK, PredefinedMeasures)
}

// EvaluateMeasure executes a measure's SQL and returns the results.
func (h *Handler) EvaluateMeasure(c echo.Context) error {
	measure := FindMeasure(c.Param("id"))
	if measure == nil {
		return echo.NewHTTPError(http.StatusNotFound, "measure not found")
	}

	results, err := h.executeSQL(c.Request().Context(), measure.SQL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, fmt.Sprintf("query failed: %v", err))
	}

	return c.JSON(http.StatusOK, MeasureReport{
		MeasureID:   measure.ID,
		MeasureName: measure.Name,
		GeneratedAt: time.Now(),
		Results:     results,
	})
}

// executeSQL runs a SQL query and returns results as a slice of maps.
func (h *Handler) executeSQL(ctx context.Context, sql string) ([]map[string]interface{}, error) {
	rows, err := h.pool.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	var results []map[string]interface{}

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(fieldDescs))
		for i, fd := range fieldDescs {
			row[string(fd.Name)] = values[i]
		}
		results = append(results, row)
	}

	if results == nil {
		results = []map[string]interface{}{}
	}

	return results, rows.Err()
}

// FindMeasure looks up a measure by ID.
func FindMeasure(id string) *MeasureDefinition {
	for i := range PredefinedMeasures {
		if PredefinedMeasures[i].ID == id {
			return &PredefinedMeasures[i]
		}
	}
	return nil
}
