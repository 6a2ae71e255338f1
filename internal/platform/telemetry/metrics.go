// Package telemetry exposes Prometheus metrics for the alerting engine.
package telemetry

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the engine counters. A nil *Metrics is safe to use so that
// tests can construct services without a registry.
type Metrics struct {
	Enrollments      *prometheus.CounterVec
	AlertsRaised     *prometheus.CounterVec
	AlertsClosed     *prometheus.CounterVec
	StoreConflicts   prometheus.Counter
	AuditWriteErrors prometheus.Counter

	registry *prometheus.Registry
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Enrollments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcare_enrollments_total",
			Help: "Schedule enrollments performed, by schedule and milestone.",
		}, []string{"schedule", "milestone"}),
		AlertsRaised: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcare_alerts_raised_total",
			Help: "Alerts opened, by schedule.",
		}, []string{"schedule"}),
		AlertsClosed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mcare_alerts_closed_total",
			Help: "Alerts closed, by schedule.",
		}, []string{"schedule"}),
		StoreConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mcare_store_conflicts_total",
			Help: "Optimistic-concurrency conflicts detected on the action store.",
		}),
		AuditWriteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mcare_audit_write_errors_total",
			Help: "Failed schedule log appends.",
		}),
		registry: reg,
	}
	reg.MustRegister(m.Enrollments, m.AlertsRaised, m.AlertsClosed, m.StoreConflicts, m.AuditWriteErrors)
	return m
}

// Handler returns the /metrics exposition handler.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

func (m *Metrics) EnrollmentPerformed(schedule, milestone string) {
	if m == nil {
		return
	}
	m.Enrollments.WithLabelValues(schedule, milestone).Inc()
}

func (m *Metrics) AlertRaised(schedule string) {
	if m == nil {
		return
	}
	m.AlertsRaised.WithLabelValues(schedule).Inc()
}

func (m *Metrics) AlertClosed(schedule string) {
	if m == nil {
		return
	}
	m.AlertsClosed.WithLabelValues(schedule).Inc()
}

func (m *Metrics) StoreConflict() {
	if m == nil {
		return
	}
	m.StoreConflicts.Inc()
}

func (m *Metrics) AuditWriteError() {
	if m == nil {
		return
	}
	m.AuditWriteErrors.Inc()
}
