// Package metrics exposes Prometheus metrics for the inventory engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sells-group/inventory-cli/internal/model"
)

// Metrics holds all Prometheus metrics for the application. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// Analysis metrics
	AnalysesTotal    *prometheus.CounterVec
	AnalysisDuration prometheus.Histogram

	// Comp metrics
	CompRefreshesTotal *prometheus.CounterVec
	CompsStored        *prometheus.CounterVec

	// Alarm metrics
	AlarmsTotal        *prometheus.CounterVec
	FleetDailyBurn     *prometheus.GaugeVec
	UnderwaterVehicles *prometheus.GaugeVec

	// Pricing metrics
	PriceEventsTotal *prometheus.CounterVec
}

// New creates a Metrics instance registered on reg. A nil reg gets a fresh
// registry.
func New(reg *prometheus.Registry, namespace string) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if namespace == "" {
		namespace = "inventory"
	}
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		AnalysesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total number of vehicle analyses by aging class",
		}, []string{"aging_class"}),
		AnalysisDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Vehicle analysis duration in seconds",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1},
		}),

		CompRefreshesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comps",
			Name:      "refreshes_total",
			Help:      "Total number of comp summary rebuilds by trigger",
		}, []string{"trigger"}),
		CompsStored: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "comps",
			Name:      "stored_total",
			Help:      "Total number of comps stored by source",
		}, []string{"source"}),

		AlarmsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alarm",
			Name:      "runs_total",
			Help:      "Total number of fleet alarms generated by trigger",
		}, []string{"trigger"}),
		FleetDailyBurn: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "alarm",
			Name:      "fleet_daily_burn_dollars",
			Help:      "Total daily floorplan burn from the latest alarm",
		}, []string{"dealership_id"}),
		UnderwaterVehicles: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "alarm",
			Name:      "underwater_vehicles",
			Help:      "Vehicles with negative net gross in the latest alarm",
		}, []string{"dealership_id"}),

		PriceEventsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pricing",
			Name:      "events_total",
			Help:      "Total number of logged price events by type",
		}, []string{"event_type"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordAnalysis records one analysis and its duration.
func (m *Metrics) RecordAnalysis(class model.AgingClass, d time.Duration) {
	if m == nil {
		return
	}
	m.AnalysesTotal.WithLabelValues(string(class)).Inc()
	m.AnalysisDuration.Observe(d.Seconds())
}

// RecordCompRefresh records a comp summary rebuild and the comps stored.
func (m *Metrics) RecordCompRefresh(trigger string, source model.CompSource, stored int) {
	if m == nil {
		return
	}
	m.CompRefreshesTotal.WithLabelValues(trigger).Inc()
	if stored > 0 {
		m.CompsStored.WithLabelValues(string(source)).Add(float64(stored))
	}
}

// RecordAlarm records a generated alarm and updates the fleet gauges.
func (m *Metrics) RecordAlarm(trigger string, report *model.AlarmReport) {
	if m == nil {
		return
	}
	m.AlarmsTotal.WithLabelValues(trigger).Inc()
	m.FleetDailyBurn.WithLabelValues(report.DealershipID).Set(report.TotalDailyBurn)
	m.UnderwaterVehicles.WithLabelValues(report.DealershipID).Set(float64(len(report.UnderwaterVehicles)))
}

// RecordPriceEvent records a logged price event.
func (m *Metrics) RecordPriceEvent(t model.PriceEventType) {
	if m == nil {
		return
	}
	m.PriceEventsTotal.WithLabelValues(string(t)).Inc()
}
