// Package metrics provides Prometheus metrics for extraction runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors of one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	reg *prometheus.Registry

	ItemsTotal     *prometheus.CounterVec
	DownloadsTotal *prometheus.CounterVec
	RunsTotal      *prometheus.CounterVec
	RunDuration    *prometheus.HistogramVec
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		ItemsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workshopmods_items_total",
				Help: "Workshop items processed, by variant and outcome",
			},
			[]string{"variant", "status"},
		),
		DownloadsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workshopmods_downloads_total",
				Help: "SteamCMD download attempts by outcome",
			},
			[]string{"outcome"},
		),
		RunsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workshopmods_runs_total",
				Help: "Completed or aborted pipeline runs",
			},
			[]string{"variant", "outcome"},
		),
		RunDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workshopmods_run_duration_seconds",
				Help:    "Wall time of pipeline runs",
				Buckets: []float64{1, 5, 10, 30, 60, 300, 600, 1800, 3600},
			},
			[]string{"variant"},
		),
	}
}

// Item counts one resolved item.
func (m *Metrics) Item(variant, status string) {
	if m == nil {
		return
	}
	m.ItemsTotal.WithLabelValues(variant, status).Inc()
}

// Download counts one download attempt.
func (m *Metrics) Download(outcome string) {
	if m == nil {
		return
	}
	m.DownloadsTotal.WithLabelValues(outcome).Inc()
}

// Run records a finished run.
func (m *Metrics) Run(variant, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(variant, outcome).Inc()
	m.RunDuration.WithLabelValues(variant).Observe(d.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
