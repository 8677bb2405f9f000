package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"csync-go/internal/model"
)

// Metrics tracks sync activity on its own Prometheus registry, exposed
// at /metrics.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal      *prometheus.CounterVec
	filesTotal     *prometheus.CounterVec
	runDuration    *prometheus.HistogramVec
	syncInProgress prometheus.Gauge
}

func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csync_runs_total",
			Help: "Completed sync runs by operation and outcome.",
		},
		[]string{"operation", "status"},
	)

	m.filesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "csync_files_total",
			Help: "Files handled across all runs, by action taken.",
		},
		[]string{"action"},
	)

	m.runDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "csync_run_duration_seconds",
			Help:    "Wall-clock duration of sync runs.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	m.syncInProgress = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "csync_sync_in_progress",
			Help: "Whether a sync run is currently active.",
		},
	)

	m.registry.MustRegister(m.runsTotal, m.filesTotal, m.runDuration, m.syncInProgress)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RunStarted marks a run as in flight.
func (m *Metrics) RunStarted() {
	m.syncInProgress.Inc()
}

// RunFinished records the outcome of a run. report may be nil when the
// run failed before producing one.
func (m *Metrics) RunFinished(operation string, seconds float64, report *model.Report, err error) {
	m.syncInProgress.Dec()
	status := "completed"
	if err != nil {
		status = "failed"
	}
	m.runsTotal.WithLabelValues(operation, status).Inc()
	m.runDuration.WithLabelValues(operation).Observe(seconds)

	if report == nil {
		return
	}
	stats := report.Stats
	m.filesTotal.WithLabelValues("downloaded").Add(float64(stats.Downloaded))
	m.filesTotal.WithLabelValues("skipped").Add(float64(stats.Skipped))
	m.filesTotal.WithLabelValues("failed").Add(float64(stats.Failed))
	m.filesTotal.WithLabelValues("inaccessible").Add(float64(stats.Inaccessible))
	m.filesTotal.WithLabelValues("uploaded").Add(float64(stats.Uploaded))
	m.filesTotal.WithLabelValues("upload_failed").Add(float64(stats.UploadFailed))
}
