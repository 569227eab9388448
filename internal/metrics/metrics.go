// Package metrics exposes dashboard execution metrics in the Prometheus
// format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dashboard records dashboard executions. It satisfies dashboard.Recorder.
type Dashboard struct {
	executions *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	pivotRows  prometheus.Histogram
}

// NewDashboard registers the dashboard collectors with r.
func NewDashboard(r prometheus.Registerer) *Dashboard {
	return &Dashboard{
		executions: promauto.With(r).NewCounterVec(prometheus.CounterOpts{
			Name: "dashquery_executions_total",
			Help: "Total number of dashboard executions by outcome.",
		}, []string{"data_source", "outcome"}),
		duration: promauto.With(r).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dashquery_execution_duration_seconds",
			Help:    "Time taken to compile, run and assemble a dashboard.",
			Buckets: prometheus.DefBuckets,
		}, []string{"data_source"}),
		pivotRows: promauto.With(r).NewHistogram(prometheus.HistogramOpts{
			Name:    "dashquery_pivot_top_level_rows",
			Help:    "Number of top-level rows in successful pivot responses.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

// ObserveExecution records one execution.
func (d *Dashboard) ObserveExecution(dataSourceID, outcome string, elapsed time.Duration, rows int) {
	d.executions.WithLabelValues(dataSourceID, outcome).Inc()
	d.duration.WithLabelValues(dataSourceID).Observe(elapsed.Seconds())
	if rows > 0 {
		d.pivotRows.Observe(float64(rows))
	}
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the metrics of g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
