package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "apiscribe_parsing_seconds",
		Help:    "Time spent parsing one module or crate.",
		Buckets: prometheus.DefBuckets,
	}, []string{"origin"})

	PhaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "apiscribe_phase_seconds",
		Help:    "Time spent in each pipeline phase.",
		Buckets: prometheus.DefBuckets,
	}, []string{"phase"})

	RenderDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "apiscribe_render_seconds",
		Help:    "Time spent rendering one page.",
		Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5},
	}, []string{"backend"})

	ModulesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "apiscribe_modules_total",
		Help: "Number of modules in the resolved model of the last run.",
	})

	PagesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "apiscribe_pages_total",
		Help: "Number of pages written by the last run.",
	})

	DiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apiscribe_diagnostics_total",
		Help: "Diagnostics reported, by kind.",
	}, []string{"kind"})

	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "apiscribe_runs_total",
		Help: "Completed runs, by outcome.",
	}, []string{"outcome"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apiscribe_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	WatcherDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "apiscribe_watcher_rerenders_deferred_total",
		Help: "Re-renders postponed by the watch mode rate limiter.",
	})
)

// WriteMetrics dumps every registered metric to path in the Prometheus text
// format, for node_exporter's textfile collector.
func WriteMetrics(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
