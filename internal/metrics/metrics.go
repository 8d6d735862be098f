// Package metrics registers the Prometheus-compatible collectors exposed by
// the orchestration core: worker fan-out gauges and counters, worker
// latency, cache hits/misses, reflection iterations and confidence, and
// a run counter by task kind. There is no run duration collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the orchestration core reports to. All
// metrics are namespaced "hawkai_".
type Metrics struct {
	QueueDepth         prometheus.Gauge
	InflightWorkers    prometheus.Gauge
	WorkerLatencyMS    *prometheus.HistogramVec
	CacheHits          *prometheus.CounterVec
	CacheMisses        *prometheus.CounterVec
	ReflectionIter     prometheus.Histogram
	ReflectionConf     prometheus.Histogram
	RerunsTotal        *prometheus.CounterVec
	WorkerErrorsTotal  *prometheus.CounterVec
	RunsTotal          *prometheus.CounterVec
}

// New creates and registers every collector against registry. A nil
// registry uses prometheus.DefaultRegisterer.
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	f := promauto.With(registry)

	return &Metrics{
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "hawkai",
			Name:      "queue_depth",
			Help:      "Number of workers waiting for an executor slot",
		}),
		InflightWorkers: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "hawkai",
			Name:      "inflight_workers",
			Help:      "Number of workers currently executing",
		}),
		WorkerLatencyMS: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hawkai",
			Name:      "worker_latency_ms",
			Help:      "Worker execution duration in milliseconds",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		}, []string{"worker_id", "status"}),
		CacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hawkai",
			Name:      "cache_hits_total",
			Help:      "Cache lookups that found a live entry",
		}, []string{"kind"}),
		CacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hawkai",
			Name:      "cache_misses_total",
			Help:      "Cache lookups that found no live entry",
		}, []string{"kind"}),
		ReflectionIter: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hawkai",
			Name:      "reflection_iterations",
			Help:      "Number of reflection iterations a run needed before stopping",
			Buckets:   []float64{0, 1, 2, 3},
		}),
		ReflectionConf: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hawkai",
			Name:      "reflection_confidence",
			Help:      "Confidence score reported by the reflection worker",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),
		RerunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hawkai",
			Name:      "worker_reruns_total",
			Help:      "Cumulative count of workers re-run after a reflection pass",
		}, []string{"worker_id"}),
		WorkerErrorsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hawkai",
			Name:      "worker_errors_total",
			Help:      "Cumulative count of worker failures by error kind",
		}, []string{"worker_id", "error_kind"}),
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hawkai",
			Name:      "runs_total",
			Help:      "Cumulative count of completed runs by task kind",
		}, []string{"task_kind"}),
	}
}
