// Package metrics defines the Prometheus instruments of the enhancement
// service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
)

const namespace = "enhancer"

// Module provides a Metrics bound to its own registry.
var Module = fx.Module("metrics",
	fx.Provide(New),
)

// Metrics contains all Prometheus metrics for the enhancement service.
type Metrics struct {
	registry *prometheus.Registry

	// Pipeline
	Runs               *prometheus.CounterVec
	ProcessingDuration *prometheus.HistogramVec
	InputBytes         prometheus.Histogram
	NoiseFloor         prometheus.Histogram

	// Result cache
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Worker pool
	InFlight      prometheus.Gauge
	QueueWait     prometheus.Histogram
	QueueTimeouts prometheus.Counter

	// HTTP API
	HTTPRequests *prometheus.CounterVec
}

// New creates and registers all metrics on a fresh registry, together with
// the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by final outcome",
		}, []string{"outcome"}),
		ProcessingDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "processing_duration_seconds",
			Help:      "Time spent in the pipeline per run",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}, []string{"outcome"}),
		InputBytes: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "input_bytes",
			Help:      "Size of submitted recordings",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 10), // 1KB to ~256MB
		}),
		NoiseFloor: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "noise_floor_dbfs",
			Help:      "Measured noise floor of processed recordings",
			Buckets:   prometheus.LinearBuckets(-120, 10, 12), // -120 to -10 dBFS
		}),

		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Runs answered from the result cache",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Runs that had to be computed",
		}),

		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "worker_in_flight",
			Help:      "Pipeline runs currently holding a worker slot",
		}),
		QueueWait: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "worker_queue_wait_seconds",
			Help:      "Time spent waiting for a worker slot",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}),
		QueueTimeouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_queue_timeouts_total",
			Help:      "Runs abandoned while waiting for a worker slot",
		}),

		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
	}
}

// ObserveRun records one pipeline run.
func (m *Metrics) ObserveRun(outcome string, inputBytes int, elapsed time.Duration) {
	m.Runs.WithLabelValues(outcome).Inc()
	m.ProcessingDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	m.InputBytes.Observe(float64(inputBytes))
}

// Registry returns the registry the metrics are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
