// Package metrics provides Prometheus instrumentation for batch runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace is used when Config.Namespace is empty.
const DefaultNamespace = "batchkit"

// Item outcome and run result label values.
const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"

	ResultCompleted = "completed"
	ResultCanceled  = "canceled"
)

// Config holds configuration for metrics collection.
type Config struct {
	// Registry receives the collectors. If nil, a private registry is created.
	Registry *prometheus.Registry

	// Namespace overrides the default "batchkit" namespace.
	Namespace string

	// Labels are constant labels added to every metric.
	Labels prometheus.Labels
}

// Recorder holds the metric instances for batch runs. A nil *Recorder is
// valid and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	RunsTotal     *prometheus.CounterVec
	RunDuration   *prometheus.HistogramVec
	ItemsTotal    *prometheus.CounterVec
	ItemDuration  prometheus.Histogram
	ItemsInFlight prometheus.Gauge
}

// NewRecorder registers batch metrics with cfg.Registry.
func NewRecorder(cfg Config) *Recorder {
	reg := cfg.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	ns := cfg.Namespace
	if ns == "" {
		ns = DefaultNamespace
	}
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "run",
				Name:        "total",
				Help:        "Total number of batch runs by mode and result",
				ConstLabels: cfg.Labels,
			},
			[]string{"mode", "result"},
		),

		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "run",
				Name:        "duration_seconds",
				Help:        "Wall-clock duration of batch runs",
				Buckets:     prometheus.ExponentialBuckets(0.01, 4, 10),
				ConstLabels: cfg.Labels,
			},
			[]string{"mode"},
		),

		ItemsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   ns,
				Subsystem:   "items",
				Name:        "total",
				Help:        "Total number of processed items by outcome",
				ConstLabels: cfg.Labels,
			},
			[]string{"outcome"},
		),

		ItemDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace:   ns,
				Subsystem:   "items",
				Name:        "duration_seconds",
				Help:        "Time spent in the transform per item",
				Buckets:     prometheus.DefBuckets,
				ConstLabels: cfg.Labels,
			},
		),

		ItemsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace:   ns,
				Subsystem:   "items",
				Name:        "in_flight",
				Help:        "Number of items currently inside the transform",
				ConstLabels: cfg.Labels,
			},
		),
	}
}

// Registry returns the registry holding the recorder's collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ItemStarted marks an item as entering the transform.
func (r *Recorder) ItemStarted() {
	if r == nil {
		return
	}
	r.ItemsInFlight.Inc()
}

// ItemFinished records one item's outcome and transform duration.
func (r *Recorder) ItemFinished(failed bool, d time.Duration) {
	if r == nil {
		return
	}
	r.ItemsInFlight.Dec()
	r.ItemDuration.Observe(d.Seconds())
	outcome := OutcomeSucceeded
	if failed {
		outcome = OutcomeFailed
	}
	r.ItemsTotal.WithLabelValues(outcome).Inc()
}

// ItemAbandoned marks an item as leaving the transform without an outcome,
// because the run was canceled while it was in flight.
func (r *Recorder) ItemAbandoned() {
	if r == nil {
		return
	}
	r.ItemsInFlight.Dec()
}

// RunFinished records the end of a run.
func (r *Recorder) RunFinished(mode string, canceled bool, d time.Duration) {
	if r == nil {
		return
	}
	result := ResultCompleted
	if canceled {
		result = ResultCanceled
	}
	r.RunsTotal.WithLabelValues(mode, result).Inc()
	r.RunDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// WriteTextfile writes the recorder's metrics to path in the Prometheus text
// format, for pickup by a node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
