// Package metrics provides Prometheus instrumentation for batch evaluation.
//
// # Basic Usage
//
//	m := metrics.NewBatchMetrics(prometheus.DefaultRegisterer)
//	ev, _ := evaluator.New(cfg, transform, logger, evaluator.WithMetrics(m))
//
// Tests pass their own prometheus.NewRegistry() so collectors never clash
// with the default registry.
//
// # Metric Types
//
// Counter: rows evaluated and rows failed, labeled by evaluator name and mode
// Gauge: batches currently in flight
// Histogram: batch duration in seconds
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tabeval"

// BatchMetrics holds the collectors recorded by the evaluator. A nil
// *BatchMetrics is valid and records nothing.
type BatchMetrics struct {
	rowsEvaluated *prometheus.CounterVec
	rowsFailed    *prometheus.CounterVec
	batches       *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	inFlight      *prometheus.GaugeVec
}

// NewBatchMetrics creates and registers the batch collectors on reg. A nil
// reg leaves the collectors unregistered.
func NewBatchMetrics(reg prometheus.Registerer) *BatchMetrics {
	factory := promauto.With(reg)
	labels := []string{"evaluator", "mode"}

	return &BatchMetrics{
		rowsEvaluated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_evaluated_total",
				Help:      "Total number of rows passed through a row transform",
			},
			labels,
		),
		rowsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_failed_total",
				Help:      "Total number of rows whose transform failed",
			},
			labels,
		),
		batches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "batches_total",
				Help:      "Total number of batches by outcome",
			},
			[]string{"evaluator", "status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "batch_duration_seconds",
				Help:      "Batch evaluation duration in seconds",
				Buckets: []float64{
					0.0001, // 100µs - a handful of rows
					0.001,  // 1ms
					0.01,   // 10ms
					0.1,    // 100ms
					1,      // 1s - large batches
					10,
					60,
				},
			},
			labels,
		),
		inFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "batches_in_flight",
				Help:      "Number of batches currently being evaluated",
			},
			[]string{"evaluator"},
		),
	}
}

// BatchStarted marks a batch as in flight and returns a timer for it.
func (m *BatchMetrics) BatchStarted(evaluator string) *Timer {
	if m != nil {
		m.inFlight.WithLabelValues(evaluator).Inc()
	}
	return NewTimer(evaluator)
}

// BatchFinished records the outcome of a batch started with BatchStarted.
// A non-nil err marks the whole batch as aborted; its rows are not counted.
func (m *BatchMetrics) BatchFinished(timer *Timer, mode string, rows, failed int, err error) time.Duration {
	elapsed := timer.Stop()
	if m == nil {
		return elapsed
	}

	m.inFlight.WithLabelValues(timer.name).Dec()
	if err != nil {
		m.batches.WithLabelValues(timer.name, "aborted").Inc()
		return elapsed
	}

	m.batches.WithLabelValues(timer.name, "completed").Inc()
	m.rowsEvaluated.WithLabelValues(timer.name, mode).Add(float64(rows))
	m.rowsFailed.WithLabelValues(timer.name, mode).Add(float64(failed))
	m.duration.WithLabelValues(timer.name, mode).Observe(elapsed.Seconds())
	return elapsed
}

// Timer captures the start time on creation and reports elapsed time on
// Stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Stop returns the elapsed duration since creation. It may be called more
// than once.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// Name returns the timer name.
func (t *Timer) Name() string {
	return t.name
}
