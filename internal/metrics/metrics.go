// Package metrics counts what pivot runs do and writes the counts in the
// Prometheus text format for node_exporter style collection.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lifetest"

// Recorder holds the run metrics. A nil *Recorder records nothing, so library
// code can call it unconditionally.
type Recorder struct {
	registry *prometheus.Registry

	PivotRows         *prometheus.CounterVec
	DroppedMetrics    *prometheus.CounterVec
	ColumnResolutions *prometheus.CounterVec
	RunDuration       prometheus.Histogram
}

// NewRecorder builds a recorder on its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		PivotRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pivot_rows_total",
				Help:      "pivot rows produced, by category, view and evaluation outcome",
			},
			[]string{"category", "view", "outcome"},
		),
		DroppedMetrics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dropped_metrics_total",
				Help:      "configured metrics whose source columns were not found",
			},
			[]string{"category"},
		),
		ColumnResolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "column_resolutions_total",
				Help:      "metric source columns resolved, by strategy",
			},
			[]string{"strategy"},
		),
		RunDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "time to load a raw file and generate every pivot of a set",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
		),
	}
	r.registry.MustRegister(r.PivotRows, r.DroppedMetrics, r.ColumnResolutions, r.RunDuration)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveOutcome counts one evaluated pivot row.
func (r *Recorder) ObserveOutcome(category, view, outcome string) {
	if r == nil {
		return
	}
	r.PivotRows.With(prometheus.Labels{"category": category, "view": view, "outcome": outcome}).Inc()
}

// MetricDropped counts a metric left out of a category's pivots.
func (r *Recorder) MetricDropped(category string) {
	if r == nil {
		return
	}
	r.DroppedMetrics.WithLabelValues(category).Inc()
}

// ColumnResolved counts a source column found by the named strategy.
func (r *Recorder) ColumnResolved(strategy string) {
	if r == nil {
		return
	}
	r.ColumnResolutions.WithLabelValues(strategy).Inc()
}

// ObserveRun records the duration of a whole run.
func (r *Recorder) ObserveRun(d time.Duration) {
	if r == nil {
		return
	}
	r.RunDuration.Observe(d.Seconds())
}

// WriteTextfile writes every metric to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
