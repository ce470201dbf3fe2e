// Package metrics provides pipeline metrics for observability
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/orcasound/orcaprep/internal/errors"
)

// PipelineMetrics contains Prometheus metrics for a preprocessing run
type PipelineMetrics struct {
	registry *prometheus.Registry

	// Output metrics
	clipsTotal *prometheus.CounterVec
	plotsTotal *prometheus.CounterVec

	// Input metrics
	annotationsGauge  prometheus.Gauge
	meanDurationGauge prometheus.Gauge
	backgroundGauge   *prometheus.GaugeVec

	// Timing and error metrics
	stageDuration *prometheus.HistogramVec
	errorsTotal   *prometheus.CounterVec
}

// NewPipelineMetrics creates and registers new pipeline metrics
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// initMetrics initializes all Prometheus metrics
func (m *PipelineMetrics) initMetrics() {
	m.clipsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orcaprep_clips_total",
			Help: "Total number of clips processed",
		},
		[]string{"kind", "status"}, // kind: positive, negative; status: written, skipped, failed
	)

	m.plotsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orcaprep_plots_total",
			Help: "Total number of spectrogram images processed",
		},
		[]string{"case", "status"},
	)

	m.annotationsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orcaprep_annotations",
		Help: "Number of rows in the annotation table",
	})

	m.meanDurationGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "orcaprep_mean_call_duration_seconds",
		Help: "Mean annotated call duration",
	})

	m.backgroundGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "orcaprep_background_selections",
			Help: "Background selections requested and drawn",
		},
		[]string{"result"}, // result: requested, drawn
	)

	m.stageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orcaprep_stage_duration_seconds",
			Help:    "Time taken by pipeline stages",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount12), // 10ms to ~40s
		},
		[]string{"stage"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orcaprep_errors_total",
			Help: "Total number of errors by component and category",
		},
		[]string{"component", "category"},
	)
}

// Describe implements the prometheus.Collector interface
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.clipsTotal.Describe(ch)
	m.plotsTotal.Describe(ch)
	m.annotationsGauge.Describe(ch)
	m.meanDurationGauge.Describe(ch)
	m.backgroundGauge.Describe(ch)
	m.stageDuration.Describe(ch)
	m.errorsTotal.Describe(ch)
}

// Collect implements the prometheus.Collector interface
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	m.clipsTotal.Collect(ch)
	m.plotsTotal.Collect(ch)
	m.annotationsGauge.Collect(ch)
	m.meanDurationGauge.Collect(ch)
	m.backgroundGauge.Collect(ch)
	m.stageDuration.Collect(ch)
	m.errorsTotal.Collect(ch)
}

// RecordClip counts one clip of the given kind and status.
func (m *PipelineMetrics) RecordClip(kind, status string) {
	m.clipsTotal.WithLabelValues(kind, status).Inc()
}

// RecordPlot counts one spectrogram image for a preprocessing case.
func (m *PipelineMetrics) RecordPlot(preprocessCase int, status string) {
	m.plotsTotal.WithLabelValues(strconv.Itoa(preprocessCase), status).Inc()
}

// SetAnnotations records the annotation count and mean call duration.
func (m *PipelineMetrics) SetAnnotations(rows int, meanDuration float64) {
	m.annotationsGauge.Set(float64(rows))
	m.meanDurationGauge.Set(meanDuration)
}

// SetBackground records how many background selections were wanted and drawn.
func (m *PipelineMetrics) SetBackground(requested, drawn int) {
	m.backgroundGauge.WithLabelValues("requested").Set(float64(requested))
	m.backgroundGauge.WithLabelValues("drawn").Set(float64(drawn))
}

// ObserveStage records how long a stage took.
func (m *PipelineMetrics) ObserveStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordError counts an error by component and category.
func (m *PipelineMetrics) RecordError(component, category string) {
	m.errorsTotal.WithLabelValues(component, category).Inc()
}

// ErrorHook returns a hook counting every enhanced error that is built.
func (m *PipelineMetrics) ErrorHook() errors.ErrorHook {
	return func(ee *errors.EnhancedError) {
		m.RecordError(ee.GetComponent(), ee.GetCategory())
	}
}
