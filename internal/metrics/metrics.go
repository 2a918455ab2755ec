// Package metrics exposes Prometheus collectors for the describe pipeline.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "sightread"

	ResultSuccess = "success"
	ResultError   = "error"
)

// Recorder holds the pipeline collectors.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	// RequestsTotal counts handled requests by route and HTTP status class.
	RequestsTotal *prometheus.CounterVec

	// RequestDurationSeconds is end-to-end handler time per route.
	RequestDurationSeconds *prometheus.HistogramVec

	// StageTotal counts pipeline stage outcomes by stage, provider and result.
	StageTotal *prometheus.CounterVec

	// StageDurationSeconds is time spent in each provider call.
	StageDurationSeconds *prometheus.HistogramVec
}

// NewRecorder creates a Recorder and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled, labeled by route and status code class.",
		}, []string{"route", "code"}),
		RequestDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "End-to-end time to handle an HTTP request.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60},
		}, []string{"route"}),
		StageTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_total",
			Help:      "Total number of pipeline stage executions, labeled by stage, provider and result.",
		}, []string{"stage", "provider", "result"}),
		StageDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in a single provider call.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60},
		}, []string{"stage", "provider"}),
	}
	if reg != nil {
		reg.MustRegister(r.RequestsTotal, r.RequestDurationSeconds, r.StageTotal, r.StageDurationSeconds)
	}
	return r
}

var (
	once     sync.Once
	defaultR *Recorder
)

// Default returns the process-wide Recorder registered with the default
// Prometheus registerer.
func Default() *Recorder {
	once.Do(func() {
		defaultR = NewRecorder(prometheus.DefaultRegisterer)
	})
	return defaultR
}

// ObserveStage records the outcome and duration of a provider call.
func (r *Recorder) ObserveStage(stage, provider string, err error, d time.Duration) {
	if r == nil {
		return
	}
	result := ResultSuccess
	if err != nil {
		result = ResultError
	}
	r.StageTotal.WithLabelValues(stage, provider, result).Inc()
	r.StageDurationSeconds.WithLabelValues(stage, provider).Observe(d.Seconds())
}

// ObserveRequest records a handled HTTP request.
func (r *Recorder) ObserveRequest(route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.RequestsTotal.WithLabelValues(route, statusClass(status)).Inc()
	r.RequestDurationSeconds.WithLabelValues(route).Observe(d.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
