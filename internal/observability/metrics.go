package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "park_factors"

// Metrics holds the Prometheus collectors for the park factor pipeline.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	PipelineRuns     *prometheus.CounterVec // labels: outcome={success,failure}
	PipelineDuration prometheus.Histogram
	WeatherFetches   *prometheus.CounterVec // labels: outcome={present,absent}
	CacheLookups     *prometheus.CounterVec // labels: result={hit,miss,stale_fallback}
	LastSuccess      prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		PipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Park factor recomputations by outcome.",
		}, []string{"outcome"}),
		PipelineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Duration of a full fetch-adjust-rank run.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		WeatherFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "weather_fetch_total",
			Help:      "Per-venue weather fetches by outcome.",
		}, []string{"outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_total",
			Help:      "Refresh controller lookups by result.",
		}, []string{"result"}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful recompute.",
		}),
	}
}

// NewMetrics creates the collectors and registers them with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.PipelineRuns,
		m.PipelineDuration,
		m.WeatherFetches,
		m.CacheLookups,
		m.LastSuccess,
	)
	return m
}

// NewMetricsForTesting creates unregistered collectors so tests can build
// as many as they like without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// WeatherFetched records one weather fetch outcome.
func (m *Metrics) WeatherFetched(present bool) {
	if m == nil {
		return
	}
	outcome := "present"
	if !present {
		outcome = "absent"
	}
	m.WeatherFetches.WithLabelValues(outcome).Inc()
}

// PipelineFinished records a recompute and its duration.
func (m *Metrics) PipelineFinished(err error, took time.Duration, at time.Time) {
	if m == nil {
		return
	}
	if err != nil {
		m.PipelineRuns.WithLabelValues("failure").Inc()
		return
	}
	m.PipelineRuns.WithLabelValues("success").Inc()
	m.PipelineDuration.Observe(took.Seconds())
	m.LastSuccess.Set(float64(at.Unix()))
}

// CacheLookup records how the refresh controller answered a request.
func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
