package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_notifier"

// Metrics holds the Prometheus collectors for notification runs.
type Metrics struct {
	RunsTotal    *prometheus.CounterVec // labels: result={completed,aborted}
	RunDuration  prometheus.Histogram
	UsersTotal   *prometheus.CounterVec // labels: outcome={sent,not_due,already_sent,failed}
	FailureTotal *prometheus.CounterVec // labels: kind
	Dispatches   prometheus.Counter

	WeatherFetchDuration *prometheus.HistogramVec // labels: mode, outcome={success,error}
	LastRunTimestamp     prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Notification passes by result.",
		}, []string{"result"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a full notification pass.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		UsersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "users_evaluated_total",
			Help:      "Users evaluated by outcome.",
		}, []string{"outcome"}),
		FailureTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "user_failures_total",
			Help:      "Per-user recoverable failures by kind.",
		}, []string{"kind"}),
		Dispatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatches_total",
			Help:      "Reports sent and marked in the directory.",
		}),
		WeatherFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "weather_fetch_duration_seconds",
			Help:      "Weather provider call duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"mode", "outcome"}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last pass finished.",
		}),
	}
}

// NewMetrics creates and registers all metrics with the default registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.UsersTotal,
		m.FailureTotal,
		m.Dispatches,
		m.WeatherFetchDuration,
		m.LastRunTimestamp,
	)
	return m
}

// NewMetricsForTesting creates unregistered metrics so tests can build as many
// as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
