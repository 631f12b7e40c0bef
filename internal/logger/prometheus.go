package logger

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

const metricsNamespace = "gitforge_admin"

var (
	metricsOnce sync.Once //nolint:gochecknoglobals

	// statements counts log events per level.
	statements *prometheus.CounterVec //nolint:gochecknoglobals

	// writeFailures counts events zerolog could not write.
	writeFailures prometheus.Counter //nolint:gochecknoglobals
)

// PrometheusHook counts log statements per level.
type PrometheusHook struct{}

// Run implements zerolog.Hook.
func (h PrometheusHook) Run(_ *zerolog.Event, level zerolog.Level, _ string) {
	if level != zerolog.NoLevel {
		statements.WithLabelValues(level.String()).Inc()
	}
}

// NewPrometheusHook registers the logger metrics on first use and returns the hook.
// The service label is fixed by the first call.
func NewPrometheusHook(service string) PrometheusHook {
	metricsOnce.Do(func() {
		labels := prometheus.Labels{"service": service}

		statements = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   metricsNamespace,
				Name:        "log_statements_total",
				Help:        "Number of log statements, differentiated by log level.",
				ConstLabels: labels,
			},
			[]string{"level"},
		)

		writeFailures = promauto.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "log_write_failures_total",
			Help:        "Number of log events that could not be written.",
			ConstLabels: labels,
		})
	})

	return PrometheusHook{}
}
