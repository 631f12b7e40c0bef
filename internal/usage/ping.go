package usage

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gitforge-admin/gitforge-admin/internal/db/controller/appsetting"
)

const stopTimeout = 30 * time.Second

// cronLogger routes cron messages to zerolog.
type cronLogger struct {
	logger zerolog.Logger
}

// Info logs routine messages about cron's operation.
func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

// Error logs an error condition.
func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}

// Pinger refreshes the usage gauges on a cron schedule while the usage ping is enabled.
type Pinger struct {
	collector *Collector
	settings  *appsetting.Controller
	cron      *cron.Cron

	counts   *prometheus.GaugeVec
	lastPing prometheus.Gauge
}

// NewPinger creates a pinger and registers its gauges with reg.
func NewPinger(collector *Collector, settings *appsetting.Controller, reg prometheus.Registerer) (*Pinger, error) {
	p := &Pinger{
		collector: collector,
		settings:  settings,
		cron:      cron.New(cron.WithLogger(cronLogger{logger: log.With().Str("component", "usage").Logger()})),
		counts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "usage_counts",
			Help: "Counts of the last usage ping, differentiated by name.",
		}, []string{"name"}),
		lastPing: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "usage_last_ping_timestamp_seconds",
			Help: "Unix time of the last usage ping.",
		}),
	}

	for _, c := range []prometheus.Collector{p.counts, p.lastPing} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return p, nil
}

// Start schedules the ping with the cron spec schedule.
func (p *Pinger) Start(schedule string) error {
	if _, err := p.cron.AddFunc(schedule, func() {
		if _, err := p.Ping(context.Background()); err != nil {
			log.Error().Err(err).Msg("usage ping failed")
		}
	}); err != nil {
		return err
	}

	p.cron.Start()
	log.Info().Str("schedule", schedule).Msg("usage ping scheduled")

	return nil
}

// Stop waits for a running ping to finish.
func (p *Pinger) Stop() {
	ctx, cancel := context.WithTimeout(p.cron.Stop(), stopTimeout)
	defer cancel()
	<-ctx.Done()
}

// Ping collects the report and publishes it as gauges. It reports false when the
// usage ping is disabled in the application settings.
func (p *Pinger) Ping(ctx context.Context) (bool, error) {
	s, err := p.settings.Current(ctx)
	if err != nil {
		return false, err
	}

	if !s.UsagePingEnabled {
		log.Debug().Msg("usage ping disabled, skipping")
		return false, nil
	}

	payload, err := p.collector.Collect(ctx)
	if err != nil {
		return false, err
	}

	for name, n := range payload.Counts {
		p.counts.WithLabelValues(name).Set(float64(n))
	}

	p.lastPing.Set(float64(payload.RecordedAt.Unix()))

	log.Info().Int64("active_users", payload.ActiveUserCount).Msg("usage ping recorded")

	return true, nil
}
