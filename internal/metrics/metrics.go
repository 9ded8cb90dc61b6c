// Package metrics exposes Prometheus instrumentation for the wizard
// engine: submissions, validation failures, and side-effect outcomes.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sangamhq/vivah/pkg/domain"
)

// Metrics contains the engine-level Prometheus collectors.
type Metrics struct {
	Submissions        *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	EffectDuration     *prometheus.HistogramVec
	EffectErrors       *prometheus.CounterVec
	ActiveWizards      prometheus.Gauge
}

// New creates the collectors. Register attaches them to a registry.
func New() *Metrics {
	return &Metrics{
		Submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vivah",
				Subsystem: "wizard",
				Name:      "submissions_total",
				Help:      "Total number of step submissions",
			},
			[]string{"step", "status"},
		),
		ValidationFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vivah",
				Subsystem: "wizard",
				Name:      "validation_failures_total",
				Help:      "Total number of field validation failures",
			},
			[]string{"step", "field"},
		),
		EffectDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "vivah",
				Subsystem: "effects",
				Name:      "duration_seconds",
				Help:      "Side effect execution duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		EffectErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "vivah",
				Subsystem: "effects",
				Name:      "errors_total",
				Help:      "Total number of failed side effects",
			},
			[]string{"op"},
		),
		ActiveWizards: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "vivah",
				Subsystem: "wizard",
				Name:      "active",
				Help:      "Number of wizards with a stored snapshot",
			},
		),
	}
}

// Hooks returns lifecycle hooks that feed the side-effect collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEffect: func(_ context.Context, e *domain.EffectEvent) {
			m.EffectDuration.WithLabelValues(e.Op).Observe(e.Duration.Seconds())
			if e.IsError {
				m.EffectErrors.WithLabelValues(e.Op).Inc()
			}
		},
	}
}

// Register registers all collectors with the given registerer.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		m.Submissions,
		m.ValidationFailures,
		m.EffectDuration,
		m.EffectErrors,
		m.ActiveWizards,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
