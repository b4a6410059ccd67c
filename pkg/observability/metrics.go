package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aretw0/composable/pkg/domain"
)

// Effect outcomes used as the "outcome" label.
const (
	OutcomeFinished  = "finished"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "composable").
	Namespace string

	// ConstLabels are added to every metric.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry receives the collectors.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures NewMetrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics records store activity as Prometheus metrics:
//
//   - composable_actions_total: reduced actions by action name
//   - composable_action_duration_seconds: reduction time by action name
//   - composable_actions_dropped_total: dropped actions by reason
//   - composable_state_version: last published version by store
//   - composable_effects_started_total: effect operations started
//   - composable_effects_in_flight: effect operations currently running
//   - composable_effects_completed_total: finished operations by outcome
//   - composable_effect_duration_seconds: operation run time by outcome
type Metrics struct {
	actionsTotal    *prometheus.CounterVec
	actionDuration  *prometheus.HistogramVec
	actionsDropped  *prometheus.CounterVec
	stateVersion    *prometheus.GaugeVec
	effectsStarted  prometheus.Counter
	effectsInFlight prometheus.Gauge
	effectsDone     *prometheus.CounterVec
	effectDuration  *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := MetricsConfig{
		Namespace: "composable",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		actionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "actions_total",
			Help:        "Total number of actions reduced",
			ConstLabels: config.ConstLabels,
		}, []string{"action"}),

		actionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "action_duration_seconds",
			Help:        "Time spent reducing an action",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"action"}),

		actionsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "actions_dropped_total",
			Help:        "Total number of actions dropped before reduction",
			ConstLabels: config.ConstLabels,
		}, []string{"reason"}),

		stateVersion: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "state_version",
			Help:        "Version of the last published state",
			ConstLabels: config.ConstLabels,
		}, []string{"store"}),

		effectsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "effects_started_total",
			Help:        "Total number of effect operations started",
			ConstLabels: config.ConstLabels,
		}),

		effectsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Name:        "effects_in_flight",
			Help:        "Number of effect operations currently running",
			ConstLabels: config.ConstLabels,
		}),

		effectsDone: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Name:        "effects_completed_total",
			Help:        "Total number of effect operations that ended, by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		effectDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Name:        "effect_duration_seconds",
			Help:        "Run time of effect operations, by outcome",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"outcome"}),
	}
}

// Hooks returns the lifecycle hooks feeding m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnAction: func(_ context.Context, e *domain.ActionEvent) {
			m.actionsTotal.WithLabelValues(e.Name).Inc()
			m.actionDuration.WithLabelValues(e.Name).Observe(e.Duration.Seconds())
		},
		OnActionDropped: func(_ context.Context, e *domain.ActionEvent) {
			m.actionsDropped.WithLabelValues(e.Reason).Inc()
		},
		OnStateChange: func(_ context.Context, e *domain.StateEvent) {
			m.stateVersion.WithLabelValues(e.StoreID).Set(float64(e.Version))
		},
		OnEffectStart: func(context.Context, *domain.EffectEvent) {
			m.effectsStarted.Inc()
			m.effectsInFlight.Inc()
		},
		OnEffectFinish: func(_ context.Context, e *domain.EffectEvent) {
			m.done(OutcomeFinished, e)
		},
		OnEffectCancel: func(_ context.Context, e *domain.EffectEvent) {
			m.done(OutcomeCancelled, e)
		},
		OnEffectFailure: func(_ context.Context, e *domain.EffectEvent) {
			m.done(OutcomeFailed, e)
		},
	}
}

func (m *Metrics) done(outcome string, e *domain.EffectEvent) {
	m.effectsInFlight.Dec()
	m.effectsDone.WithLabelValues(outcome).Inc()
	m.effectDuration.WithLabelValues(outcome).Observe(e.Duration.Seconds())
}
