package observability

import (
	"context"
	"fmt"

	"github.com/aretw0/statecraft/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Action results used as the "result" label of statecraft_actions_total.
const (
	ResultAccepted = "accepted"
	ResultRejected = "rejected"
)

// Metrics holds the Prometheus collectors for engine activity.
type Metrics struct {
	DefinitionsCreated prometheus.Counter
	InstancesCreated   prometheus.Counter
	InstancesCompleted prometheus.Counter
	Actions            *prometheus.CounterVec
	ActionDuration     *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		DefinitionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statecraft_definitions_created_total",
			Help: "Total number of workflow definitions created",
		}),
		InstancesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statecraft_instances_created_total",
			Help: "Total number of workflow instances created",
		}),
		InstancesCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "statecraft_instances_completed_total",
			Help: "Total number of workflow instances that reached a final state",
		}),
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statecraft_actions_total",
				Help: "Total number of action executions by result",
			},
			[]string{"result"},
		),
		ActionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "statecraft_action_duration_seconds",
				Help:    "Duration of action executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
	}

	for _, c := range []prometheus.Collector{
		m.DefinitionsCreated, m.InstancesCreated, m.InstancesCompleted, m.Actions, m.ActionDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record engine events.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnDefinitionCreated: func(context.Context, *domain.DefinitionEvent) {
			m.DefinitionsCreated.Inc()
		},
		OnInstanceCreated: func(context.Context, *domain.InstanceEvent) {
			m.InstancesCreated.Inc()
		},
		OnActionExecuted: func(_ context.Context, e *domain.ActionEvent) {
			m.Actions.WithLabelValues(ResultAccepted).Inc()
			m.ActionDuration.WithLabelValues(ResultAccepted).Observe(e.Duration.Seconds())
			if e.Completed {
				m.InstancesCompleted.Inc()
			}
		},
		OnActionRejected: func(_ context.Context, e *domain.ActionEvent) {
			m.Actions.WithLabelValues(ResultRejected).Inc()
			m.ActionDuration.WithLabelValues(ResultRejected).Observe(e.Duration.Seconds())
		},
	}
}
