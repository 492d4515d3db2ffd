package observability

import (
	"context"

	"github.com/aretw0/trawler/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trawler"

// Outcome label values beyond domain.Outcome.
const (
	OutcomeSkipped = "skipped"
	OutcomeError   = "error"
)

// Metrics holds the Prometheus collectors fed by lifecycle events.
type Metrics struct {
	actions        *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	tasks          *prometheus.CounterVec
	workflows      *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		actions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Actions executed, by kind and outcome (succeeded, failed, skipped, error).",
			},
			[]string{"kind", "outcome"},
		),
		actionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "action_duration_seconds",
				Help:      "Duration of executed actions.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		tasks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tasks_total",
				Help:      "Tasks finished, by status (completed, aborted).",
			},
			[]string{"status"},
		),
		workflows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflows_total",
				Help:      "Workflows finished, by status (completed, halted).",
			},
			[]string{"status"},
		),
	}
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnActionEnd: func(_ context.Context, e *domain.ActionEvent) {
			kind := string(e.Kind)
			switch {
			case e.Skipped:
				m.actions.WithLabelValues(kind, OutcomeSkipped).Inc()
				return
			case e.Outcome != "":
				m.actions.WithLabelValues(kind, string(e.Outcome)).Inc()
			default:
				m.actions.WithLabelValues(kind, OutcomeError).Inc()
			}
			m.actionDuration.WithLabelValues(kind).Observe(e.Duration.Seconds())
		},
		OnTaskEnd: func(_ context.Context, e *domain.TaskEvent) {
			status := "completed"
			if e.Err != nil {
				status = "aborted"
			}
			m.tasks.WithLabelValues(status).Inc()
		},
		OnWorkflowEnd: func(_ context.Context, e *domain.WorkflowEvent) {
			status := "completed"
			if e.Halted {
				status = "halted"
			}
			m.workflows.WithLabelValues(status).Inc()
		},
	}
}
