package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	escalationMeterName = "escalation.service"
)

type EscalationMetrics struct {
	tasksEvaluated   metric.Int64Counter
	phaseTransitions metric.Int64Counter
	notifications    metric.Int64Counter
	remindersUpdated metric.Int64Counter
	runDuration      metric.Float64Histogram
}

func NewEscalationMetrics() (*EscalationMetrics, error) {
	meter := otel.Meter(escalationMeterName)

	tasksEvaluated, err := meter.Int64Counter(
		"escalation_tasks_evaluated_total",
		metric.WithDescription("Tasks evaluated, by resulting phase"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, err
	}

	phaseTransitions, err := meter.Int64Counter(
		"escalation_phase_transitions_total",
		metric.WithDescription("Tasks whose phase changed since the previous evaluation"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, err
	}

	notifications, err := meter.Int64Counter(
		"escalation_notifications_total",
		metric.WithDescription("Reminder notifications handed to the task queue"),
		metric.WithUnit("{notification}"),
	)
	if err != nil {
		return nil, err
	}

	remindersUpdated, err := meter.Int64Counter(
		"escalation_reminders_updated_total",
		metric.WithDescription("Task rows whose phase or next reminder was rewritten"),
		metric.WithUnit("{task}"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Histogram(
		"escalation_run_duration_seconds",
		metric.WithDescription("Escalation run duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(
			0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
		),
	)
	if err != nil {
		return nil, err
	}

	return &EscalationMetrics{
		tasksEvaluated:   tasksEvaluated,
		phaseTransitions: phaseTransitions,
		notifications:    notifications,
		remindersUpdated: remindersUpdated,
		runDuration:      runDuration,
	}, nil
}

func (m *EscalationMetrics) RecordTaskEvaluated(ctx context.Context, phase string) {
	m.tasksEvaluated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("phase", phase),
	))
}

func (m *EscalationMetrics) RecordPhaseTransition(ctx context.Context, from, to string) {
	m.phaseTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

func (m *EscalationMetrics) RecordNotification(ctx context.Context, phase, outcome string) {
	m.notifications.Add(ctx, 1, metric.WithAttributes(
		attribute.String("phase", phase),
		attribute.String("outcome", outcome),
	))
}

func (m *EscalationMetrics) RecordRemindersUpdated(ctx context.Context, count int) {
	m.remindersUpdated.Add(ctx, int64(count))
}

func (m *EscalationMetrics) RecordRunDuration(ctx context.Context, duration time.Duration) {
	m.runDuration.Record(ctx, duration.Seconds())
}
