package tracing

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const escalationTracerName = "github.com/KasumiMercury/primind-remind-escalation/internal/service/escalation"

func EscalationTracer() trace.Tracer {
	return otel.Tracer(escalationTracerName)
}

func StartRunSpan(ctx context.Context, runID string, now time.Time) (context.Context, trace.Span) {
	return EscalationTracer().Start(ctx, "escalation.run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("run.now", now.Format(time.RFC3339)),
		),
	)
}

func StartTaskEvaluationSpan(ctx context.Context, taskID string) (context.Context, trace.Span) {
	return EscalationTracer().Start(ctx, "escalation.evaluate_task",
		trace.WithAttributes(
			attribute.String("task.id", taskID),
		),
	)
}

func StartExternalAPISpan(ctx context.Context, operation, url string) (context.Context, trace.Span) {
	return EscalationTracer().Start(ctx, "escalation.external_api."+operation,
		trace.WithAttributes(
			attribute.String("url", url),
		),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func RecordTaskEvaluation(span trace.Span, phase string, nextRemindAt *time.Time, notified bool) {
	span.SetAttributes(
		attribute.String("task.phase", phase),
		attribute.Bool("task.notified", notified),
	)
	if nextRemindAt != nil {
		span.SetAttributes(attribute.String("task.next_remind_at", nextRemindAt.Format(time.RFC3339)))
	}
}

func RecordRunResult(span trace.Span, processedCount, notifiedCount, rescheduledCount, failedCount int, err error) {
	span.SetAttributes(
		attribute.Int("run.processed_count", processedCount),
		attribute.Int("run.notified_count", notifiedCount),
		attribute.Int("run.rescheduled_count", rescheduledCount),
		attribute.Int("run.failed_count", failedCount),
	)
	RecordError(span, err)
}

func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
}
