//go:build gcloud

package escalationrecorder

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/KasumiMercury/primind-remind-escalation/internal/domain"
)

type bigQueryRecord struct {
	RecordedAt       time.Time `bigquery:"recorded_at"`
	EvaluatedAt      time.Time `bigquery:"evaluated_at"`
	RunID            string    `bigquery:"run_id"`
	Phase            string    `bigquery:"phase"`
	TaskCount        int64     `bigquery:"task_count"`
	NotifiedCount    int64     `bigquery:"notified_count"`
	RescheduledCount int64     `bigquery:"rescheduled_count"`
	TransitionCount  int64     `bigquery:"transition_count"`
	FailedCount      int64     `bigquery:"failed_count"`
}

type bigQueryRecorder struct {
	client   *bigquery.Client
	inserter *bigquery.Inserter
}

func NewRecorder(ctx context.Context, cfg *Config) (domain.EscalationResultRecorder, error) {
	if cfg.Disabled {
		slog.InfoContext(ctx, "escalation result recording disabled")
		return NewNoopRecorder(), nil
	}

	if cfg.BigQueryProjectID == "" {
		slog.WarnContext(ctx, "BigQuery project ID not configured, escalation result recording disabled")
		return NewNoopRecorder(), nil
	}

	client, err := bigquery.NewClient(ctx, cfg.BigQueryProjectID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to create BigQuery client, escalation result recording disabled",
			slog.String("error", err.Error()),
			slog.String("project_id", cfg.BigQueryProjectID),
		)
		return NewNoopRecorder(), nil
	}

	inserter := client.Dataset(cfg.BigQueryDataset).Table(cfg.BigQueryTable).Inserter()

	slog.InfoContext(ctx, "escalation result recorder initialized",
		slog.String("type", "bigquery"),
		slog.String("project_id", cfg.BigQueryProjectID),
		slog.String("dataset", cfg.BigQueryDataset),
		slog.String("table", cfg.BigQueryTable),
	)

	return &bigQueryRecorder{
		client:   client,
		inserter: inserter,
	}, nil
}

func (r *bigQueryRecorder) RecordRunResults(ctx context.Context, records []domain.EscalationResultRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]*bigQueryRecord, 0, len(records))
	for _, record := range records {
		rows = append(rows, &bigQueryRecord{
			RecordedAt:       now,
			EvaluatedAt:      record.EvaluatedAt,
			RunID:            record.RunID,
			Phase:            record.Phase,
			TaskCount:        int64(record.TaskCount),
			NotifiedCount:    int64(record.NotifiedCount),
			RescheduledCount: int64(record.RescheduledCount),
			TransitionCount:  int64(record.TransitionCount),
			FailedCount:      int64(record.FailedCount),
		})
	}

	if err := r.inserter.Put(ctx, rows); err != nil {
		slog.WarnContext(ctx, "failed to insert escalation results to BigQuery",
			slog.String("error", err.Error()),
			slog.Int("record_count", len(records)),
		)
	}

	return nil
}

func (r *bigQueryRecorder) Flush(ctx context.Context) error {
	return nil
}

func (r *bigQueryRecorder) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
