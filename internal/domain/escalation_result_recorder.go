package domain

import (
	"context"
	"time"
)

type EscalationResultRecord struct {
	RunID            string
	EvaluatedAt      time.Time
	Phase            string
	TaskCount        int
	NotifiedCount    int
	RescheduledCount int
	TransitionCount  int
	FailedCount      int
}

type EscalationResultRecorder interface {
	RecordRunResults(ctx context.Context, records []EscalationResultRecord) error
	Flush(ctx context.Context) error
	Close() error
}
