package escalationrecorder

import (
	"context"

	"github.com/KasumiMercury/primind-remind-escalation/internal/domain"
)

type noopRecorder struct{}

func NewNoopRecorder() domain.EscalationResultRecorder {
	return &noopRecorder{}
}

func (n *noopRecorder) RecordRunResults(_ context.Context, _ []domain.EscalationResultRecord) error {
	return nil
}

func (n *noopRecorder) Flush(_ context.Context) error {
	return nil
}

func (n *noopRecorder) Close() error {
	return nil
}
