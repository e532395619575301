package domain

import (
	"context"
	"time"
)

//go:generate mockgen -source=reminder_state_repository.go -destination=reminder_state_repository_mock.go -package=domain

type ReminderStateRepository interface {
	IsNotified(ctx context.Context, taskID string, remindAt time.Time) (bool, error)
	MarkNotified(ctx context.Context, taskID string, remindAt time.Time) error
	AcquireRunLock(ctx context.Context, runID string, ttl time.Duration) (bool, error)
	ReleaseRunLock(ctx context.Context, runID string) error
}
