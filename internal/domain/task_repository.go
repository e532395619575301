package domain

import "context"

//go:generate mockgen -source=task_repository.go -destination=task_repository_mock.go -package=domain

type TaskRepository interface {
	ListTasks(ctx context.Context) ([]*Task, error)
	SaveReminders(ctx context.Context, updates []ReminderUpdate) error
}
