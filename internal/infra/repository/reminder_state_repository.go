package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/KasumiMercury/primind-remind-escalation/internal/domain"
)

const (
	notifiedKeyPrefix = "escalation:notified:"
	runLockKey        = "escalation:run-lock"

	defaultNotifiedTTL = 96 * time.Hour
)

// releaseLockScript deletes the lock only when it still belongs to the caller.
var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type notifiedRecord struct {
	TaskID     string    `json:"task_id"`
	RemindAt   time.Time `json:"remind_at"`
	NotifiedAt time.Time `json:"notified_at"`
}

type reminderStateRepository struct {
	client      *redis.Client
	notifiedTTL time.Duration
}

func NewReminderStateRepository(client *redis.Client, notifiedTTL time.Duration) domain.ReminderStateRepository {
	if notifiedTTL <= 0 {
		notifiedTTL = defaultNotifiedTTL
	}

	return &reminderStateRepository{
		client:      client,
		notifiedTTL: notifiedTTL,
	}
}

func notifiedKey(taskID string, remindAt time.Time) string {
	return notifiedKeyPrefix + domain.NotificationKey(taskID, remindAt)
}

func (r *reminderStateRepository) IsNotified(ctx context.Context, taskID string, remindAt time.Time) (bool, error) {
	if taskID == "" {
		return false, domain.ErrTaskIDMissing
	}

	exists, err := r.client.Exists(ctx, notifiedKey(taskID, remindAt)).Result()
	if err != nil {
		return false, err
	}

	return exists > 0, nil
}

func (r *reminderStateRepository) MarkNotified(ctx context.Context, taskID string, remindAt time.Time) error {
	if taskID == "" {
		return domain.ErrTaskIDMissing
	}

	record := notifiedRecord{
		TaskID:     taskID,
		RemindAt:   remindAt.UTC(),
		NotifiedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	// First mark wins; a retried run must not refresh the TTL.
	return r.client.SetNX(ctx, notifiedKey(taskID, remindAt), data, r.notifiedTTL).Err()
}

func (r *reminderStateRepository) AcquireRunLock(ctx context.Context, runID string, ttl time.Duration) (bool, error) {
	acquired, err := r.client.SetNX(ctx, runLockKey, runID, ttl).Result()
	if err != nil {
		return false, err
	}

	return acquired, nil
}

func (r *reminderStateRepository) ReleaseRunLock(ctx context.Context, runID string) error {
	deleted, err := releaseLockScript.Run(ctx, r.client, []string{runLockKey}, runID).Int()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return ErrRunLockNotHeld
	}

	return nil
}
