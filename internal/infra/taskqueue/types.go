package taskqueue

import (
	"strconv"
	"strings"
	"time"

	"github.com/KasumiMercury/primind-remind-escalation/internal/domain"
)

// NotificationTask is the payload delivered to the notification worker.
type NotificationTask struct {
	// ScheduleAt is when the queue should dispatch the task. A reminder that
	// is already past due is dispatched immediately.
	ScheduleAt time.Time `json:"-"`

	TaskID   string       `json:"task_id"`
	Title    string       `json:"title"`
	Assignee string       `json:"assignee,omitempty"`
	Phase    domain.Phase `json:"phase"`
	DueAt    *time.Time   `json:"due_at,omitempty"`
	RemindAt time.Time    `json:"remind_at"`
}

func NewNotificationTask(task *domain.Task, phase domain.Phase, remindAt time.Time) *NotificationTask {
	return &NotificationTask{
		ScheduleAt: remindAt,
		TaskID:     task.ID,
		Title:      task.Title,
		Assignee:   task.Assignee,
		Phase:      phase,
		DueAt:      task.DueAt,
		RemindAt:   remindAt,
	}
}

// Name returns a queue-safe identifier that is stable per task and reminder
// instant, so re-enqueueing the same reminder collides instead of duplicating.
func (t *NotificationTask) Name() string {
	id := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, t.TaskID)

	return "escalation-" + id + "-" + strconv.FormatInt(t.RemindAt.UTC().Unix(), 10)
}

type TaskResponse struct {
	Name         string    `json:"name"`
	ScheduleTime time.Time `json:"schedule_time"`
	CreateTime   time.Time `json:"create_time"`
}

type PrimindTaskRequest struct {
	Task PrimindTask `json:"task"`
}

type PrimindTask struct {
	Name         string             `json:"name,omitempty"`
	HTTPRequest  PrimindHTTPRequest `json:"httpRequest"`
	ScheduleTime string             `json:"scheduleTime,omitempty"`
}

type PrimindHTTPRequest struct {
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers,omitempty"`
}

type PrimindTaskResponse struct {
	Name         string `json:"name"`
	ScheduleTime string `json:"scheduleTime"`
	CreateTime   string `json:"createTime"`
}
