package domain

import (
	"strconv"
	"time"
)

// Task is a row of the operations datastore that carries a due date.
type Task struct {
	ID           string
	Title        string
	Assignee     string
	DueAt        *time.Time
	Completed    bool
	Phase        Phase
	NextRemindAt *time.Time
}

// IsReminderDue reports whether the stored reminder instant has been reached.
func (t *Task) IsReminderDue(now time.Time) bool {
	if t.NextRemindAt == nil {
		return false
	}
	return !now.Before(*t.NextRemindAt)
}

// ReminderUpdate is the evaluated state written back to a task row.
type ReminderUpdate struct {
	TaskID       string
	Phase        Phase
	NextRemindAt *time.Time
}

func NewReminderUpdate(taskID string, phase Phase, nextRemindAt *time.Time) ReminderUpdate {
	return ReminderUpdate{
		TaskID:       taskID,
		Phase:        phase,
		NextRemindAt: nextRemindAt,
	}
}

// NotificationKey identifies one scheduled reminder of a task.
func NotificationKey(taskID string, remindAt time.Time) string {
	return taskID + ":" + strconv.FormatInt(remindAt.UTC().Unix(), 10)
}

// SameInstant compares two optional instants.
func SameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
