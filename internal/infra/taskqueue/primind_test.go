//go:build !gcloud

package taskqueue

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KasumiMercury/primind-remind-escalation/internal/domain"
)

func newTestNotification() *NotificationTask {
	due := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	task := &domain.Task{ID: "row-7", Title: "Submit report", Assignee: "ops", DueAt: &due}
	return NewNotificationTask(task, domain.PhaseYellow, time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC))
}

func TestPrimindRegisterNotification(t *testing.T) {
	var got PrimindTaskRequest
	var path string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(PrimindTaskResponse{
			Name:         "tasks/" + got.Task.Name,
			ScheduleTime: got.Task.ScheduleTime,
			CreateTime:   "2025-01-06T08:00:00Z",
		})
	}))
	defer srv.Close()

	client := NewPrimindTasksClient(srv.URL+"/", "reminders", 1)
	resp, err := client.RegisterNotification(context.Background(), newTestNotification())
	require.NoError(t, err)

	assert.Equal(t, "/tasks/reminders", path)
	assert.Equal(t, "escalation-row-7-1736154000", got.Task.Name)
	assert.Equal(t, "2025-01-06T09:00:00Z", got.Task.ScheduleTime)
	assert.Equal(t, "tasks/escalation-row-7-1736154000", resp.Name)
	assert.True(t, resp.ScheduleTime.Equal(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)))

	body, err := base64.StdEncoding.DecodeString(got.Task.HTTPRequest.Body)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "row-7", payload["task_id"])
	assert.Equal(t, "yellow", payload["phase"])
	assert.Equal(t, "Submit report", payload["title"])
}

func TestPrimindRegisterNotificationConflictIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	client := NewPrimindTasksClient(srv.URL, "default", 1)
	n := newTestNotification()
	resp, err := client.RegisterNotification(context.Background(), n)
	require.NoError(t, err)
	assert.Equal(t, n.Name(), resp.Name)
}

func TestPrimindRegisterNotificationRetries(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(PrimindTaskResponse{Name: "ok"})
	}))
	defer srv.Close()

	client := NewPrimindTasksClient(srv.URL, "default", 3)
	resp, err := client.RegisterNotification(context.Background(), newTestNotification())
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Name)
	assert.Equal(t, int32(3), calls.Load())
}

func TestPrimindRegisterNotificationExhaustsRetries(t *testing.T) {
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewPrimindTasksClient(srv.URL, "default", 2)
	_, err := client.RegisterNotification(context.Background(), newTestNotification())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 retries")
	assert.Equal(t, int32(2), calls.Load())
}

func TestNotificationTaskName(t *testing.T) {
	tests := []struct {
		name     string
		taskID   string
		expected string
	}{
		{name: "plain id", taskID: "T-100", expected: "escalation-T-100-1736154000"},
		{name: "unsafe characters replaced", taskID: "sheet:row 4/a", expected: "escalation-sheet_row_4_a-1736154000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := &NotificationTask{TaskID: tt.taskID, RemindAt: time.Date(2025, 1, 6, 18, 0, 0, 0, time.FixedZone("JST", 9*60*60))}
			if got := n.Name(); got != tt.expected {
				t.Errorf("Name() = %q, want %q", got, tt.expected)
			}
		})
	}
}
