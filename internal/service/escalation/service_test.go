package escalation

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/KasumiMercury/primind-remind-escalation/internal/domain"
	"github.com/KasumiMercury/primind-remind-escalation/internal/infra/taskqueue"
	"github.com/KasumiMercury/primind-remind-escalation/internal/observability/metrics"
	"github.com/KasumiMercury/primind-remind-escalation/internal/service/phase"
	"github.com/KasumiMercury/primind-remind-escalation/internal/service/schedule"
)

// Monday 2025-01-06 12:30 UTC.
var testNow = time.Date(2025, 1, 6, 12, 30, 0, 0, time.UTC)

func tp(t time.Time) *time.Time {
	return &t
}

func day(d int, hh int) *time.Time {
	return tp(time.Date(2025, 1, d, hh, 0, 0, 0, time.UTC))
}

type recordingRecorder struct {
	records []domain.EscalationResultRecord
	err     error
}

func (r *recordingRecorder) RecordRunResults(_ context.Context, records []domain.EscalationResultRecord) error {
	r.records = append(r.records, records...)
	return r.err
}

func (r *recordingRecorder) Flush(context.Context) error { return nil }
func (r *recordingRecorder) Close() error                { return nil }

type mocks struct {
	tasks *domain.MockTaskRepository
	state *domain.MockReminderStateRepository
	queue *taskqueue.MockTaskQueue
}

func newTestService(t *testing.T, opts ...Option) (*Service, mocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	m := mocks{
		tasks: domain.NewMockTaskRepository(ctrl),
		state: domain.NewMockReminderStateRepository(ctrl),
		queue: taskqueue.NewMockTaskQueue(ctrl),
	}

	svc := NewService(m.tasks, m.state, m.queue,
		phase.NewClassifier(time.UTC),
		schedule.NewScheduler(time.UTC),
		opts...,
	)

	return svc, m
}

func captureUpdates(m mocks, dst *map[string]domain.ReminderUpdate) {
	m.tasks.EXPECT().SaveReminders(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, updates []domain.ReminderUpdate) error {
			*dst = make(map[string]domain.ReminderUpdate, len(updates))
			for _, u := range updates {
				(*dst)[u.TaskID] = u
			}
			return nil
		},
	)
}

func TestRunMixedTasks(t *testing.T) {
	m, err := metrics.NewEscalationMetrics()
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	recorder := &recordingRecorder{}
	svc, mk := newTestService(t, WithMetrics(m), WithRecorder(recorder))

	tasks := []*domain.Task{
		// Reminder at 12:00 has come due.
		{ID: "due", Title: "Renew cert", DueAt: day(10, 0), Phase: domain.PhaseYellow, NextRemindAt: day(6, 12)},
		// Weekly reminder already on next Monday.
		{ID: "steady", DueAt: tp(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)), Phase: domain.PhaseWhite, NextRemindAt: day(13, 9)},
		// Moved from yellow to red without a due reminder.
		{ID: "escalated", DueAt: day(8, 0), Phase: domain.PhaseYellow, NextRemindAt: day(6, 15)},
		{ID: "done", DueAt: day(8, 0), Completed: true, Phase: domain.PhaseRed, NextRemindAt: day(6, 14)},
		// Due date removed by hand.
		{ID: "undated", Phase: domain.PhaseYellow, NextRemindAt: day(6, 15)},
		{ID: "far", DueAt: tp(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)), Phase: domain.PhaseDormant},
	}

	mk.tasks.EXPECT().ListTasks(gomock.Any()).Return(tasks, nil)
	mk.state.EXPECT().IsNotified(gomock.Any(), "due", *day(6, 12)).Return(false, nil)
	mk.queue.EXPECT().RegisterNotification(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, n *taskqueue.NotificationTask) (*taskqueue.TaskResponse, error) {
			if n.TaskID != "due" || n.Phase != domain.PhaseYellow || !n.RemindAt.Equal(*day(6, 12)) {
				t.Errorf("unexpected notification: %+v", n)
			}
			return &taskqueue.TaskResponse{Name: n.Name()}, nil
		},
	)
	mk.state.EXPECT().MarkNotified(gomock.Any(), "due", *day(6, 12)).Return(nil)

	var saved map[string]domain.ReminderUpdate
	captureUpdates(mk, &saved)

	resp, err := svc.Run(context.Background(), testNow, "run-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.ProcessedCount != 5 || resp.SkippedCount != 1 {
		t.Errorf("expected 5 processed and 1 skipped, got %d and %d", resp.ProcessedCount, resp.SkippedCount)
	}
	if resp.NotifiedCount != 1 {
		t.Errorf("expected 1 notified, got %d", resp.NotifiedCount)
	}
	if resp.TransitionCount != 2 {
		t.Errorf("expected 2 transitions, got %d", resp.TransitionCount)
	}
	if resp.RescheduledCount != 3 {
		t.Errorf("expected 3 rescheduled, got %d", resp.RescheduledCount)
	}
	if resp.FailedCount != 0 {
		t.Errorf("expected no failures, got %d", resp.FailedCount)
	}

	wantCounts := map[domain.Phase]int{
		domain.PhaseYellow:  1,
		domain.PhaseWhite:   1,
		domain.PhaseRed:     1,
		domain.PhaseNone:    1,
		domain.PhaseDormant: 1,
	}
	for p, n := range wantCounts {
		if resp.PhaseCounts[p] != n {
			t.Errorf("phase %s: expected count %d, got %d", p, n, resp.PhaseCounts[p])
		}
	}

	want := map[string]domain.ReminderUpdate{
		"due":       {TaskID: "due", Phase: domain.PhaseYellow, NextRemindAt: day(6, 15)},
		"escalated": {TaskID: "escalated", Phase: domain.PhaseRed, NextRemindAt: day(6, 14)},
		"done":      {TaskID: "done", Phase: domain.PhaseRed, NextRemindAt: nil},
		"undated":   {TaskID: "undated", Phase: domain.PhaseNone, NextRemindAt: nil},
	}
	if len(saved) != len(want) {
		t.Fatalf("expected %d updates, got %d: %+v", len(want), len(saved), saved)
	}
	for id, w := range want {
		got, ok := saved[id]
		if !ok {
			t.Errorf("missing update for %s", id)
			continue
		}
		if got.Phase != w.Phase || !domain.SameInstant(got.NextRemindAt, w.NextRemindAt) {
			t.Errorf("update %s = {%s %v}, want {%s %v}", id, got.Phase, got.NextRemindAt, w.Phase, w.NextRemindAt)
		}
	}

	if len(recorder.records) != 5 {
		t.Errorf("expected 5 per-phase records, got %d", len(recorder.records))
	}
}

func TestRunSkipsAlreadyNotifiedReminder(t *testing.T) {
	svc, mk := newTestService(t)

	task := &domain.Task{ID: "T-1", DueAt: day(10, 0), Phase: domain.PhaseYellow, NextRemindAt: day(6, 12)}
	mk.tasks.EXPECT().ListTasks(gomock.Any()).Return([]*domain.Task{task}, nil)
	mk.state.EXPECT().IsNotified(gomock.Any(), "T-1", *day(6, 12)).Return(true, nil)

	var saved map[string]domain.ReminderUpdate
	captureUpdates(mk, &saved)

	resp, err := svc.Run(context.Background(), testNow, "run-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	item := resp.Results[0]
	if item.Notified || !item.AlreadyNotified {
		t.Errorf("expected duplicate reminder to be suppressed, got %+v", item)
	}
	if !domain.SameInstant(saved["T-1"].NextRemindAt, day(6, 15)) {
		t.Errorf("expected reminder to advance to 15:00, got %v", saved["T-1"].NextRemindAt)
	}
}

func TestRunDedupeErrorStillNotifies(t *testing.T) {
	svc, mk := newTestService(t)

	task := &domain.Task{ID: "T-1", DueAt: day(5, 0), Phase: domain.PhaseOverdue, NextRemindAt: day(6, 9)}
	mk.tasks.EXPECT().ListTasks(gomock.Any()).Return([]*domain.Task{task}, nil)
	mk.state.EXPECT().IsNotified(gomock.Any(), "T-1", *day(6, 9)).Return(false, errors.New("redis down"))
	mk.queue.EXPECT().RegisterNotification(gomock.Any(), gomock.Any()).Return(&taskqueue.TaskResponse{}, nil)
	mk.state.EXPECT().MarkNotified(gomock.Any(), "T-1", *day(6, 9)).Return(errors.New("redis down"))

	var saved map[string]domain.ReminderUpdate
	captureUpdates(mk, &saved)

	resp, err := svc.Run(context.Background(), testNow, "run-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.NotifiedCount != 1 || resp.FailedCount != 0 {
		t.Errorf("expected notification to succeed, got %+v", resp)
	}
	if !domain.SameInstant(saved["T-1"].NextRemindAt, day(7, 9)) {
		t.Errorf("expected next overdue check tomorrow 09:00, got %v", saved["T-1"].NextRemindAt)
	}
}

func TestRunEnqueueFailureKeepsReminder(t *testing.T) {
	svc, mk := newTestService(t)

	tasks := []*domain.Task{
		{ID: "same-phase", DueAt: day(10, 0), Phase: domain.PhaseYellow, NextRemindAt: day(6, 12)},
		{ID: "new-phase", DueAt: day(8, 0), Phase: domain.PhaseYellow, NextRemindAt: day(6, 12)},
	}
	mk.tasks.EXPECT().ListTasks(gomock.Any()).Return(tasks, nil)
	mk.state.EXPECT().IsNotified(gomock.Any(), gomock.Any(), gomock.Any()).Return(false, nil).Times(2)
	mk.queue.EXPECT().RegisterNotification(gomock.Any(), gomock.Any()).Return(nil, errors.New("queue unavailable")).Times(2)

	var saved map[string]domain.ReminderUpdate
	captureUpdates(mk, &saved)

	resp, err := svc.Run(context.Background(), testNow, "run-1")
	if err != nil {
		t.Fatalf("enqueue failures must not fail the run: %v", err)
	}
	if resp.FailedCount != 2 || resp.NotifiedCount != 0 {
		t.Errorf("expected 2 failures and no notifications, got %+v", resp)
	}

	if _, ok := saved["same-phase"]; ok {
		t.Error("expected no update for failed task without phase change")
	}
	update, ok := saved["new-phase"]
	if !ok {
		t.Fatal("expected phase-only update for transitioned task")
	}
	if update.Phase != domain.PhaseRed || !domain.SameInstant(update.NextRemindAt, day(6, 12)) {
		t.Errorf("expected red with the original reminder kept, got %+v", update)
	}
}

func TestRunWithoutTaskQueueReschedules(t *testing.T) {
	ctrl := gomock.NewController(t)
	tasks := domain.NewMockTaskRepository(ctrl)
	state := domain.NewMockReminderStateRepository(ctrl)

	svc := NewService(tasks, state, nil,
		phase.NewClassifier(time.UTC),
		schedule.NewScheduler(time.UTC),
	)

	task := &domain.Task{ID: "T-1", DueAt: day(8, 0), Phase: domain.PhaseRed, NextRemindAt: day(6, 12)}
	tasks.EXPECT().ListTasks(gomock.Any()).Return([]*domain.Task{task}, nil)

	var saved map[string]domain.ReminderUpdate
	captureUpdates(mocks{tasks: tasks}, &saved)

	resp, err := svc.Run(context.Background(), testNow, "run-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.FailedCount != 0 || resp.NotifiedCount != 0 {
		t.Errorf("expected no failures and no notifications, got %+v", resp)
	}

	item := resp.Results[0]
	if !item.Success || item.Error != "" {
		t.Errorf("expected successful evaluation, got %+v", item)
	}
	if item.NextRemindAt == nil || !item.NextRemindAt.After(testNow) {
		t.Errorf("expected reminder after %v, got %v", testNow, item.NextRemindAt)
	}
	if !domain.SameInstant(saved["T-1"].NextRemindAt, day(6, 14)) {
		t.Errorf("expected next red slot at 14:00, got %v", saved["T-1"].NextRemindAt)
	}
}

func TestRunDoesNotNotifyOutsideNotifiablePhases(t *testing.T) {
	svc, mk := newTestService(t)

	tasks := []*domain.Task{
		{ID: "expired", DueAt: tp(time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)), Phase: domain.PhaseWayOverdue, NextRemindAt: day(6, 9)},
		{ID: "dormant", DueAt: tp(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)), Phase: domain.PhaseWhite, NextRemindAt: day(6, 9)},
	}
	mk.tasks.EXPECT().ListTasks(gomock.Any()).Return(tasks, nil)

	var saved map[string]domain.ReminderUpdate
	captureUpdates(mk, &saved)

	resp, err := svc.Run(context.Background(), testNow, "run-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.NotifiedCount != 0 {
		t.Errorf("expected no notifications, got %d", resp.NotifiedCount)
	}
	if saved["expired"].Phase != domain.PhaseExpired || saved["expired"].NextRemindAt != nil {
		t.Errorf("expected expired task to drop its reminder, got %+v", saved["expired"])
	}
	if saved["dormant"].Phase != domain.PhaseDormant || saved["dormant"].NextRemindAt != nil {
		t.Errorf("expected dormant task to drop its reminder, got %+v", saved["dormant"])
	}
}

func TestRunNothingToSave(t *testing.T) {
	svc, mk := newTestService(t)

	tasks := []*domain.Task{
		{ID: "steady", DueAt: tp(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)), Phase: domain.PhaseWhite, NextRemindAt: day(13, 9)},
		{ID: "done", Completed: true, Phase: domain.PhaseRed},
	}
	mk.tasks.EXPECT().ListTasks(gomock.Any()).Return(tasks, nil)
	mk.tasks.EXPECT().SaveReminders(gomock.Any(), gomock.Any()).Times(0)

	resp, err := svc.Run(context.Background(), testNow, "run-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Results[1].SkipReason != skipReasonCompleted {
		t.Errorf("expected completed skip reason, got %q", resp.Results[1].SkipReason)
	}
}

func TestRunListError(t *testing.T) {
	svc, mk := newTestService(t)

	mk.tasks.EXPECT().ListTasks(gomock.Any()).Return(nil, errors.New("sheet unavailable"))

	resp, err := svc.Run(context.Background(), testNow, "run-1")
	if err == nil {
		t.Fatal("expected error")
	}
	if resp != nil {
		t.Errorf("expected nil response, got %+v", resp)
	}
}

func TestRunSaveError(t *testing.T) {
	svc, mk := newTestService(t)

	tasks := []*domain.Task{{ID: "T-1", DueAt: day(8, 0), Phase: domain.PhaseYellow}}
	saveErr := errors.New("quota exceeded")
	mk.tasks.EXPECT().ListTasks(gomock.Any()).Return(tasks, nil)
	mk.tasks.EXPECT().SaveReminders(gomock.Any(), gomock.Any()).Return(saveErr)

	resp, err := svc.Run(context.Background(), testNow, "run-1")
	if !errors.Is(err, saveErr) {
		t.Fatalf("expected save error, got %v", err)
	}
	if resp == nil || resp.ProcessedCount != 1 {
		t.Errorf("expected results to be returned with the error, got %+v", resp)
	}
}

func TestRunLock(t *testing.T) {
	t.Run("held by another run", func(t *testing.T) {
		svc, mk := newTestService(t, WithRunLock(time.Minute))
		mk.state.EXPECT().AcquireRunLock(gomock.Any(), "run-2", time.Minute).Return(false, nil)

		_, err := svc.Run(context.Background(), testNow, "run-2")
		if !errors.Is(err, ErrRunInProgress) {
			t.Fatalf("expected ErrRunInProgress, got %v", err)
		}
	})

	t.Run("acquired and released", func(t *testing.T) {
		svc, mk := newTestService(t, WithRunLock(time.Minute))
		gomock.InOrder(
			mk.state.EXPECT().AcquireRunLock(gomock.Any(), "run-1", time.Minute).Return(true, nil),
			mk.tasks.EXPECT().ListTasks(gomock.Any()).Return(nil, nil),
			mk.state.EXPECT().ReleaseRunLock(gomock.Any(), "run-1").Return(nil),
		)

		if _, err := svc.Run(context.Background(), testNow, "run-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("lock store failure does not block", func(t *testing.T) {
		svc, mk := newTestService(t, WithRunLock(time.Minute))
		mk.state.EXPECT().AcquireRunLock(gomock.Any(), "run-1", time.Minute).Return(false, errors.New("redis down"))
		mk.tasks.EXPECT().ListTasks(gomock.Any()).Return(nil, nil)

		if _, err := svc.Run(context.Background(), testNow, "run-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

func TestEvaluate(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name    string
		dueAt   *time.Time
		phase   domain.Phase
		next    *time.Time
		expired bool
		daysOut *int
	}{
		{name: "no due date", dueAt: nil, phase: domain.PhaseNone},
		{name: "red today", dueAt: day(6, 23), phase: domain.PhaseRed, next: day(6, 14), daysOut: intPtr(0)},
		{name: "yellow", dueAt: day(10, 0), phase: domain.PhaseYellow, next: day(6, 15), daysOut: intPtr(4)},
		{name: "way overdue", dueAt: tp(time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)), phase: domain.PhaseWayOverdue, next: day(9, 9), daysOut: intPtr(-17)},
		{name: "expired", dueAt: tp(time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)), phase: domain.PhaseExpired, expired: true, daysOut: intPtr(-36)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.Evaluate(testNow, tt.dueAt)
			if got.Phase != tt.phase {
				t.Errorf("phase = %s, want %s", got.Phase, tt.phase)
			}
			if !domain.SameInstant(got.NextRemindAt, tt.next) {
				t.Errorf("next = %v, want %v", got.NextRemindAt, tt.next)
			}
			if got.Expired != tt.expired {
				t.Errorf("expired = %v, want %v", got.Expired, tt.expired)
			}
			if (got.DaysOut == nil) != (tt.daysOut == nil) || (got.DaysOut != nil && *got.DaysOut != *tt.daysOut) {
				t.Errorf("days out = %v, want %v", got.DaysOut, tt.daysOut)
			}
		})
	}
}

func intPtr(n int) *int {
	return &n
}

func TestResultRecords(t *testing.T) {
	resp := newResponse("run-9", testNow, 4)
	resp.add(ResultItem{TaskID: "a", Phase: domain.PhaseRed, Notified: true, Rescheduled: true, Success: true})
	resp.add(ResultItem{TaskID: "b", Phase: domain.PhaseRed, Transitioned: true, Success: false})
	resp.add(ResultItem{TaskID: "c", Phase: domain.PhaseGreen, Success: true})
	resp.add(ResultItem{TaskID: "d", Phase: domain.PhaseRed, Skipped: true, SkipReason: skipReasonCompleted, Success: true})

	records := resp.ResultRecords()
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	green, red := records[0], records[1]
	if green.Phase != "green" || green.TaskCount != 1 {
		t.Errorf("unexpected green record: %+v", green)
	}
	if red.Phase != "red" || red.TaskCount != 2 || red.NotifiedCount != 1 || red.RescheduledCount != 1 || red.TransitionCount != 1 || red.FailedCount != 1 {
		t.Errorf("unexpected red record: %+v", red)
	}
	if red.RunID != "run-9" || !red.EvaluatedAt.Equal(testNow) {
		t.Errorf("expected run metadata on record, got %+v", red)
	}
	if resp.SkippedCount != 1 || resp.ProcessedCount != 3 || resp.FailedCount != 1 {
		t.Errorf("unexpected totals: %+v", resp)
	}
}
