package escalation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/KasumiMercury/primind-remind-escalation/internal/domain"
	"github.com/KasumiMercury/primind-remind-escalation/internal/infra/taskqueue"
	"github.com/KasumiMercury/primind-remind-escalation/internal/observability/metrics"
	"github.com/KasumiMercury/primind-remind-escalation/internal/observability/tracing"
	"github.com/KasumiMercury/primind-remind-escalation/internal/service/phase"
	"github.com/KasumiMercury/primind-remind-escalation/internal/service/schedule"
)

type Service struct {
	taskRepo          domain.TaskRepository
	stateRepo         domain.ReminderStateRepository
	taskQueue         taskqueue.TaskQueue
	recorder          domain.EscalationResultRecorder
	classifier        *phase.Classifier
	scheduler         *schedule.Scheduler
	escalationMetrics *metrics.EscalationMetrics
	runLockTTL        time.Duration
}

type Option func(*Service)

// WithRunLock serializes runs through the state repository.
func WithRunLock(ttl time.Duration) Option {
	return func(s *Service) {
		s.runLockTTL = ttl
	}
}

func WithRecorder(recorder domain.EscalationResultRecorder) Option {
	return func(s *Service) {
		s.recorder = recorder
	}
}

func WithMetrics(m *metrics.EscalationMetrics) Option {
	return func(s *Service) {
		s.escalationMetrics = m
	}
}

func NewService(
	taskRepo domain.TaskRepository,
	stateRepo domain.ReminderStateRepository,
	taskQueue taskqueue.TaskQueue,
	classifier *phase.Classifier,
	scheduler *schedule.Scheduler,
	opts ...Option,
) *Service {
	s := &Service{
		taskRepo:   taskRepo,
		stateRepo:  stateRepo,
		taskQueue:  taskQueue,
		classifier: classifier,
		scheduler:  scheduler,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate classifies a single due date without touching any store.
func (s *Service) Evaluate(now time.Time, dueAt *time.Time) Evaluation {
	p := s.classifier.Classify(now, dueAt)

	eval := Evaluation{
		Phase:        p,
		NextRemindAt: s.scheduler.NextRemindAtPtr(p, now),
		Expired:      p == domain.PhaseExpired,
	}
	if days, ok := s.classifier.DaysOut(now, dueAt); ok {
		eval.DaysOut = &days
	}

	return eval
}

// Run evaluates every task at now, enqueues the reminders that have come due
// and writes the new phase and next reminder back in one batch.
func (s *Service) Run(ctx context.Context, now time.Time, runID string) (resp *Response, err error) {
	started := time.Now()

	ctx, span := tracing.StartRunSpan(ctx, runID, now)
	defer func() {
		if resp != nil {
			tracing.RecordRunResult(span, resp.ProcessedCount, resp.NotifiedCount, resp.RescheduledCount, resp.FailedCount, err)
		} else {
			tracing.RecordError(span, err)
		}
		span.End()

		if s.escalationMetrics != nil {
			s.escalationMetrics.RecordRunDuration(ctx, time.Since(started))
		}
	}()

	release, err := s.acquireRunLock(ctx, runID)
	if err != nil {
		return nil, err
	}
	defer release()

	tasks, err := s.taskRepo.ListTasks(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list tasks",
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	slog.InfoContext(ctx, "escalation run started",
		slog.String("run_id", runID),
		slog.Time("now", now),
		slog.Int("task_count", len(tasks)),
	)

	resp = newResponse(runID, now, len(tasks))
	updates := make([]domain.ReminderUpdate, 0, len(tasks))

	for _, task := range tasks {
		item, update := s.evaluateTask(ctx, now, task)
		resp.add(item)
		if update != nil {
			updates = append(updates, *update)
		}
	}

	if len(updates) > 0 {
		if err := s.taskRepo.SaveReminders(ctx, updates); err != nil {
			slog.ErrorContext(ctx, "failed to save reminder updates",
				slog.Int("update_count", len(updates)),
				slog.String("error", err.Error()),
			)
			return resp, fmt.Errorf("failed to save reminder updates: %w", err)
		}
		if s.escalationMetrics != nil {
			s.escalationMetrics.RecordRemindersUpdated(ctx, len(updates))
		}
	}

	s.recordResults(ctx, resp)

	slog.InfoContext(ctx, "escalation run completed",
		slog.String("run_id", runID),
		slog.Int("processed_count", resp.ProcessedCount),
		slog.Int("notified_count", resp.NotifiedCount),
		slog.Int("rescheduled_count", resp.RescheduledCount),
		slog.Int("transition_count", resp.TransitionCount),
		slog.Int("skipped_count", resp.SkippedCount),
		slog.Int("failed_count", resp.FailedCount),
	)

	return resp, nil
}

func (s *Service) acquireRunLock(ctx context.Context, runID string) (func(), error) {
	noop := func() {}
	if s.stateRepo == nil || s.runLockTTL <= 0 {
		return noop, nil
	}

	acquired, err := s.stateRepo.AcquireRunLock(ctx, runID, s.runLockTTL)
	if err != nil {
		// Notification dedupe still guards against double sends.
		slog.WarnContext(ctx, "failed to acquire run lock, continuing without it",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
		return noop, nil
	}
	if !acquired {
		slog.WarnContext(ctx, "escalation run rejected, lock held by another run",
			slog.String("run_id", runID),
		)
		return nil, ErrRunInProgress
	}

	return func() {
		if err := s.stateRepo.ReleaseRunLock(context.WithoutCancel(ctx), runID); err != nil {
			slog.WarnContext(ctx, "failed to release run lock",
				slog.String("run_id", runID),
				slog.String("error", err.Error()),
			)
		}
	}, nil
}

func (s *Service) evaluateTask(ctx context.Context, now time.Time, task *domain.Task) (ResultItem, *domain.ReminderUpdate) {
	ctx, span := tracing.StartTaskEvaluationSpan(ctx, task.ID)
	defer span.End()

	item := ResultItem{
		TaskID:        task.ID,
		Title:         task.Title,
		PreviousPhase: task.Phase,
		Phase:         task.Phase,
		DueAt:         task.DueAt,
		RemindAt:      task.NextRemindAt,
		Success:       true,
	}

	if task.Completed {
		item.Skipped = true
		item.SkipReason = skipReasonCompleted
		item.NextRemindAt = nil

		// A finished task keeps its last phase but must not be reminded again.
		if task.NextRemindAt != nil {
			update := domain.NewReminderUpdate(task.ID, task.Phase, nil)
			return item, &update
		}
		return item, nil
	}

	current := s.classifier.Classify(now, task.DueAt)
	item.Phase = current

	if s.escalationMetrics != nil {
		s.escalationMetrics.RecordTaskEvaluated(ctx, current.String())
	}

	if current != task.Phase {
		item.Transitioned = true
		if s.escalationMetrics != nil {
			s.escalationMetrics.RecordPhaseTransition(ctx, task.Phase.String(), current.String())
		}
		slog.InfoContext(ctx, "task changed phase",
			slog.String("task_id", task.ID),
			slog.String("from", task.Phase.String()),
			slog.String("to", current.String()),
		)
	}

	if task.IsReminderDue(now) && current.IsNotifiable() {
		if err := s.notify(ctx, task, current, *task.NextRemindAt, &item); err != nil {
			item.Success = false
			item.Error = err.Error()
			tracing.RecordError(span, err)

			// Keep the due reminder in place so the next run retries it.
			item.NextRemindAt = task.NextRemindAt
			tracing.RecordTaskEvaluation(span, current.String(), item.NextRemindAt, false)
			if current != task.Phase {
				update := domain.NewReminderUpdate(task.ID, current, task.NextRemindAt)
				return item, &update
			}
			return item, nil
		}
	}

	next := s.scheduler.NextRemindAtPtr(current, now)
	item.NextRemindAt = next
	tracing.RecordTaskEvaluation(span, current.String(), next, item.Notified)

	if !domain.SameInstant(next, task.NextRemindAt) {
		item.Rescheduled = true
	}
	if item.Rescheduled || item.Transitioned {
		update := domain.NewReminderUpdate(task.ID, current, next)
		return item, &update
	}

	return item, nil
}

// notify enqueues the reminder scheduled at remindAt unless it was already sent.
// Without a task queue the reminder is dropped and the task is rescheduled.
func (s *Service) notify(ctx context.Context, task *domain.Task, current domain.Phase, remindAt time.Time, item *ResultItem) error {
	if s.taskQueue == nil {
		slog.WarnContext(ctx, "task queue not configured, skipping queue registration",
			slog.String("task_id", task.ID),
			slog.String("phase", current.String()),
			slog.Time("remind_at", remindAt),
		)
		if s.escalationMetrics != nil {
			s.escalationMetrics.RecordNotification(ctx, current.String(), notificationOutcomeDisabled)
		}
		return nil
	}

	if s.stateRepo != nil {
		notified, err := s.stateRepo.IsNotified(ctx, task.ID, remindAt)
		if err != nil {
			slog.WarnContext(ctx, "failed to check notification status",
				slog.String("task_id", task.ID),
				slog.String("error", err.Error()),
			)
			// Continue processing - treat as not notified
		} else if notified {
			slog.DebugContext(ctx, "reminder already notified",
				slog.String("task_id", task.ID),
				slog.Time("remind_at", remindAt),
			)
			item.AlreadyNotified = true
			if s.escalationMetrics != nil {
				s.escalationMetrics.RecordNotification(ctx, current.String(), notificationOutcomeDuplicate)
			}
			return nil
		}
	}

	notification := taskqueue.NewNotificationTask(task, current, remindAt)
	resp, err := s.taskQueue.RegisterNotification(ctx, notification)
	if err != nil {
		slog.ErrorContext(ctx, "failed to register notification",
			slog.String("task_id", task.ID),
			slog.String("phase", current.String()),
			slog.String("error", err.Error()),
		)
		if s.escalationMetrics != nil {
			s.escalationMetrics.RecordNotification(ctx, current.String(), notificationOutcomeFailed)
		}
		return fmt.Errorf("failed to register notification for task %s: %w", task.ID, err)
	}

	item.Notified = true
	if s.escalationMetrics != nil {
		s.escalationMetrics.RecordNotification(ctx, current.String(), notificationOutcomeSent)
	}

	taskName := notification.Name()
	if resp != nil && resp.Name != "" {
		taskName = resp.Name
	}
	slog.InfoContext(ctx, "reminder notification registered",
		slog.String("task_id", task.ID),
		slog.String("phase", current.String()),
		slog.Time("remind_at", remindAt),
		slog.String("queue_task", taskName),
	)

	if s.stateRepo != nil {
		if err := s.stateRepo.MarkNotified(ctx, task.ID, remindAt); err != nil {
			slog.WarnContext(ctx, "failed to mark reminder notified",
				slog.String("task_id", task.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

func (s *Service) recordResults(ctx context.Context, resp *Response) {
	if s.recorder == nil {
		return
	}

	if err := s.recorder.RecordRunResults(ctx, resp.ResultRecords()); err != nil {
		slog.WarnContext(ctx, "failed to record escalation results",
			slog.String("run_id", resp.RunID),
			slog.String("error", err.Error()),
		)
	}
}
