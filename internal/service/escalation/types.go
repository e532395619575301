package escalation

import (
	"sort"
	"time"

	"github.com/KasumiMercury/primind-remind-escalation/internal/domain"
)

const (
	skipReasonCompleted = "completed"

	notificationOutcomeSent      = "sent"
	notificationOutcomeFailed    = "failed"
	notificationOutcomeDuplicate = "duplicate"
	notificationOutcomeDisabled  = "disabled"
)

type ResultItem struct {
	TaskID          string       `json:"task_id"`
	Title           string       `json:"title,omitempty"`
	PreviousPhase   domain.Phase `json:"previous_phase"`
	Phase           domain.Phase `json:"phase"`
	Transitioned    bool         `json:"transitioned"`
	DueAt           *time.Time   `json:"due_at,omitempty"`
	RemindAt        *time.Time   `json:"remind_at,omitempty"`
	NextRemindAt    *time.Time   `json:"next_remind_at,omitempty"`
	Notified        bool         `json:"notified"`
	AlreadyNotified bool         `json:"already_notified,omitempty"`
	Rescheduled     bool         `json:"rescheduled"`
	Skipped         bool         `json:"skipped"`
	SkipReason      string       `json:"skip_reason,omitempty"`
	Success         bool         `json:"success"`
	Error           string       `json:"error,omitempty"`
}

type Response struct {
	RunID            string               `json:"run_id"`
	EvaluatedAt      time.Time            `json:"evaluated_at"`
	ProcessedCount   int                  `json:"processed_count"`
	NotifiedCount    int                  `json:"notified_count"`
	RescheduledCount int                  `json:"rescheduled_count"`
	TransitionCount  int                  `json:"transition_count"`
	SkippedCount     int                  `json:"skipped_count"`
	FailedCount      int                  `json:"failed_count"`
	PhaseCounts      map[domain.Phase]int `json:"phase_counts"`
	Results          []ResultItem         `json:"results"`
}

func newResponse(runID string, now time.Time, capacity int) *Response {
	return &Response{
		RunID:       runID,
		EvaluatedAt: now,
		PhaseCounts: make(map[domain.Phase]int),
		Results:     make([]ResultItem, 0, capacity),
	}
}

func (r *Response) add(item ResultItem) {
	r.Results = append(r.Results, item)

	if item.Skipped {
		r.SkippedCount++
		return
	}

	r.ProcessedCount++
	r.PhaseCounts[item.Phase]++
	if item.Transitioned {
		r.TransitionCount++
	}
	if item.Notified {
		r.NotifiedCount++
	}
	if item.Rescheduled {
		r.RescheduledCount++
	}
	if !item.Success {
		r.FailedCount++
	}
}

// ResultRecords aggregates the run into one row per phase seen.
func (r *Response) ResultRecords() []domain.EscalationResultRecord {
	byPhase := make(map[domain.Phase]*domain.EscalationResultRecord)

	for _, item := range r.Results {
		if item.Skipped {
			continue
		}

		rec, ok := byPhase[item.Phase]
		if !ok {
			rec = &domain.EscalationResultRecord{
				RunID:       r.RunID,
				EvaluatedAt: r.EvaluatedAt,
				Phase:       item.Phase.String(),
			}
			byPhase[item.Phase] = rec
		}

		rec.TaskCount++
		if item.Notified {
			rec.NotifiedCount++
		}
		if item.Rescheduled {
			rec.RescheduledCount++
		}
		if item.Transitioned {
			rec.TransitionCount++
		}
		if !item.Success {
			rec.FailedCount++
		}
	}

	records := make([]domain.EscalationResultRecord, 0, len(byPhase))
	for _, rec := range byPhase {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Phase < records[j].Phase
	})

	return records
}

// Evaluation is the engine's view of a single due date at an instant.
type Evaluation struct {
	Phase        domain.Phase `json:"phase"`
	NextRemindAt *time.Time   `json:"next_remind_at"`
	Expired      bool         `json:"expired"`
	DaysOut      *int         `json:"days_out"`
}
