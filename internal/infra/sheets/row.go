package sheets

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/KasumiMercury/primind-remind-escalation/internal/domain"
)

const (
	colTaskID       = "task_id"
	colTitle        = "title"
	colAssignee     = "assignee"
	colDueAt        = "due_at"
	colCompleted    = "completed"
	colPhase        = "phase"
	colNextRemindAt = "next_remind_at"
)

// timeLayouts covers text cells. Cells formatted as dates are read as serial
// numbers instead, see parseTimeCell.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04",
	"2006/01/02",
}

// header maps column names to zero-based positions within the range.
type header map[string]int

func parseHeader(row []any) header {
	h := make(header, len(row))
	for i, cell := range row {
		name := strings.ToLower(strings.TrimSpace(cellString(cell)))
		if name == "" {
			continue
		}
		if _, dup := h[name]; !dup {
			h[name] = i
		}
	}
	return h
}

func (h header) require(names ...string) error {
	for _, name := range names {
		if _, ok := h[name]; !ok {
			return fmt.Errorf("%w: %s", ErrColumnMissing, name)
		}
	}
	return nil
}

func (h header) cell(row []any, name string) any {
	i, ok := h[name]
	if !ok || i >= len(row) {
		return nil
	}
	return row[i]
}

func (h header) value(row []any, name string) string {
	return strings.TrimSpace(cellString(h.cell(row, name)))
}

func cellString(cell any) string {
	switch v := cell.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// parseTaskRow returns nil for rows without a task id.
func parseTaskRow(h header, row []any, loc *time.Location) (*domain.Task, error) {
	id := h.value(row, colTaskID)
	if id == "" {
		return nil, nil
	}

	dueAt, err := parseTimeCell(h.cell(row, colDueAt), loc)
	if err != nil {
		return nil, fmt.Errorf("task %s: due_at: %w", id, err)
	}

	nextRemindAt, err := parseTimeCell(h.cell(row, colNextRemindAt), loc)
	if err != nil {
		return nil, fmt.Errorf("task %s: next_remind_at: %w", id, err)
	}

	// A hand-edited phase cell must not block evaluation.
	phase, err := domain.ParsePhase(h.value(row, colPhase))
	if err != nil {
		phase = domain.PhaseNone
	}

	return &domain.Task{
		ID:           id,
		Title:        h.value(row, colTitle),
		Assignee:     h.value(row, colAssignee),
		DueAt:        dueAt,
		Completed:    parseBool(h.value(row, colCompleted)),
		Phase:        phase,
		NextRemindAt: nextRemindAt,
	}, nil
}

// parseTimeCell accepts either a date serial number or a text timestamp.
func parseTimeCell(cell any, loc *time.Location) (*time.Time, error) {
	if serial, ok := cell.(float64); ok {
		t := serialTime(serial, loc)
		return &t, nil
	}
	return parseTime(strings.TrimSpace(cellString(cell)), loc)
}

// serialTime converts a spreadsheet serial date (days since 1899-12-30,
// fraction is time of day) to wall-clock time in loc.
func serialTime(serial float64, loc *time.Location) time.Time {
	days := math.Floor(serial)
	secs := int(math.Round((serial - days) * 24 * 60 * 60))
	return time.Date(1899, time.December, 30+int(days), 0, 0, secs, 0, loc)
}

// parseTime reads an optional timestamp; values without an offset are
// interpreted in loc.
func parseTime(raw string, loc *time.Location) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrInvalidTime, raw)
}

func formatTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(time.RFC3339)
}

func parseBool(raw string) bool {
	switch strings.ToLower(raw) {
	case "true", "yes", "y", "1", "x", "done":
		return true
	default:
		return false
	}
}
