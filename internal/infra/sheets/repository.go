package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/KasumiMercury/primind-remind-escalation/internal/config"
	"github.com/KasumiMercury/primind-remind-escalation/internal/domain"
	"github.com/KasumiMercury/primind-remind-escalation/internal/observability/tracing"
)

const (
	valueInputRaw = "RAW"

	// Date cells come back as serial numbers so the sheet's locale format
	// never reaches the parser.
	valueRenderUnformatted = "UNFORMATTED_VALUE"
	dateTimeRenderSerial   = "SERIAL_NUMBER"
)

type taskRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	taskRange     string
	anchor        a1Range
	loc           *time.Location
}

// NewTaskRepository reads and writes tasks in a spreadsheet range whose first
// row names the columns.
func NewTaskRepository(ctx context.Context, cfg *config.SheetsConfig, loc *time.Location, opts ...option.ClientOption) (domain.TaskRepository, error) {
	anchor, err := parseA1Range(cfg.TaskRange)
	if err != nil {
		return nil, err
	}

	if loc == nil {
		loc = time.UTC
	}

	svc, err := sheetsapi.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &taskRepository{
		service:       svc,
		spreadsheetID: cfg.SpreadsheetID,
		taskRange:     cfg.TaskRange,
		anchor:        anchor,
		loc:           loc,
	}, nil
}

func (r *taskRepository) readRows(ctx context.Context) (header, [][]any, error) {
	ctx, span := tracing.StartExternalAPISpan(ctx, "sheets.values.get", r.taskRange)
	defer span.End()

	resp, err := r.service.Spreadsheets.Values.Get(r.spreadsheetID, r.taskRange).
		ValueRenderOption(valueRenderUnformatted).
		DateTimeRenderOption(dateTimeRenderSerial).
		Context(ctx).
		Do()
	if err != nil {
		tracing.RecordError(span, err)
		return nil, nil, fmt.Errorf("failed to read task range: %w", err)
	}

	if len(resp.Values) == 0 {
		return nil, nil, ErrHeaderMissing
	}

	h := parseHeader(resp.Values[0])
	if err := h.require(colTaskID, colDueAt); err != nil {
		return nil, nil, err
	}

	return h, resp.Values[1:], nil
}

func (r *taskRepository) ListTasks(ctx context.Context) ([]*domain.Task, error) {
	h, rows, err := r.readRows(ctx)
	if err != nil {
		return nil, err
	}

	tasks := make([]*domain.Task, 0, len(rows))
	for i, row := range rows {
		task, err := parseTaskRow(h, row, r.loc)
		if err != nil {
			slog.WarnContext(ctx, "skipping malformed task row",
				slog.Int("row", r.anchor.startRow+i+1),
				slog.String("error", err.Error()),
			)
			continue
		}
		if task == nil {
			continue
		}
		tasks = append(tasks, task)
	}

	slog.DebugContext(ctx, "tasks loaded from spreadsheet",
		slog.Int("row_count", len(rows)),
		slog.Int("task_count", len(tasks)),
	)

	return tasks, nil
}

// SaveReminders re-reads the id column so rows moved since ListTasks are
// still written to the right place.
func (r *taskRepository) SaveReminders(ctx context.Context, updates []domain.ReminderUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	h, rows, err := r.readRows(ctx)
	if err != nil {
		return err
	}
	if err := h.require(colPhase, colNextRemindAt); err != nil {
		return err
	}

	rowByID := make(map[string]int, len(rows))
	for i, row := range rows {
		if id := h.value(row, colTaskID); id != "" {
			if _, dup := rowByID[id]; !dup {
				rowByID[id] = i + 1 // offset past the header row
			}
		}
	}

	data := make([]*sheetsapi.ValueRange, 0, len(updates)*2)
	for _, u := range updates {
		rowOffset, ok := rowByID[u.TaskID]
		if !ok {
			slog.WarnContext(ctx, "task row not found while saving reminder",
				slog.String("task_id", u.TaskID),
			)
			continue
		}

		data = append(data,
			&sheetsapi.ValueRange{
				Range:  r.anchor.cell(rowOffset, h[colPhase]),
				Values: [][]any{{u.Phase.String()}},
			},
			&sheetsapi.ValueRange{
				Range:  r.anchor.cell(rowOffset, h[colNextRemindAt]),
				Values: [][]any{{formatTime(u.NextRemindAt, r.loc)}},
			},
		)
	}

	if len(data) == 0 {
		return nil
	}

	ctx, span := tracing.StartExternalAPISpan(ctx, "sheets.values.batch_update", r.taskRange)
	defer span.End()

	req := &sheetsapi.BatchUpdateValuesRequest{
		ValueInputOption: valueInputRaw,
		Data:             data,
	}

	resp, err := r.service.Spreadsheets.Values.BatchUpdate(r.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		tracing.RecordError(span, err)
		return fmt.Errorf("failed to write reminder updates: %w", err)
	}

	slog.InfoContext(ctx, "reminder updates written to spreadsheet",
		slog.Int("update_count", len(updates)),
		slog.Int64("updated_cells", resp.TotalUpdatedCells),
	)

	return nil
}
