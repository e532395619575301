package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/KasumiMercury/primind-remind-escalation/internal/config"
	"github.com/KasumiMercury/primind-remind-escalation/internal/domain"
)

type fakeSheetsServer struct {
	mu      sync.Mutex
	values  [][]any
	batches []*sheetsapi.BatchUpdateValuesRequest
	status  int
	query   url.Values
}

func (f *fakeSheetsServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	switch r.Method {
	case http.MethodGet:
		f.query = r.URL.Query()
		_ = json.NewEncoder(w).Encode(map[string]any{
			"range":          "Tasks!A1:H",
			"majorDimension": "ROWS",
			"values":         f.values,
		})
	case http.MethodPost:
		var req sheetsapi.BatchUpdateValuesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.batches = append(f.batches, &req)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"spreadsheetId":     "sheet-1",
			"totalUpdatedCells": len(req.Data),
		})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestRepository(t *testing.T, fake *fakeSheetsServer, loc *time.Location) domain.TaskRepository {
	t.Helper()

	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := &config.SheetsConfig{SpreadsheetID: "sheet-1", TaskRange: "Tasks!A1:H"}
	repo, err := NewTaskRepository(context.Background(), cfg, loc,
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	return repo
}

var testHeader = []any{"task_id", "title", "assignee", "due_at", "completed", "phase", "next_remind_at"}

func TestListTasks(t *testing.T) {
	fake := &fakeSheetsServer{values: [][]any{
		testHeader,
		{"T-1", "Renew certificate", "infra", "2025-01-10", "", "yellow", "2025-01-06T09:00:00+09:00"},
		{"T-2", "Close books", "finance", "not a date"},
		{"", "blank row"},
		{"T-3", "Archive logs", "", "", "yes"},
	}}
	jst := time.FixedZone("JST", 9*60*60)
	repo := newTestRepository(t, fake, jst)

	tasks, err := repo.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	assert.Equal(t, "T-1", tasks[0].ID)
	assert.Equal(t, domain.PhaseYellow, tasks[0].Phase)
	require.NotNil(t, tasks[0].DueAt)
	assert.True(t, tasks[0].DueAt.Equal(time.Date(2025, 1, 10, 0, 0, 0, 0, jst)))

	assert.Equal(t, "T-3", tasks[1].ID)
	assert.True(t, tasks[1].Completed)
	assert.Nil(t, tasks[1].DueAt)
}

func TestListTasksReadsDateCellsAsSerials(t *testing.T) {
	fake := &fakeSheetsServer{values: [][]any{
		testHeader,
		{"T-1", "Renew certificate", "infra", 45667.0, false, "yellow", 45663.375},
	}}
	jst := time.FixedZone("JST", 9*60*60)
	repo := newTestRepository(t, fake, jst)

	tasks, err := repo.ListTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	assert.Equal(t, "UNFORMATTED_VALUE", fake.query.Get("valueRenderOption"))
	assert.Equal(t, "SERIAL_NUMBER", fake.query.Get("dateTimeRenderOption"))

	require.NotNil(t, tasks[0].DueAt)
	assert.True(t, tasks[0].DueAt.Equal(time.Date(2025, 1, 10, 0, 0, 0, 0, jst)))
	require.NotNil(t, tasks[0].NextRemindAt)
	assert.True(t, tasks[0].NextRemindAt.Equal(time.Date(2025, 1, 6, 9, 0, 0, 0, jst)))
	assert.False(t, tasks[0].Completed)
}

func TestListTasksRequiresHeader(t *testing.T) {
	tests := []struct {
		name    string
		values  [][]any
		wantErr error
	}{
		{name: "empty sheet", values: nil, wantErr: ErrHeaderMissing},
		{name: "missing due_at column", values: [][]any{{"task_id", "title"}}, wantErr: ErrColumnMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newTestRepository(t, &fakeSheetsServer{values: tt.values}, time.UTC)
			_, err := repo.ListTasks(context.Background())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestListTasksAPIError(t *testing.T) {
	repo := newTestRepository(t, &fakeSheetsServer{status: http.StatusForbidden}, time.UTC)
	_, err := repo.ListTasks(context.Background())
	assert.Error(t, err)
}

func TestSaveReminders(t *testing.T) {
	fake := &fakeSheetsServer{values: [][]any{
		testHeader,
		{"T-1", "Renew certificate", "infra", "2025-01-10"},
		{"T-2", "Close books", "finance", "2025-03-01"},
	}}
	repo := newTestRepository(t, fake, time.UTC)

	next := time.Date(2025, 1, 6, 12, 0, 0, 0, time.UTC)
	err := repo.SaveReminders(context.Background(), []domain.ReminderUpdate{
		domain.NewReminderUpdate("T-2", domain.PhaseDormant, nil),
		domain.NewReminderUpdate("T-1", domain.PhaseYellow, &next),
		domain.NewReminderUpdate("T-gone", domain.PhaseRed, &next),
	})
	require.NoError(t, err)

	require.Len(t, fake.batches, 1)
	batch := fake.batches[0]
	assert.Equal(t, "RAW", batch.ValueInputOption)

	written := map[string]any{}
	for _, vr := range batch.Data {
		require.Len(t, vr.Values, 1)
		require.Len(t, vr.Values[0], 1)
		written[vr.Range] = vr.Values[0][0]
	}

	assert.Equal(t, map[string]any{
		"'Tasks'!F3": "dormant",
		"'Tasks'!G3": "",
		"'Tasks'!F2": "yellow",
		"'Tasks'!G2": "2025-01-06T12:00:00Z",
	}, written)
}

func TestSaveRemindersNoop(t *testing.T) {
	fake := &fakeSheetsServer{values: [][]any{testHeader}}
	repo := newTestRepository(t, fake, time.UTC)

	require.NoError(t, repo.SaveReminders(context.Background(), nil))
	require.NoError(t, repo.SaveReminders(context.Background(), []domain.ReminderUpdate{
		domain.NewReminderUpdate("missing", domain.PhaseRed, nil),
	}))
	assert.Empty(t, fake.batches)
}

func TestSaveRemindersRequiresStateColumns(t *testing.T) {
	fake := &fakeSheetsServer{values: [][]any{{"task_id", "due_at"}, {"T-1", "2025-01-10"}}}
	repo := newTestRepository(t, fake, time.UTC)

	err := repo.SaveReminders(context.Background(), []domain.ReminderUpdate{
		domain.NewReminderUpdate("T-1", domain.PhaseRed, nil),
	})
	assert.ErrorIs(t, err, ErrColumnMissing)
}
