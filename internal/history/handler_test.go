package history_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/scorely/scorely/internal/history"
	"github.com/scorely/scorely/pkg/pagination"
	"github.com/scorely/scorely/pkg/routes"
)

type memLedger struct {
	entries []history.Entry
}

func (m *memLedger) Handler() *history.Handler { return nil }

func (m *memLedger) Append(ctx context.Context, entry history.Entry) (bool, error) {
	for _, existing := range m.entries {
		if existing.TaskID == entry.TaskID {
			return false, nil
		}
	}
	m.entries = append(m.entries, entry)
	return true, nil
}

func (m *memLedger) Find(ctx context.Context, taskID string) (*history.Entry, error) {
	for _, entry := range m.entries {
		if entry.TaskID == taskID {
			return &entry, nil
		}
	}
	return nil, history.ErrNotFound
}

func (m *memLedger) List(ctx context.Context, page pagination.PageRequest) (*pagination.PageResult[history.Entry], error) {
	result := pagination.NewPageResult(m.entries, len(m.entries), page.Page, page.PageSize)
	return &result, nil
}

func newLedgerServer(sys history.System) *httptest.Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := history.NewHandler(sys, logger, pagination.Config{DefaultPageSize: 20, MaxPageSize: 100})

	mux := http.NewServeMux()
	routes.Register(mux, handler.Routes())
	return httptest.NewServer(mux)
}

func TestHandlerList(t *testing.T) {
	ledger := &memLedger{entries: []history.Entry{
		{ID: uuid.New(), TaskID: "0xtask1", Status: history.StatusCompleted, Score: 720, Grade: "A", RecordedAt: time.Now()},
		{ID: uuid.New(), TaskID: "0xtask2", Status: history.StatusFailed, RecordedAt: time.Now()},
	}}
	server := newLedgerServer(ledger)
	defer server.Close()

	res, err := http.Get(server.URL + "/history")
	if err != nil {
		t.Fatalf("GET /history: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}

	var page pagination.PageResult[history.Entry]
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.Total != 2 || len(page.Data) != 2 {
		t.Errorf("page = %+v, want both entries", page)
	}
}

func TestHandlerFind(t *testing.T) {
	ledger := &memLedger{entries: []history.Entry{
		{ID: uuid.New(), TaskID: "0xtask1", Status: history.StatusCompleted, Score: 720, Grade: "A"},
	}}
	server := newLedgerServer(ledger)
	defer server.Close()

	res, err := http.Get(server.URL + "/history/0xtask1")
	if err != nil {
		t.Fatalf("GET /history/{taskId}: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", res.StatusCode)
	}

	var entry history.Entry
	if err := json.NewDecoder(res.Body).Decode(&entry); err != nil {
		t.Fatalf("decode entry: %v", err)
	}
	if entry.TaskID != "0xtask1" || entry.Score != 720 {
		t.Errorf("entry = %+v", entry)
	}
}

func TestHandlerFindNotFound(t *testing.T) {
	server := newLedgerServer(&memLedger{})
	defer server.Close()

	res, err := http.Get(server.URL + "/history/0xmissing")
	if err != nil {
		t.Fatalf("GET /history/{taskId}: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", res.StatusCode)
	}
}
