package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/miraijuku/kanri/internal/restore"
)

type fakeService struct {
	events []restore.Event
	sum    restore.Summary
	err    error
}

func (f *fakeService) StartRestore(ctx context.Context, fileName string, rep restore.Reporter) (restore.Summary, error) {
	if f.err != nil {
		return restore.Summary{}, f.err
	}
	for _, ev := range f.events {
		rep.Report(ev)
	}
	return f.sum, nil
}

type fakeLogs struct {
	items []restore.Summary
}

func (f *fakeLogs) ListRestoreLogs(ctx context.Context, limit int) ([]restore.Summary, error) {
	if limit < len(f.items) {
		return f.items[:limit], nil
	}
	return f.items, nil
}

func TestPostRestoreStreamsNDJSON(t *testing.T) {
	svc := &fakeService{
		events: []restore.Event{
			{Phase: restore.PhaseDownload, Status: restore.EvInProgress},
			{Phase: restore.PhaseDelete, Table: "rooms", Status: restore.EvComplete, Progress: 1, Total: 28},
			{Phase: restore.PhaseComplete, Status: restore.EvSuccess},
		},
		sum: restore.Summary{Status: restore.StatusRestored},
	}
	h := New(svc, &fakeLogs{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/admin/backups/backup_week_1.json/restore", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content type = %q, want text/plain", ct)
	}
	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3: %q", len(lines), rec.Body.String())
	}
	var last restore.Event
	if err := json.Unmarshal([]byte(lines[2]), &last); err != nil {
		t.Fatalf("last line not JSON: %v", err)
	}
	if last.Phase != restore.PhaseComplete {
		t.Fatalf("last event phase = %q, want complete", last.Phase)
	}
}

func TestPostRestoreInvalidSlotIs400(t *testing.T) {
	svc := &fakeService{err: restore.ErrInvalidFileName}
	h := New(svc, &fakeLogs{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/admin/backups/nope.json/restore", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestPostRestoreBusyIs409(t *testing.T) {
	svc := &fakeService{err: restore.ErrRestoreInProgress}
	h := New(svc, &fakeLogs{}, nil)
	req := httptest.NewRequest(http.MethodPost, "/admin/backups/backup_week_1.json/restore", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestGetRestoreLogs(t *testing.T) {
	logs := &fakeLogs{items: []restore.Summary{
		{ID: "01J0", FileName: "backup_week_1.json", Status: restore.StatusRestored},
		{ID: "01J1", FileName: "backup_week_2.json", Status: restore.StatusPartial},
	}}
	h := New(&fakeService{}, logs, nil)
	req := httptest.NewRequest(http.MethodGet, "/admin/restore-logs?limit=1", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var items []restore.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 1 || items[0].ID != "01J0" {
		t.Fatalf("items = %+v", items)
	}
}

func TestGetRestoreLogsBadLimit(t *testing.T) {
	h := New(&fakeService{}, &fakeLogs{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/admin/restore-logs?limit=zero", nil)
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
