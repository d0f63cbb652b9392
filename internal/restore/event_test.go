package restore

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestStreamReporterWritesOneJSONObjectPerLine(t *testing.T) {
	var buf bytes.Buffer
	rep := NewStreamReporter(&buf)
	rep.Report(Event{Phase: PhaseDownload, Status: EvInProgress})
	rep.Report(Event{Phase: PhaseDelete, Table: "rooms", Status: EvComplete, Progress: 5, Total: 28,
		Counts: &Counts{Deleted: 12}})
	rep.Report(Event{Phase: PhaseComplete, Status: EvSuccess})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	var ev Event
	if err := json.Unmarshal([]byte(lines[1]), &ev); err != nil {
		t.Fatalf("line 2 not valid JSON: %v", err)
	}
	if ev.Table != "rooms" || ev.Counts == nil || ev.Counts.Deleted != 12 {
		t.Fatalf("decoded event = %+v", ev)
	}
}

func TestParseSnapshotRejectsMissingTables(t *testing.T) {
	if _, err := ParseSnapshot([]byte(`{"metadata":{}}`)); err == nil {
		t.Fatal("expected error for snapshot without tables block")
	}
	if _, err := ParseSnapshot([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed snapshot")
	}
}
