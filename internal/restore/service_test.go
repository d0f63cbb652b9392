package restore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/miraijuku/kanri/internal/schema"
)

// fakeTables is an in-memory TableClient that records call order and can be
// told to fail specific operations.
type fakeTables struct {
	mu         sync.Mutex
	rows       map[string]map[string]Record // table -> pk -> row
	calls      []string
	deleteErr  map[string]error
	selectErr  map[string]error
	failChunks map[string]int // fail the first N upsert calls per table
}

func newFakeTables() *fakeTables {
	return &fakeTables{
		rows:       map[string]map[string]Record{},
		deleteErr:  map[string]error{},
		selectErr:  map[string]error{},
		failChunks: map[string]int{},
	}
}

func (f *fakeTables) record(op, table string) {
	f.calls = append(f.calls, op+":"+table)
}

func (f *fakeTables) Count(ctx context.Context, table string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("count", table)
	return int64(len(f.rows[table])), nil
}

func (f *fakeTables) SelectAll(ctx context.Context, table string) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("select", table)
	if err := f.selectErr[table]; err != nil {
		return nil, err
	}
	var out []Record
	for _, r := range f.rows[table] {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeTables) Delete(ctx context.Context, table string, pred Predicate) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete", table)
	if err := f.deleteErr[table]; err != nil {
		return 0, err
	}
	n := int64(len(f.rows[table]))
	delete(f.rows, table)
	return n, nil
}

func (f *fakeTables) Upsert(ctx context.Context, table string, rows []Record, conflictColumns []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("upsert", table)
	if f.failChunks[table] > 0 {
		f.failChunks[table]--
		return errors.New("simulated upsert failure")
	}
	if f.rows[table] == nil {
		f.rows[table] = map[string]Record{}
	}
	for _, r := range rows {
		key := ""
		for _, c := range conflictColumns {
			key += fmt.Sprint(r[c]) + "|"
		}
		f.rows[table][key] = r
	}
	return nil
}

func (f *fakeTables) count(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows[table])
}

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	getErr  error
	putErr  error
	puts    []string
	getGate chan struct{} // when set, Get blocks until closed
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: map[string][]byte{}}
}

func (f *fakeBlobs) Get(ctx context.Context, name string) ([]byte, error) {
	if f.getGate != nil {
		<-f.getGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	b, ok := f.objects[name]
	if !ok {
		return nil, errors.New("object not found")
	}
	return b, nil
}

func (f *fakeBlobs) Put(ctx context.Context, name string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.putErr != nil {
		return f.putErr
	}
	f.puts = append(f.puts, name)
	f.objects[name] = data
	return nil
}

type fakeAudit struct {
	mu   sync.Mutex
	sums []Summary
}

func (f *fakeAudit) LogRestore(ctx context.Context, sum Summary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sums = append(f.sums, sum)
	return nil
}

type recReporter struct {
	mu     sync.Mutex
	events []Event
}

func (r *recReporter) Report(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func snapshotJSON(t *testing.T, tables map[string][]Record) []byte {
	t.Helper()
	snap := Snapshot{Tables: map[string]TableDump{}}
	for name, rows := range tables {
		snap.Tables[name] = TableDump{Count: len(rows), Data: rows}
		snap.Metadata.TotalRows += len(rows)
	}
	snap.Metadata.TablesCount = len(tables)
	b, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	return b
}

func makeRows(n int) []Record {
	rows := make([]Record, n)
	for i := range rows {
		rows[i] = Record{"id": fmt.Sprintf("row-%04d", i), "name": "x"}
	}
	return rows
}

func newTestService(tables *fakeTables, blobs *fakeBlobs, audit *fakeAudit) *Service {
	return New(tables, blobs, audit, Options{})
}

func TestRestoreCountsMatchSnapshot(t *testing.T) {
	tables := newFakeTables()
	blobs := newFakeBlobs()
	audit := &fakeAudit{}
	blobs.objects["backup_week_1.json"] = snapshotJSON(t, map[string][]Record{
		"branches": makeRows(2),
		"rooms":    makeRows(5),
	})
	svc := newTestService(tables, blobs, audit)

	sum, err := svc.StartRestore(context.Background(), "backup_week_1.json", NopReporter{})
	if err != nil {
		t.Fatalf("StartRestore: %v", err)
	}
	if sum.Status != StatusRestored {
		t.Fatalf("status = %q, want %q", sum.Status, StatusRestored)
	}
	if got := tables.count("branches"); got != 2 {
		t.Fatalf("branches count = %d, want 2", got)
	}
	if got := tables.count("rooms"); got != 5 {
		t.Fatalf("rooms count = %d, want 5", got)
	}
	for _, name := range schema.TableNames() {
		if name == "branches" || name == "rooms" {
			continue
		}
		if got := tables.count(name); got != 0 {
			t.Fatalf("%s count = %d, want 0", name, got)
		}
	}
	if sum.TablesCount != len(schema.Catalog()) {
		t.Fatalf("TablesCount = %d, want %d", sum.TablesCount, len(schema.Catalog()))
	}
	if sum.TotalRows != 7 {
		t.Fatalf("TotalRows = %d, want 7", sum.TotalRows)
	}
	if len(audit.sums) != 1 {
		t.Fatalf("audit records = %d, want 1", len(audit.sums))
	}
}

func TestDownloadFailureIsFatal(t *testing.T) {
	tables := newFakeTables()
	blobs := newFakeBlobs()
	blobs.getErr = errors.New("bucket unavailable")
	audit := &fakeAudit{}
	svc := newTestService(tables, blobs, audit)
	rep := &recReporter{}

	sum, err := svc.StartRestore(context.Background(), "backup_week_2.json", rep)
	if err == nil {
		t.Fatal("expected error from failed download")
	}
	if sum.Status != StatusFailed {
		t.Fatalf("status = %q, want %q", sum.Status, StatusFailed)
	}
	for _, c := range tables.calls {
		if strings.HasPrefix(c, "delete:") || strings.HasPrefix(c, "upsert:") {
			t.Fatalf("store touched after fatal download failure: %s", c)
		}
	}
	last := rep.events[len(rep.events)-1]
	if last.Phase != PhaseError || last.Status != EvError {
		t.Fatalf("terminal event = %+v, want error/error", last)
	}
	if len(audit.sums) != 1 || audit.sums[0].Status != StatusFailed {
		t.Fatalf("failed run must still leave one failed audit record, got %+v", audit.sums)
	}
}

func TestInvalidFileNameRejectedBeforeIO(t *testing.T) {
	tables := newFakeTables()
	blobs := newFakeBlobs()
	svc := newTestService(tables, blobs, &fakeAudit{})

	for _, name := range []string{"", "backup_week_9.json", "../etc/passwd", "backup_pre_restore.json"} {
		_, err := svc.StartRestore(context.Background(), name, NopReporter{})
		if !errors.Is(err, ErrInvalidFileName) {
			t.Fatalf("StartRestore(%q) err = %v, want ErrInvalidFileName", name, err)
		}
	}
	if len(tables.calls) != 0 {
		t.Fatalf("store touched for invalid file name: %v", tables.calls)
	}
}

func TestDeleteFailureDoesNotStopPass(t *testing.T) {
	tables := newFakeTables()
	// preload a row so delete is actually attempted
	tables.rows["enrollments"] = map[string]Record{"e1|": {"id": "e1"}}
	tables.rows["lessons"] = map[string]Record{"l1|": {"id": "l1"}}
	tables.deleteErr["enrollments"] = errors.New("permission denied")
	blobs := newFakeBlobs()
	blobs.objects["backup_week_1.json"] = snapshotJSON(t, map[string][]Record{"branches": makeRows(1)})
	audit := &fakeAudit{}
	svc := newTestService(tables, blobs, audit)

	sum, err := svc.StartRestore(context.Background(), "backup_week_1.json", NopReporter{})
	if err != nil {
		t.Fatalf("StartRestore: %v", err)
	}
	if sum.Status != StatusPartial {
		t.Fatalf("status = %q, want %q", sum.Status, StatusPartial)
	}
	if !strings.Contains(sum.ErrorMessage, "enrollments") {
		t.Fatalf("error message %q does not attribute the enrollments failure", sum.ErrorMessage)
	}
	// lessons comes after enrollments in delete order and must still be emptied
	if got := tables.count("lessons"); got != 0 {
		t.Fatalf("lessons count = %d, want 0 (pass must continue past failed table)", got)
	}
}

func TestSafetyBackupFailureIsWarningOnly(t *testing.T) {
	tables := newFakeTables()
	blobs := newFakeBlobs()
	blobs.objects["backup_week_3.json"] = snapshotJSON(t, map[string][]Record{"branches": makeRows(1)})
	blobs.putErr = errors.New("upload refused")
	svc := newTestService(tables, blobs, &fakeAudit{})
	rep := &recReporter{}

	sum, err := svc.StartRestore(context.Background(), "backup_week_3.json", rep)
	if err != nil {
		t.Fatalf("StartRestore: %v", err)
	}
	if sum.Status != StatusRestored {
		t.Fatalf("status = %q, want %q (safety backup is best-effort)", sum.Status, StatusRestored)
	}
	found := false
	for _, ev := range rep.events {
		if ev.Phase == PhaseSafetyBackup && ev.Status == EvWarning {
			found = true
		}
	}
	if !found {
		t.Fatal("no safety_backup warning event in stream")
	}
}

func TestSafetyBackupWritesFixedObject(t *testing.T) {
	tables := newFakeTables()
	tables.rows["students"] = map[string]Record{"s1|": {"id": "s1"}}
	blobs := newFakeBlobs()
	blobs.objects["backup_week_1.json"] = snapshotJSON(t, nil)
	svc := newTestService(tables, blobs, &fakeAudit{})

	if _, err := svc.StartRestore(context.Background(), "backup_week_1.json", NopReporter{}); err != nil {
		t.Fatalf("StartRestore: %v", err)
	}
	if len(blobs.puts) != 1 || blobs.puts[0] != SafetyBackupObject {
		t.Fatalf("puts = %v, want exactly [%s]", blobs.puts, SafetyBackupObject)
	}
	var snap Snapshot
	if err := json.Unmarshal(blobs.objects[SafetyBackupObject], &snap); err != nil {
		t.Fatalf("safety blob not parseable: %v", err)
	}
	if snap.Metadata.Type != "pre_restore_safety" || snap.Metadata.WeekNumber != 0 {
		t.Fatalf("safety metadata = %+v", snap.Metadata)
	}
	if snap.Tables["students"].Count != 1 {
		t.Fatalf("safety backup missed current students row: %+v", snap.Tables["students"])
	}
}

func TestChunkFailureIsIsolated(t *testing.T) {
	tables := newFakeTables()
	tables.failChunks["students"] = 1 // first chunk of students fails
	blobs := newFakeBlobs()
	blobs.objects["backup_week_1.json"] = snapshotJSON(t, map[string][]Record{
		"students": makeRows(800),
	})
	audit := &fakeAudit{}
	svc := newTestService(tables, blobs, audit)
	rep := &recReporter{}

	sum, err := svc.StartRestore(context.Background(), "backup_week_1.json", rep)
	if err != nil {
		t.Fatalf("StartRestore: %v", err)
	}
	if sum.Status != StatusPartial {
		t.Fatalf("status = %q, want %q", sum.Status, StatusPartial)
	}
	// chunk size 500: first chunk (500 rows) fails, second (300 rows) lands
	if got := tables.count("students"); got != 300 {
		t.Fatalf("students rows = %d, want 300", got)
	}
	if sum.TotalRows != 300 {
		t.Fatalf("TotalRows = %d, want 300", sum.TotalRows)
	}
	var chunkErrs []string
	for _, ev := range rep.events {
		if ev.Phase == PhaseComplete {
			chunkErrs = ev.Errors
		}
	}
	if len(chunkErrs) != 1 || !strings.HasPrefix(chunkErrs[0], "students[0-499]") {
		t.Fatalf("final errors = %v, want one students[0-499] entry", chunkErrs)
	}
}

func TestAdminIdentityColumnForcedNull(t *testing.T) {
	tables := newFakeTables()
	blobs := newFakeBlobs()
	rows := []Record{
		{"id": "a1", "auth_user_id": "ext-123", "name": "head office"},
		{"id": "a2", "auth_user_id": nil, "name": "west branch"},
	}
	blobs.objects["backup_week_1.json"] = snapshotJSON(t, map[string][]Record{"admin_users": rows})
	svc := newTestService(tables, blobs, &fakeAudit{})

	if _, err := svc.StartRestore(context.Background(), "backup_week_1.json", NopReporter{}); err != nil {
		t.Fatalf("StartRestore: %v", err)
	}
	for key, row := range tables.rows["admin_users"] {
		if row["auth_user_id"] != nil {
			t.Fatalf("admin_users[%s].auth_user_id = %v, want nil", key, row["auth_user_id"])
		}
	}
	// the snapshot itself must not have been mutated in place
	if rows[0]["auth_user_id"] != "ext-123" {
		t.Fatal("source snapshot row was mutated")
	}
}

func TestInsertIsIdempotent(t *testing.T) {
	tables := newFakeTables()
	blobs := newFakeBlobs()
	blobs.objects["backup_week_1.json"] = snapshotJSON(t, map[string][]Record{
		"branches": makeRows(3),
		"rooms":    makeRows(7),
	})
	svc := newTestService(tables, blobs, &fakeAudit{})

	for i := 0; i < 2; i++ {
		if _, err := svc.StartRestore(context.Background(), "backup_week_1.json", NopReporter{}); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if got := tables.count("branches"); got != 3 {
		t.Fatalf("branches count after rerun = %d, want 3", got)
	}
	if got := tables.count("rooms"); got != 7 {
		t.Fatalf("rooms count after rerun = %d, want 7", got)
	}
}

func TestEventStreamHasOneTerminalEventLast(t *testing.T) {
	tables := newFakeTables()
	blobs := newFakeBlobs()
	blobs.objects["backup_week_1.json"] = snapshotJSON(t, map[string][]Record{"branches": makeRows(1)})
	svc := newTestService(tables, blobs, &fakeAudit{})
	rep := &recReporter{}

	if _, err := svc.StartRestore(context.Background(), "backup_week_1.json", rep); err != nil {
		t.Fatalf("StartRestore: %v", err)
	}
	terminals := 0
	for _, ev := range rep.events {
		if ev.Phase == PhaseComplete || ev.Phase == PhaseError {
			terminals++
		}
	}
	if terminals != 1 {
		t.Fatalf("terminal events = %d, want 1", terminals)
	}
	if last := rep.events[len(rep.events)-1]; last.Phase != PhaseComplete {
		t.Fatalf("last event phase = %q, want %q", last.Phase, PhaseComplete)
	}
	// delete events for table N+1 must not start before table N's terminal event
	lastTable := map[string]string{}
	for _, ev := range rep.events {
		if ev.Phase != PhaseDelete {
			continue
		}
		if ev.Status == EvInProgress {
			for tbl, st := range lastTable {
				if st == EvInProgress && tbl != ev.Table {
					t.Fatalf("delete of %s started while %s still in progress", ev.Table, tbl)
				}
			}
		}
		lastTable[ev.Table] = ev.Status
	}
}

func TestConcurrentRestoreRejected(t *testing.T) {
	tables := newFakeTables()
	blobs := newFakeBlobs()
	blobs.objects["backup_week_1.json"] = snapshotJSON(t, nil)
	blobs.getGate = make(chan struct{})
	svc := newTestService(tables, blobs, &fakeAudit{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = svc.StartRestore(context.Background(), "backup_week_1.json", NopReporter{})
	}()
	// wait until the first run holds the lock inside Get
	for i := 0; ; i++ {
		if svcLocked(svc) {
			break
		}
		if i > 1000 {
			t.Fatal("first restore never acquired the lock")
		}
		time.Sleep(time.Millisecond)
	}
	_, err := svc.StartRestore(context.Background(), "backup_week_1.json", NopReporter{})
	if !errors.Is(err, ErrRestoreInProgress) {
		t.Fatalf("second restore err = %v, want ErrRestoreInProgress", err)
	}
	close(blobs.getGate)
	<-done
}

// svcLocked probes the single-flight guard without disturbing it.
func svcLocked(s *Service) bool {
	if s.mu.TryLock() {
		s.mu.Unlock()
		return false
	}
	return true
}
