package restore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/miraijuku/kanri/internal/schema"
)

// snapshotSlot is the closed set of restorable snapshot names: one slot per
// retained week. Anything else is rejected before any I/O.
var snapshotSlot = regexp.MustCompile(`^backup_week_[1-5]\.json$`)

var (
	ErrInvalidFileName   = errors.New("file name is not a known snapshot slot")
	ErrRestoreInProgress = errors.New("another restore is already running")
)

// Options tunes a restore Service.
type Options struct {
	Logger              *slog.Logger
	ChunkSize           int  // rows per upsert batch; default 500
	DisableSafetyBackup bool // skip the pre-restore safety snapshot
}

// Service is the restore orchestrator. It owns the downloaded snapshot and
// the accumulated error list for the duration of one StartRestore call; no
// collaborator holds a reference after the call returns.
type Service struct {
	tables TableClient
	blobs  SnapshotStore
	audit  AuditLogger
	log    *slog.Logger

	chunkSize    int
	safetyBackup bool

	mu sync.Mutex // single-flight: at most one destructive restore at a time
}

func New(tables TableClient, blobs SnapshotStore, audit AuditLogger, opt Options) *Service {
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	chunk := opt.ChunkSize
	if chunk <= 0 {
		chunk = 500
	}
	return &Service{
		tables:       tables,
		blobs:        blobs,
		audit:        audit,
		log:          log,
		chunkSize:    chunk,
		safetyBackup: !opt.DisableSafetyBackup,
	}
}

// StartRestore destructively replaces all live data with the named
// snapshot's contents, emitting progress events to rep as it goes. Phases
// run strictly in sequence: download, safety backup (best-effort), delete
// (children before parents), insert (parents before children), audit log.
//
// Only download and parse failures are fatal. Per-table delete and
// per-chunk insert failures are collected and surfaced in the final event
// and the audit record; the run continues past them.
func (s *Service) StartRestore(ctx context.Context, fileName string, rep Reporter) (Summary, error) {
	if rep == nil {
		rep = NopReporter{}
	}
	if !snapshotSlot.MatchString(fileName) {
		return Summary{}, fmt.Errorf("%w: %q", ErrInvalidFileName, fileName)
	}
	if !s.mu.TryLock() {
		return Summary{}, ErrRestoreInProgress
	}
	defer s.mu.Unlock()

	started := time.Now()
	s.log.Info("restore started", "file", fileName)

	// Phase: download. Failure here is fatal; nothing downstream can
	// proceed without a parsed snapshot.
	rep.Report(Event{Phase: PhaseDownload, Status: EvInProgress, Message: "downloading " + fileName})
	data, err := s.blobs.Get(ctx, fileName)
	if err != nil {
		return s.failBefore(ctx, rep, fileName, started, 0, fmt.Errorf("download snapshot: %w", err))
	}
	snap, err := ParseSnapshot(data)
	if err != nil {
		return s.failBefore(ctx, rep, fileName, started, int64(len(data)), err)
	}
	rep.Report(Event{Phase: PhaseDownload, Status: EvComplete,
		Message: fmt.Sprintf("snapshot loaded: %d tables, %d rows", len(snap.Tables), snap.Metadata.TotalRows)})

	var (
		deleteResults []deleteResult
		insertResults []insertResult
		panicErr      error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				panicErr = fmt.Errorf("restore aborted: %v", r)
			}
		}()

		// Phase: safety backup. Best-effort; a failure is a warning and the
		// run continues.
		if s.safetyBackup {
			rep.Report(Event{Phase: PhaseSafetyBackup, Status: EvInProgress, Message: "backing up current data"})
			if err := s.takeSafetyBackup(ctx, schema.TableNames()); err != nil {
				s.log.Warn("safety backup failed", "error", err)
				rep.Report(Event{Phase: PhaseSafetyBackup, Status: EvWarning,
					Message: "safety backup failed, continuing: " + err.Error()})
			} else {
				rep.Report(Event{Phase: PhaseSafetyBackup, Status: EvComplete})
			}
		}

		deleteResults = s.deleteAll(ctx, rep)
		insertResults = s.insertAll(ctx, snap, rep)
	}()

	if panicErr != nil {
		s.log.Error("restore aborted", "file", fileName, "error", panicErr)
		rep.Report(Event{Phase: PhaseError, Status: EvError, Message: panicErr.Error()})
		sum := s.newSummary(fileName, StatusFailed, 0, 0, int64(len(data)), started, panicErr.Error())
		s.writeAudit(ctx, sum)
		return sum, panicErr
	}

	var errs []string
	for _, r := range deleteResults {
		if r.Err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", r.Table, r.Err))
		}
	}
	totalInserted := 0
	for _, r := range insertResults {
		totalInserted += r.Inserted
		errs = append(errs, r.Errors...)
	}

	status := StatusRestored
	finalStatus := EvSuccess
	if len(errs) > 0 {
		status = StatusPartial
		finalStatus = EvPartial
	}
	sum := s.newSummary(fileName, status, len(insertResults), totalInserted, int64(len(data)), started, joinErrors(errs))
	s.writeAudit(ctx, sum)

	rep.Report(Event{Phase: PhaseComplete, Status: finalStatus, Errors: errs,
		Counts:  &Counts{Inserted: totalInserted},
		Message: fmt.Sprintf("restore %s: %d tables, %d rows in %dms", status, sum.TablesCount, totalInserted, sum.DurationMs)})
	s.log.Info("restore finished", "file", fileName, "status", status,
		"rows", totalInserted, "errors", len(errs), "duration_ms", sum.DurationMs)
	return sum, nil
}

// failBefore handles the fatal pre-pipeline failures (download, parse): one
// error event ends the stream, and a failed summary still reaches the audit
// log so every invocation leaves exactly one record.
func (s *Service) failBefore(ctx context.Context, rep Reporter, fileName string, started time.Time, size int64, err error) (Summary, error) {
	s.log.Error("restore failed before delete", "file", fileName, "error", err)
	rep.Report(Event{Phase: PhaseError, Status: EvError, Message: err.Error()})
	sum := s.newSummary(fileName, StatusFailed, 0, 0, size, started, err.Error())
	s.writeAudit(ctx, sum)
	return sum, err
}

func (s *Service) newSummary(fileName, status string, tables, rows int, size int64, started time.Time, errMsg string) Summary {
	return Summary{
		ID:            ulid.Make().String(),
		FileName:      fileName,
		Status:        status,
		TablesCount:   tables,
		TotalRows:     rows,
		FileSizeBytes: size,
		DurationMs:    time.Since(started).Milliseconds(),
		ErrorMessage:  errMsg,
		CreatedAt:     time.Now().UTC(),
	}
}

// writeAudit persists the summary. A logging failure must not crash the
// run's terminal path, so it is only logged.
func (s *Service) writeAudit(ctx context.Context, sum Summary) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogRestore(ctx, sum); err != nil {
		s.log.Error("audit record write failed", "restore_id", sum.ID, "error", err)
	}
}

func joinErrors(errs []string) string {
	if len(errs) == 0 {
		return ""
	}
	msg := errs[0]
	for _, e := range errs[1:] {
		msg += "; " + e
	}
	return msg
}
