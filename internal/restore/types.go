package restore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Record is one table row, column name to value. Rows are carried opaquely:
// the engine never validates shape beyond what the target table enforces, so
// the 28 tables can evolve without touching this package.
type Record = map[string]any

// TableDump holds one table's rows inside a snapshot blob.
type TableDump struct {
	Count int      `json:"count"`
	Data  []Record `json:"data"`
}

// SnapshotMetadata mirrors the metadata block of a snapshot blob.
type SnapshotMetadata struct {
	CreatedAt   string `json:"created_at"`
	WeekNumber  int    `json:"week_number"`
	TablesCount int    `json:"tables_count"`
	TotalRows   int    `json:"total_rows"`
	Type        string `json:"type,omitempty"`
}

// Snapshot is a parsed full-database snapshot blob.
type Snapshot struct {
	Metadata SnapshotMetadata     `json:"metadata"`
	Tables   map[string]TableDump `json:"tables"`
}

// ParseSnapshot decodes a snapshot blob. A snapshot without a tables block
// is rejected; individual tables may be absent (older snapshots predate
// newer tables).
func ParseSnapshot(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	if s.Tables == nil {
		return nil, fmt.Errorf("parse snapshot: missing tables block")
	}
	return &s, nil
}

// Restore outcome statuses, persisted in the audit record.
const (
	StatusRestored = "restored"
	StatusPartial  = "partial"
	StatusFailed   = "failed"
)

// Summary is the one audit record a restore invocation leaves behind.
// Created once at the end of the run and never mutated afterward.
type Summary struct {
	ID            string    `json:"id"`
	FileName      string    `json:"file_name"`
	Status        string    `json:"status"`
	TablesCount   int       `json:"tables_count"`
	TotalRows     int       `json:"total_rows"`
	FileSizeBytes int64     `json:"file_size_bytes"`
	DurationMs    int64     `json:"duration_ms"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Predicate is a single-column row filter passed to TableClient.Delete.
// The deleter only ever builds always-true predicates over the primary key;
// two forms exist because some stores reject range predicates on certain
// key types.
type Predicate struct {
	Column string
	Op     PredicateOp
	Value  any
}

type PredicateOp string

const (
	OpGte PredicateOp = "gte"
	OpNeq PredicateOp = "neq"
)

// TableClient is the engine's view of the relational store. Implementations
// live in internal/dao/postgres; tests substitute fakes.
type TableClient interface {
	Count(ctx context.Context, table string) (int64, error)
	SelectAll(ctx context.Context, table string) ([]Record, error)
	Delete(ctx context.Context, table string, pred Predicate) (int64, error)
	Upsert(ctx context.Context, table string, rows []Record, conflictColumns []string) error
}

// SnapshotStore is named-blob storage for snapshots and safety backups.
type SnapshotStore interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Put(ctx context.Context, name string, data []byte) error
}

// AuditLogger persists the terminal summary of a restore run.
type AuditLogger interface {
	LogRestore(ctx context.Context, sum Summary) error
}
