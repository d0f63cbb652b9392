package restore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/miraijuku/kanri/internal/dao/dbutil"
)

// SafetyBackupObject is the fixed blob name for the pre-restore safety
// backup. Each run overwrites the previous one; this slot intentionally
// keeps no history.
const SafetyBackupObject = "backup_pre_restore.json"

// takeSafetyBackup captures the current contents of every listed table into
// one blob before anything is destroyed. Any failure is returned to the
// caller, which downgrades it to a warning: the safety backup is best-effort
// protection, not a precondition gate.
func (s *Service) takeSafetyBackup(ctx context.Context, tables []string) error {
	snap := Snapshot{
		Metadata: SnapshotMetadata{
			CreatedAt:  time.Now().UTC().Format(time.RFC3339),
			WeekNumber: 0, // sentinel for "pre-restore"
			Type:       "pre_restore_safety",
		},
		Tables: make(map[string]TableDump, len(tables)),
	}
	totalRows := 0
	for _, table := range tables {
		rows, err := s.tables.SelectAll(ctx, table)
		if err != nil {
			return dbutil.ErrWrap("restore.safety.select", err, dbutil.ParamSummary("table", table))
		}
		snap.Tables[table] = TableDump{Count: len(rows), Data: rows}
		totalRows += len(rows)
	}
	snap.Metadata.TablesCount = len(tables)
	snap.Metadata.TotalRows = totalRows

	data, err := json.Marshal(snap)
	if err != nil {
		return dbutil.ErrWrap("restore.safety.encode", err)
	}
	if err := s.blobs.Put(ctx, SafetyBackupObject, data); err != nil {
		return dbutil.ErrWrap("restore.safety.upload", err, dbutil.ParamSummary("bytes", data))
	}
	return nil
}
