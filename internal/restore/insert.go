package restore

import (
	"context"
	"fmt"

	"github.com/miraijuku/kanri/internal/schema"
)

// insertResult records one table's outcome during the insert pass.
type insertResult struct {
	Table    string
	Inserted int
	Errors   []string
}

// insertAll replays the snapshot into live tables in insert order, mirroring
// the deleter's sequencing discipline: parents must exist before the
// children that reference them.
func (s *Service) insertAll(ctx context.Context, snap *Snapshot, rep Reporter) []insertResult {
	byName := schema.ByName()
	total := len(schema.InsertOrder)
	results := make([]insertResult, 0, total)
	for i, table := range schema.InsertOrder {
		rep.Report(Event{Phase: PhaseInsert, Table: table, Status: EvInProgress, Progress: i + 1, Total: total})

		dump, ok := snap.Tables[table]
		if !ok || len(dump.Data) == 0 {
			// A table absent from the snapshot is not an error; older
			// snapshots predate newer tables.
			results = append(results, insertResult{Table: table})
			rep.Report(Event{Phase: PhaseInsert, Table: table, Status: EvComplete,
				Progress: i + 1, Total: total, Counts: &Counts{Inserted: 0}})
			continue
		}

		res := s.insertTable(ctx, table, byName[table], dump.Data)
		results = append(results, res)

		status := EvComplete
		if len(res.Errors) > 0 {
			status = EvPartial
			if res.Inserted == 0 {
				status = EvError
			}
		}
		rep.Report(Event{Phase: PhaseInsert, Table: table, Status: status,
			Progress: i + 1, Total: total, Counts: &Counts{Inserted: res.Inserted}, Errors: res.Errors})
	}
	return results
}

// insertTable upserts one table's rows in fixed-size chunks, strictly in
// order. A failed chunk is recorded and chunking continues; upserts are
// idempotent so a rerun converges to the same end state.
func (s *Service) insertTable(ctx context.Context, table string, tbl schema.Table, rows []Record) insertResult {
	res := insertResult{Table: table}
	for start := 0; start < len(rows); start += s.chunkSize {
		end := start + s.chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]
		if table == schema.AdminUsersTable {
			chunk = stripExternalIdentity(chunk)
		}
		if err := s.tables.Upsert(ctx, table, chunk, tbl.PKColumns); err != nil {
			s.log.Error("upsert chunk failed", "table", table, "from", start, "to", end-1, "error", err)
			res.Errors = append(res.Errors, fmt.Sprintf("%s[%d-%d]: %v", table, start, end-1, err))
			continue
		}
		res.Inserted += len(chunk)
	}
	return res
}

// stripExternalIdentity nulls the identity-provider user id on every row.
// Provider users are outside the snapshot's scope; re-linking admins to
// fresh provider accounts is a separate operational step.
func stripExternalIdentity(rows []Record) []Record {
	out := make([]Record, len(rows))
	for i, r := range rows {
		cp := make(Record, len(r))
		for k, v := range r {
			cp[k] = v
		}
		cp[schema.ExternalIdentityColumn] = nil
		out[i] = cp
	}
	return out
}
