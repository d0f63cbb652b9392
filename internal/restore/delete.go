package restore

import (
	"context"
	"fmt"

	"github.com/miraijuku/kanri/internal/schema"
)

// deleteResult records one table's outcome during the delete pass.
type deleteResult struct {
	Table   string
	Deleted int64
	Err     error
}

// minIDValue is the low end of the always-true primary-key range predicate.
// String keys (ULIDs, UUIDs, setting keys) all collate at or above the
// empty string.
const minIDValue = ""

// deleteAll empties every table in delete order, strictly in sequence: a
// later table may be the parent of rows just removed, so its delete must
// not start until the earlier one finished. Per-table failures are recorded
// and the pass continues; the insert phase still repopulates failed tables.
func (s *Service) deleteAll(ctx context.Context, rep Reporter) []deleteResult {
	byName := schema.ByName()
	total := len(schema.DeleteOrder)
	results := make([]deleteResult, 0, total)
	for i, table := range schema.DeleteOrder {
		rep.Report(Event{Phase: PhaseDelete, Table: table, Status: EvInProgress, Progress: i + 1, Total: total})

		deleted, err := s.deleteTable(ctx, table, byName[table])
		results = append(results, deleteResult{Table: table, Deleted: deleted, Err: err})
		if err != nil {
			s.log.Error("delete table failed", "table", table, "error", err)
			rep.Report(Event{Phase: PhaseDelete, Table: table, Status: EvError,
				Progress: i + 1, Total: total, Message: err.Error()})
			continue
		}
		rep.Report(Event{Phase: PhaseDelete, Table: table, Status: EvComplete,
			Progress: i + 1, Total: total, Counts: &Counts{Deleted: deleted}})
	}
	return results
}

func (s *Service) deleteTable(ctx context.Context, table string, tbl schema.Table) (int64, error) {
	n, err := s.tables.Count(ctx, table)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	if n == 0 {
		// Nothing to delete; skipping the call avoids a pointless
		// full-table predicate round trip.
		return 0, nil
	}
	key := tbl.PKColumns[0]
	deleted, err := s.tables.Delete(ctx, table, Predicate{Column: key, Op: OpGte, Value: minIDValue})
	if err == nil {
		return deleted, nil
	}
	// Some key types reject the range form; retry with the inequality form
	// before giving up on the table.
	deleted, err2 := s.tables.Delete(ctx, table, Predicate{Column: key, Op: OpNeq, Value: ""})
	if err2 != nil {
		return 0, fmt.Errorf("delete: %w (fallback: %v)", err, err2)
	}
	return deleted, nil
}
