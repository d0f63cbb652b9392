package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/miraijuku/kanri/internal/dao/dbutil"
	"github.com/miraijuku/kanri/internal/restore"
)

// TableClient implements the restore engine's relational-store contract on
// top of a pgx pool. All tables live in the public schema; identifiers are
// sanitized because table and column names flow in from the catalog and
// from snapshot rows.
type TableClient struct {
	db *pgxpool.Pool
}

func NewTableClient(db *pgxpool.Pool) *TableClient {
	return &TableClient{db: db}
}

// Count returns the number of rows in a live table.
func (c *TableClient) Count(ctx context.Context, table string) (int64, error) {
	idf := pgx.Identifier{"public", table}
	var n int64
	if err := c.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+idf.Sanitize()).Scan(&n); err != nil {
		return 0, dbutil.ErrWrap("table.count", err, dbutil.ParamSummary("table", table))
	}
	return n, nil
}

// SelectAll reads every row of a table as a column-to-value map via
// to_jsonb, so the caller stays agnostic to the table's shape.
func (c *TableClient) SelectAll(ctx context.Context, table string) ([]restore.Record, error) {
	idf := pgx.Identifier{"public", table}
	rows, err := c.db.Query(ctx, "SELECT to_jsonb(t) FROM "+idf.Sanitize()+" AS t")
	if err != nil {
		return nil, dbutil.ErrWrap("table.select", err, dbutil.ParamSummary("table", table))
	}
	defer rows.Close()
	var out []restore.Record
	for rows.Next() {
		var b []byte
		if err := rows.Scan(&b); err != nil {
			return nil, dbutil.ErrWrap("table.select.scan", err, dbutil.ParamSummary("table", table))
		}
		var rec restore.Record
		if err := json.Unmarshal(b, &rec); err != nil {
			return nil, dbutil.ErrWrap("table.select.decode", err, dbutil.ParamSummary("table", table))
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, dbutil.ErrWrap("table.select", err, dbutil.ParamSummary("table", table))
	}
	return out, nil
}

// Delete removes all rows matching the predicate and reports how many went.
func (c *TableClient) Delete(ctx context.Context, table string, pred restore.Predicate) (int64, error) {
	idf := pgx.Identifier{"public", table}
	col := pgx.Identifier{pred.Column}.Sanitize()
	var op string
	switch pred.Op {
	case restore.OpGte:
		op = ">="
	case restore.OpNeq:
		op = "<>"
	default:
		return 0, fmt.Errorf("table.delete: unsupported predicate op %q", pred.Op)
	}
	ct, err := c.db.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s %s $1", idf.Sanitize(), col, op), pred.Value)
	if err != nil {
		return 0, dbutil.ErrWrap("table.delete", err, dbutil.ParamSummary("table", table), dbutil.ParamSummary("column", pred.Column))
	}
	return ct.RowsAffected(), nil
}

// Upsert writes a batch of rows with insert-or-update-on-conflict semantics
// keyed by the given columns. One statement per row, sent as a single pgx
// batch; the whole chunk fails or lands together from the caller's view.
func (c *TableClient) Upsert(ctx context.Context, table string, rows []restore.Record, conflictColumns []string) error {
	if len(rows) == 0 {
		return nil
	}
	if len(conflictColumns) == 0 {
		return fmt.Errorf("table.upsert: no conflict columns for %s", table)
	}
	idf := pgx.Identifier{"public", table}
	batch := &pgx.Batch{}
	for _, row := range rows {
		q, args, err := buildUpsert(idf, row, conflictColumns)
		if err != nil {
			return dbutil.ErrWrap("table.upsert.build", err, dbutil.ParamSummary("table", table))
		}
		batch.Queue(q, args...)
	}
	br := c.db.SendBatch(ctx, batch)
	defer br.Close()
	for range rows {
		if _, err := br.Exec(); err != nil {
			return dbutil.ErrWrap("table.upsert", err,
				dbutil.ParamSummary("table", table), dbutil.ParamSummary("rows", rows))
		}
	}
	return nil
}

// buildUpsert renders INSERT ... ON CONFLICT for one row. Columns come from
// the row itself (snapshot rows may omit columns with defaults); map and
// array values are re-encoded as JSON and cast, matching how rows were
// captured via to_jsonb.
func buildUpsert(idf pgx.Identifier, row restore.Record, conflictColumns []string) (string, []any, error) {
	cols := make([]string, 0, len(row))
	for name := range row {
		cols = append(cols, name)
	}
	sort.Strings(cols)

	names := make([]string, 0, len(cols))
	placeholders := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols))
	for i, name := range cols {
		v := row[name]
		ph := fmt.Sprintf("$%d", i+1)
		switch v.(type) {
		case map[string]any, []any:
			b, err := json.Marshal(v)
			if err != nil {
				return "", nil, err
			}
			v = b
			ph += "::jsonb"
		}
		names = append(names, pgx.Identifier{name}.Sanitize())
		placeholders = append(placeholders, ph)
		args = append(args, v)
	}

	conflict := make([]string, 0, len(conflictColumns))
	isKey := map[string]bool{}
	for _, k := range conflictColumns {
		conflict = append(conflict, pgx.Identifier{k}.Sanitize())
		isKey[k] = true
	}
	var sets []string
	for _, name := range cols {
		if isKey[name] {
			continue
		}
		s := pgx.Identifier{name}.Sanitize()
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", s, s))
	}
	action := "DO NOTHING"
	if len(sets) > 0 {
		action = "DO UPDATE SET " + strings.Join(sets, ", ")
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) %s",
		idf.Sanitize(),
		strings.Join(names, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(conflict, ", "),
		action,
	)
	return q, args, nil
}
