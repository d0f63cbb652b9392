package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/miraijuku/kanri/internal/dao/dbutil"
	"github.com/miraijuku/kanri/internal/restore"
)

// RestoreLogDAO persists and reads the append-only restore audit trail.
type RestoreLogDAO struct {
	db *pgxpool.Pool
}

func NewRestoreLogDAO(db *pgxpool.Pool) *RestoreLogDAO {
	return &RestoreLogDAO{db: db}
}

// EnsureRestoreLogSchema creates the audit table if missing. It does not
// require superuser privileges.
func EnsureRestoreLogSchema(ctx context.Context, db *pgxpool.Pool) error {
	_, err := db.Exec(ctx, `CREATE TABLE IF NOT EXISTS public.restore_logs (
        id TEXT PRIMARY KEY,
        file_name TEXT NOT NULL,
        status TEXT NOT NULL,
        tables_count INTEGER NOT NULL DEFAULT 0,
        total_rows INTEGER NOT NULL DEFAULT 0,
        file_size_bytes BIGINT NOT NULL DEFAULT 0,
        duration_ms BIGINT NOT NULL DEFAULT 0,
        error_message TEXT NULL,
        created_at TIMESTAMPTZ NOT NULL DEFAULT now()
    )`)
	return dbutil.ErrWrap("restore_log.ensure_schema", err)
}

// LogRestore appends one summary row. Rows are never updated in place.
func (d *RestoreLogDAO) LogRestore(ctx context.Context, sum restore.Summary) error {
	var errMsg *string
	if sum.ErrorMessage != "" {
		v := sum.ErrorMessage
		errMsg = &v
	}
	_, err := d.db.Exec(ctx, `INSERT INTO public.restore_logs
        (id, file_name, status, tables_count, total_rows, file_size_bytes, duration_ms, error_message, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sum.ID, sum.FileName, sum.Status, sum.TablesCount, sum.TotalRows,
		sum.FileSizeBytes, sum.DurationMs, errMsg, sum.CreatedAt)
	return dbutil.ErrWrap("restore_log.insert", err,
		dbutil.ParamSummary("id", sum.ID), dbutil.ParamSummary("file", sum.FileName), dbutil.ParamSummary("status", sum.Status))
}

// ListRestoreLogs returns the most recent audit records, newest first.
func (d *RestoreLogDAO) ListRestoreLogs(ctx context.Context, limit int) ([]restore.Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.Query(ctx, `SELECT id, file_name, status, tables_count, total_rows,
        file_size_bytes, duration_ms, COALESCE(error_message, ''), created_at
        FROM public.restore_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, dbutil.ErrWrap("restore_log.list", err, dbutil.ParamSummary("limit", limit))
	}
	defer rows.Close()
	var out []restore.Summary
	for rows.Next() {
		var s restore.Summary
		if err := rows.Scan(&s.ID, &s.FileName, &s.Status, &s.TablesCount, &s.TotalRows,
			&s.FileSizeBytes, &s.DurationMs, &s.ErrorMessage, &s.CreatedAt); err != nil {
			return nil, dbutil.ErrWrap("restore_log.list.scan", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, dbutil.ErrWrap("restore_log.list", err)
	}
	return out, nil
}
