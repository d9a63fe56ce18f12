package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SyncLogKeep is how many journal rows survive each append.
const SyncLogKeep = 500

type SyncLogRepo struct {
	db   *sql.DB
	keep int
}

func NewSyncLogRepo(db *sql.DB) *SyncLogRepo {
	return &SyncLogRepo{db: db, keep: SyncLogKeep}
}

// successActions are the journal actions written after a remote exchange
// succeeded.
const successActions = `('download', 'upload', 'push', 'noop')`

// Append records one sync decision and drops rows beyond the newest keep.
// The newest success row is never dropped.
func (r *SyncLogRepo) Append(ctx context.Context, action string, detail string) error {
	return inTx(ctx, r.db, "sync log append", func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO sync_log (at, action, detail) VALUES (?, ?, ?)`, time.Now().UTC(), action, detail)
		if err != nil {
			return fmt.Errorf("sync log append: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			DELETE FROM sync_log
			WHERE id NOT IN (SELECT id FROM sync_log ORDER BY id DESC LIMIT ?)
			  AND id <> COALESCE((SELECT MAX(id) FROM sync_log WHERE action IN `+successActions+`), 0)
		`, r.keep)
		if err != nil {
			return fmt.Errorf("sync log prune: %w", err)
		}
		return nil
	})
}

// HasSynced reports whether a remote exchange ever succeeded.
func (r *SyncLogRepo) HasSynced(ctx context.Context) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM sync_log WHERE action IN `+successActions+`)`).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("sync log lookup: %w", err)
	}
	return ok, nil
}

// Recent returns the newest entries first.
func (r *SyncLogRepo) Recent(ctx context.Context, limit int) ([]SyncEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, at, action, detail
		FROM sync_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("sync log list: %w", err)
	}
	defer rows.Close()

	var out []SyncEntry
	for rows.Next() {
		var (
			e      SyncEntry
			detail sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.At, &e.Action, &detail); err != nil {
			return nil, fmt.Errorf("sync log scan: %w", err)
		}
		e.Detail = detail.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sync log rows: %w", err)
	}
	return out, nil
}
