package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// StateKey is the fixed name the state blob is stored under.
const StateKey = "crmState"

type StoredState struct {
	Data         []byte
	LastModified time.Time
	Version      int
}

type StateRepo struct {
	db *sql.DB
}

func NewStateRepo(db *sql.DB) *StateRepo {
	return &StateRepo{db: db}
}

// Load returns the stored blob, or nil when nothing has been saved yet.
func (r *StateRepo) Load(ctx context.Context) (*StoredState, error) {
	row := r.db.QueryRowContext(ctx, `SELECT data, last_modified, version FROM app_state WHERE key = ?`, StateKey)
	var (
		data    string
		lm      sql.NullTime
		version int
	)
	if err := row.Scan(&data, &lm, &version); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("state load: %w", err)
	}
	out := &StoredState{Data: []byte(data), Version: version}
	if lm.Valid {
		out.LastModified = lm.Time.UTC()
	}
	return out, nil
}

// Save writes the blob and bumps its version.
func (r *StateRepo) Save(ctx context.Context, data []byte, lastModified time.Time) error {
	return inTx(ctx, r.db, "state save", func(tx *sql.Tx) error {
		var version int
		err := tx.QueryRowContext(ctx, `SELECT version FROM app_state WHERE key = ?`, StateKey).Scan(&version)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("state version: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO app_state (key, data, last_modified, version) VALUES (?, ?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET
				data = excluded.data,
				last_modified = excluded.last_modified,
				version = excluded.version
		`, StateKey, string(data), lastModified.UTC(), version+1)
		if err != nil {
			return fmt.Errorf("state save: %w", err)
		}
		return nil
	})
}
