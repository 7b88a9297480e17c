// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/capitolmetrics/capitolsync/internal/models"
)

// GetSyncCursor returns the cursor row for one (provider, dataset, scope)
// stream, or nil if the stream has never checkpointed.
func (db *DB) GetSyncCursor(ctx context.Context, provider, dataset, scopeKey string) (*models.SyncCursor, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT provider, dataset, scope_key, last_success_at, cursor, records_total, updated_at
		FROM sync_cursors WHERE provider = ? AND dataset = ? AND scope_key = ?`

	row := db.conn.QueryRowContext(ctx, query, provider, dataset, scopeKey)

	cur := &models.SyncCursor{}
	var lastSuccess sql.NullTime
	var cursorJSON sql.NullString

	err := row.Scan(&cur.Provider, &cur.Dataset, &cur.ScopeKey, &lastSuccess, &cursorJSON, &cur.RecordsTotal, &cur.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sync cursor: %w", err)
	}

	if lastSuccess.Valid {
		t := lastSuccess.Time
		cur.LastSuccessAt = &t
	}
	if cursorJSON.Valid && cursorJSON.String != "" {
		cur.Cursor = []byte(cursorJSON.String)
	}

	return cur, nil
}

// PutSyncCursor creates or updates a cursor row. A nil cursor clears the
// resumption point (epoch complete); success=true additionally advances
// last_success_at to now. last_success_at never moves backward.
func (db *DB) PutSyncCursor(ctx context.Context, provider, dataset, scopeKey string, cursor []byte, recordsTotal int, success bool) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	now := time.Now().UTC()

	var cursorVal interface{}
	if len(cursor) > 0 {
		cursorVal = string(cursor)
	}

	var successVal interface{}
	if success {
		successVal = now
	}

	// GREATEST keeps last_success_at monotonic even if a lagging writer
	// supplies an older timestamp.
	query := `INSERT INTO sync_cursors (provider, dataset, scope_key, last_success_at, cursor, records_total, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (provider, dataset, scope_key) DO UPDATE SET
			last_success_at = GREATEST(COALESCE(excluded.last_success_at, sync_cursors.last_success_at), COALESCE(sync_cursors.last_success_at, excluded.last_success_at)),
			cursor = excluded.cursor,
			records_total = excluded.records_total,
			updated_at = excluded.updated_at`

	if _, err := db.conn.ExecContext(ctx, query, provider, dataset, scopeKey, successVal, cursorVal, recordsTotal, now); err != nil {
		return fmt.Errorf("failed to put sync cursor: %w", err)
	}

	return nil
}
