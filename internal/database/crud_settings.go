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

const settingSyncPaused = "sync_paused"

func (db *DB) getSetting(ctx context.Context, key string) (string, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key = ?`, key)
	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, nil
}

func (db *DB) putSetting(ctx context.Context, key, value string) error {
	query := `INSERT INTO app_settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	if _, err := db.conn.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// IsSyncPaused reports the persisted pause flag. Missing rows mean not paused.
func (db *DB) IsSyncPaused(ctx context.Context) (bool, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	value, err := db.getSetting(ctx, settingSyncPaused)
	if err != nil {
		return false, err
	}
	return value == "true", nil
}

// SetSyncPaused persists the pause flag so it survives restarts.
func (db *DB) SetSyncPaused(ctx context.Context, paused bool) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	value := "false"
	if paused {
		value = "true"
	}
	return db.putSetting(ctx, settingSyncPaused, value)
}

// GetJobProgress summarizes lease state and cursor counts for one job,
// for the status API.
func (db *DB) GetJobProgress(ctx context.Context, jobID, provider, dataset string) (*models.JobProgress, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	progress := &models.JobProgress{JobID: jobID}

	lease, err := db.GetLease(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if lease != nil {
		progress.Status = lease.Status
		progress.LastRunAt = lease.LastRunAt
	} else {
		progress.Status = models.JobStatusIdle
	}

	cursor, err := db.GetSyncCursor(ctx, provider, dataset, models.ScopeGlobal)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		progress.LastSyncedAt = cursor.LastSuccessAt
		progress.TotalProcessed = cursor.RecordsTotal
		progress.Cursor = cursor.Cursor
	}

	return progress, nil
}
