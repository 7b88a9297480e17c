// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/capitolmetrics/capitolsync/internal/models"
)

// InsertJobRun persists the outcome record of one sync run.
func (db *DB) InsertJobRun(ctx context.Context, run *models.JobRun) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `INSERT INTO job_runs (id, job_id, provider, job_type, status, started_at, finished_at,
			records_fetched, records_upserted, api_calls, wait_time_ms, error, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var errStr interface{}
	if run.Error != "" {
		errStr = run.Error
	}
	var meta interface{}
	if run.Metadata != "" {
		meta = run.Metadata
	}

	_, err := db.conn.ExecContext(ctx, query,
		run.ID, run.JobID, run.Provider, run.JobType, run.Status,
		run.StartedAt, run.FinishedAt,
		run.RecordsFetched, run.RecordsUpserted, run.APICalls, run.WaitTimeMs,
		errStr, meta)
	if err != nil {
		return fmt.Errorf("failed to insert job run: %w", err)
	}
	return nil
}

// ListJobRuns returns the most recent runs, newest first. An empty jobID
// returns runs across all jobs.
func (db *DB) ListJobRuns(ctx context.Context, jobID string, limit int) ([]models.JobRun, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, job_id, provider, job_type, status, started_at, finished_at,
			records_fetched, records_upserted, api_calls, wait_time_ms, error, metadata
		FROM job_runs`
	args := []interface{}{}
	if jobID != "" {
		query += ` WHERE job_id = ?`
		args = append(args, jobID)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list job runs: %w", err)
	}
	defer closeQuietly(rows)

	var runs []models.JobRun
	for rows.Next() {
		var run models.JobRun
		var errStr, meta sql.NullString
		err := rows.Scan(&run.ID, &run.JobID, &run.Provider, &run.JobType, &run.Status,
			&run.StartedAt, &run.FinishedAt,
			&run.RecordsFetched, &run.RecordsUpserted, &run.APICalls, &run.WaitTimeMs,
			&errStr, &meta)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job run: %w", err)
		}
		run.Error = errStr.String
		run.Metadata = meta.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate job runs: %w", err)
	}

	return runs, nil
}
