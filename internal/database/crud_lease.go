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

// ErrLeaseHeld is returned by AcquireLease when another runner holds a
// live lease on the job.
var ErrLeaseHeld = errors.New("job lease held by another runner")

// AcquireLease marks a job as running and sets its lock expiry. It fails
// with ErrLeaseHeld if the job is already running under an unexpired lock;
// an expired lock is taken over so crashed runners do not wedge the job.
func (db *DB) AcquireLease(ctx context.Context, jobID string, lockDuration time.Duration) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin lease transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	var lockUntil sql.NullTime
	row := tx.QueryRowContext(ctx, `SELECT status, lock_until FROM job_leases WHERE job_id = ?`, jobID)
	err = row.Scan(&status, &lockUntil)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read job lease: %w", err)
	}

	now := time.Now().UTC()
	if err == nil && status == models.JobStatusRunning {
		if lockUntil.Valid && lockUntil.Time.After(now) {
			return ErrLeaseHeld
		}
	}

	until := now.Add(lockDuration)
	query := `INSERT INTO job_leases (job_id, status, lock_until, last_run_at, last_success_count, last_failure_count)
		VALUES (?, ?, ?, ?, 0, 0)
		ON CONFLICT (job_id) DO UPDATE SET
			status = excluded.status,
			lock_until = excluded.lock_until,
			last_run_at = excluded.last_run_at`

	if _, err := tx.ExecContext(ctx, query, jobID, models.JobStatusRunning, until, now); err != nil {
		return fmt.Errorf("failed to acquire job lease: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit lease acquisition: %w", err)
	}

	return nil
}

// ExtendLease pushes the lock expiry forward for a long-running job.
func (db *DB) ExtendLease(ctx context.Context, jobID string, lockDuration time.Duration) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	until := time.Now().UTC().Add(lockDuration)
	query := `UPDATE job_leases SET lock_until = ? WHERE job_id = ? AND status = ?`
	if _, err := db.conn.ExecContext(ctx, query, until, jobID, models.JobStatusRunning); err != nil {
		return fmt.Errorf("failed to extend job lease: %w", err)
	}
	return nil
}

// ReleaseLease records the terminal status of a run and clears the lock.
func (db *DB) ReleaseLease(ctx context.Context, jobID, status string, successCount, failureCount int) error {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `UPDATE job_leases SET
			status = ?,
			lock_until = NULL,
			last_success_count = ?,
			last_failure_count = ?
		WHERE job_id = ?`

	if _, err := db.conn.ExecContext(ctx, query, status, successCount, failureCount, jobID); err != nil {
		return fmt.Errorf("failed to release job lease: %w", err)
	}
	return nil
}

// GetLease returns the lease row for a job, or nil if the job has never run.
func (db *DB) GetLease(ctx context.Context, jobID string) (*models.JobLease, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	query := `SELECT job_id, status, lock_until, last_run_at, last_success_count, last_failure_count
		FROM job_leases WHERE job_id = ?`

	row := db.conn.QueryRowContext(ctx, query, jobID)

	lease := &models.JobLease{}
	var lockUntil, lastRun sql.NullTime

	err := row.Scan(&lease.JobID, &lease.Status, &lockUntil, &lastRun, &lease.LastSuccessCount, &lease.LastFailureCount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get job lease: %w", err)
	}

	if lockUntil.Valid {
		t := lockUntil.Time
		lease.LockUntil = &t
	}
	if lastRun.Valid {
		t := lastRun.Time
		lease.LastRunAt = &t
	}

	return lease, nil
}
