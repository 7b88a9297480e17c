// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package models

import "time"

// Job status values shared by leases, runs, and the progress surface.
const (
	JobStatusIdle     = "idle"
	JobStatusRunning  = "running"
	JobStatusComplete = "complete"
	JobStatusPartial  = "partial"
	JobStatusError    = "error"
)

// Run outcome values for the append-only audit trail.
const (
	RunStatusSucceeded = "succeeded"
	RunStatusPartial   = "partial"
	RunStatusFailed    = "failed"
)

// ScopeGlobal is the scope key for dataset-wide cursors, as opposed to
// per-entity sub-scopes.
const ScopeGlobal = "global"

// SyncCursor is the durable watermark for one (provider, dataset, scope)
// stream. Cursor holds opaque JSON (pagination offsets, the last processed
// roll number, ...) owned by the orchestrator that writes it. A nil Cursor
// means the next run starts a fresh epoch.
type SyncCursor struct {
	Provider      string     `json:"provider"`
	Dataset       string     `json:"dataset"`
	ScopeKey      string     `json:"scope_key"`
	LastSuccessAt *time.Time `json:"last_success_at,omitempty"`
	Cursor        []byte     `json:"cursor,omitempty"`
	RecordsTotal  int        `json:"records_total"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// JobLease is the per-job mutual-exclusion row. The lease is held iff
// LockUntil is non-nil and in the future; a row with status "running" but an
// expired LockUntil is a stale lease from a crashed run and may be reclaimed.
type JobLease struct {
	JobID            string     `json:"job_id"`
	Status           string     `json:"status"`
	LockUntil        *time.Time `json:"lock_until,omitempty"`
	LastRunAt        *time.Time `json:"last_run_at,omitempty"`
	LastSuccessCount int        `json:"last_success_count"`
	LastFailureCount int        `json:"last_failure_count"`
}

// JobRun is one append-only audit record per sync invocation. Immutable once
// written.
type JobRun struct {
	ID              string    `json:"id"`
	JobID           string    `json:"job_id"`
	Provider        string    `json:"provider"`
	JobType         string    `json:"job_type"`
	Status          string    `json:"status"` // succeeded | partial | failed
	StartedAt       time.Time `json:"started_at"`
	FinishedAt      time.Time `json:"finished_at"`
	RecordsFetched  int       `json:"records_fetched"`
	RecordsUpserted int       `json:"records_upserted"`
	APICalls        int       `json:"api_calls"`
	WaitTimeMs      int64     `json:"wait_time_ms"`
	Error           string    `json:"error,omitempty"`
	Metadata        string    `json:"metadata,omitempty"` // opaque JSON
}

// JobProgress is the per-job row exposed to dashboards, refreshed after every
// checkpoint.
type JobProgress struct {
	JobID          string     `json:"job_id"`
	Status         string     `json:"status"`
	TotalProcessed int        `json:"total_processed"`
	Cursor         []byte     `json:"cursor,omitempty"`
	LastRunAt      *time.Time `json:"last_run_at,omitempty"`
	LastSyncedAt   *time.Time `json:"last_synced_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
}
