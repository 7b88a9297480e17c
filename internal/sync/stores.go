// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package sync

import (
	"context"
	"time"

	"github.com/capitolmetrics/capitolsync/internal/database"
	"github.com/capitolmetrics/capitolsync/internal/models"
)

// StateStore is the engine's own durable bookkeeping: cursors, leases, run
// history, and the global pause flag. Injected so orchestrator tests run
// against in-memory fakes.
type StateStore interface {
	GetSyncCursor(ctx context.Context, provider, dataset, scopeKey string) (*models.SyncCursor, error)
	PutSyncCursor(ctx context.Context, provider, dataset, scopeKey string, cursor []byte, recordsTotal int, success bool) error

	AcquireLease(ctx context.Context, jobID string, lockDuration time.Duration) error
	ExtendLease(ctx context.Context, jobID string, lockDuration time.Duration) error
	ReleaseLease(ctx context.Context, jobID, status string, successCount, failureCount int) error
	GetLease(ctx context.Context, jobID string) (*models.JobLease, error)

	InsertJobRun(ctx context.Context, run *models.JobRun) error
	ListJobRuns(ctx context.Context, jobID string, limit int) ([]models.JobRun, error)

	IsSyncPaused(ctx context.Context) (bool, error)
	SetSyncPaused(ctx context.Context, paused bool) error
	GetJobProgress(ctx context.Context, jobID, provider, dataset string) (*models.JobProgress, error)
}

// RecordStore is the destination slice the engine reconciles into.
type RecordStore interface {
	UpsertLegislator(ctx context.Context, leg *models.Legislator) error
	SetFECCandidateID(ctx context.Context, bioguideID, fecCandidateID string, score int) error
	GetLegislator(ctx context.Context, bioguideID string) (*models.Legislator, error)
	ListLegislators(ctx context.Context, inOfficeOnly bool) ([]models.Legislator, error)

	UpsertBills(ctx context.Context, bills []models.Bill) error
	UpsertRollCall(ctx context.Context, rc *models.RollCall) error
	ReplaceFinanceFilings(ctx context.Context, fecCandidateID string, cycle int, filings []models.FinanceFiling) error
	UpsertFinanceTotals(ctx context.Context, totals *models.FinanceTotals) error
}

// Store is everything an orchestrator needs from persistence.
type Store interface {
	StateStore
	RecordStore
}

var _ Store = (*database.DB)(nil)
