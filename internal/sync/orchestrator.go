// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

/*
orchestrator.go - Shared Run Scaffold

Every sync job runs the same outer shape:

	pause check -> lease acquire -> cursor load -> job body -> cursor write
	  -> lease release -> JobRun audit record

The body reports progress through the jobRun accumulator; the scaffold turns
the outcome into lease status (complete/partial/error), a run status
(succeeded/partial/failed), and the API-facing SyncResult. A paused engine
returns before the lease is touched; a held lease returns already_running.
*/
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/capitolmetrics/capitolsync/internal/config"
	"github.com/capitolmetrics/capitolsync/internal/database"
	"github.com/capitolmetrics/capitolsync/internal/logging"
	"github.com/capitolmetrics/capitolsync/internal/metrics"
	"github.com/capitolmetrics/capitolsync/internal/models"
)

// SyncOptions are the caller-facing knobs on one triggered run.
type SyncOptions struct {
	Mode       string // "delta" (default) resumes the cursor; "full" restarts the epoch
	Offset     int    // manual page override, full mode only
	Limit      int    // manual page-size override
	Reset      bool   // clear the stored cursor before running
	BioguideID string // finance only: target one legislator
}

// SyncResult is the outcome surface returned to the API.
type SyncResult struct {
	Success         bool   `json:"success"`
	Paused          bool   `json:"paused,omitempty"`
	AlreadyRunning  bool   `json:"already_running,omitempty"`
	Message         string `json:"message,omitempty"`
	Status          string `json:"status,omitempty"`
	RecordsFetched  int    `json:"records_fetched"`
	RecordsUpserted int    `json:"records_upserted"`
	APICalls        int    `json:"api_calls"`
	WaitTimeMs      int64  `json:"wait_time_ms"`
}

// jobRun accumulates one run's progress and owns its cursor writes.
type jobRun struct {
	jobID    string
	provider string
	dataset  string
	scopeKey string
	store    Store
	budget   *TimeBudget
	opts     SyncOptions

	fetched  int
	upserted int
	apiCalls int
	waitTime time.Duration

	// epochComplete marks that the body reached the natural end of its
	// feed; anything less is a partial run.
	epochComplete bool
}

func (r *jobRun) addStats(s RequestStats) {
	r.apiCalls += s.APICalls
	r.waitTime += s.WaitTime
}

// loadCursor returns the stored resumption cursor decoded into dst, honoring
// full mode and the reset flag. ok=false means the run starts a fresh epoch.
func (r *jobRun) loadCursor(ctx context.Context, dst interface{}) (ok bool, recordsTotal int, err error) {
	if r.opts.Reset {
		if err := r.store.PutSyncCursor(ctx, r.provider, r.dataset, r.scopeKey, nil, 0, false); err != nil {
			return false, 0, err
		}
		return false, 0, nil
	}

	cur, err := r.store.GetSyncCursor(ctx, r.provider, r.dataset, r.scopeKey)
	if err != nil {
		return false, 0, err
	}
	if cur == nil {
		return false, 0, nil
	}
	if r.opts.Mode == "full" || len(cur.Cursor) == 0 {
		return false, cur.RecordsTotal, nil
	}
	if err := json.Unmarshal(cur.Cursor, dst); err != nil {
		// A cursor this run cannot read is stale bookkeeping; start over.
		logging.Warn().Err(err).Str("job", r.jobID).Msg("Discarding undecodable cursor")
		return false, cur.RecordsTotal, nil
	}
	return true, cur.RecordsTotal, nil
}

// checkpoint persists the resumption cursor mid-epoch.
func (r *jobRun) checkpoint(ctx context.Context, cursor interface{}, recordsTotal int) error {
	payload, err := json.Marshal(cursor)
	if err != nil {
		return fmt.Errorf("marshal cursor: %w", err)
	}
	return r.store.PutSyncCursor(ctx, r.provider, r.dataset, r.scopeKey, payload, recordsTotal, false)
}

// completeEpoch clears the cursor and advances the success watermark.
func (r *jobRun) completeEpoch(ctx context.Context, recordsTotal int) error {
	r.epochComplete = true
	return r.store.PutSyncCursor(ctx, r.provider, r.dataset, r.scopeKey, nil, recordsTotal, true)
}

// markCaughtUp records success while retaining a cursor, for append-only
// feeds (votes) that have a high-water mark instead of epochs.
func (r *jobRun) markCaughtUp(ctx context.Context, cursor interface{}, recordsTotal int) error {
	payload, err := json.Marshal(cursor)
	if err != nil {
		return fmt.Errorf("marshal cursor: %w", err)
	}
	r.epochComplete = true
	return r.store.PutSyncCursor(ctx, r.provider, r.dataset, r.scopeKey, payload, recordsTotal, true)
}

// runJob executes one job body under the shared scaffold.
func runJob(ctx context.Context, store Store, jobID, provider, dataset, scopeKey string, jobCfg config.JobConfig, opts SyncOptions, body func(ctx context.Context, r *jobRun) error) SyncResult {
	paused, err := store.IsSyncPaused(ctx)
	if err != nil {
		return SyncResult{Success: false, Message: fmt.Sprintf("pause check failed: %v", err)}
	}
	if paused {
		logging.Info().Str("job", jobID).Msg("Sync paused, skipping run")
		return SyncResult{Success: false, Paused: true, Message: "sync is paused"}
	}

	if err := store.AcquireLease(ctx, jobID, jobCfg.MaxDuration); err != nil {
		if errors.Is(err, database.ErrLeaseHeld) {
			return SyncResult{Success: false, AlreadyRunning: true, Message: "job already running"}
		}
		return SyncResult{Success: false, Message: fmt.Sprintf("lease acquisition failed: %v", err)}
	}

	run := &jobRun{
		jobID:    jobID,
		provider: provider,
		dataset:  dataset,
		scopeKey: scopeKey,
		store:    store,
		budget:   NewTimeBudget(jobCfg.Budget),
		opts:     opts,
	}

	started := time.Now().UTC()
	logging.Info().Str("job", jobID).Str("mode", opts.Mode).Msg("Sync run started")

	bodyErr := body(ctx, run)
	if errors.Is(bodyErr, errBudgetWindDown) {
		// A retryable response abandoned at wind-down. The cursor still
		// points at the unfinished unit; the next run resumes there.
		run.epochComplete = false
		bodyErr = nil
	}
	finished := time.Now().UTC()

	leaseStatus, runStatus, message := classifyOutcome(run, bodyErr)

	if err := store.ReleaseLease(ctx, jobID, leaseStatus, run.upserted, run.fetched-run.upserted); err != nil {
		logging.Error().Err(err).Str("job", jobID).Msg("Failed to release job lease")
	}

	audit := &models.JobRun{
		ID:              uuid.NewString(),
		JobID:           jobID,
		Provider:        provider,
		JobType:         dataset,
		Status:          runStatus,
		StartedAt:       started,
		FinishedAt:      finished,
		RecordsFetched:  run.fetched,
		RecordsUpserted: run.upserted,
		APICalls:        run.apiCalls,
		WaitTimeMs:      run.waitTime.Milliseconds(),
	}
	if bodyErr != nil {
		audit.Error = bodyErr.Error()
	}
	if err := store.InsertJobRun(ctx, audit); err != nil {
		logging.Error().Err(err).Str("job", jobID).Msg("Failed to record job run")
	}

	metrics.RecordSyncRun(jobID, runStatus, finished.Sub(started))
	metrics.RecordsFetched.WithLabelValues(jobID).Add(float64(run.fetched))
	metrics.RecordsUpserted.WithLabelValues(jobID).Add(float64(run.upserted))

	logging.Info().
		Str("job", jobID).
		Str("status", runStatus).
		Int("fetched", run.fetched).
		Int("upserted", run.upserted).
		Int("api_calls", run.apiCalls).
		Dur("wait_time", run.waitTime).
		Dur("duration", finished.Sub(started)).
		Msg("Sync run finished")

	return SyncResult{
		Success:         bodyErr == nil,
		Message:         message,
		Status:          runStatus,
		RecordsFetched:  run.fetched,
		RecordsUpserted: run.upserted,
		APICalls:        run.apiCalls,
		WaitTimeMs:      run.waitTime.Milliseconds(),
	}
}

// classifyOutcome maps a finished body to lease status, run status, and the
// API message. Budget exhaustion is a recognized soft stop, not a failure.
func classifyOutcome(run *jobRun, bodyErr error) (leaseStatus, runStatus, message string) {
	switch {
	case bodyErr != nil:
		return models.JobStatusError, models.RunStatusFailed, bodyErr.Error()
	case run.epochComplete:
		return models.JobStatusComplete, models.RunStatusSucceeded, "sync complete"
	default:
		return models.JobStatusPartial, models.RunStatusPartial, "budget exhausted, cursor retained"
	}
}
