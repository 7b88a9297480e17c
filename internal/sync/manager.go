// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	"github.com/capitolmetrics/capitolsync/internal/config"
	"github.com/capitolmetrics/capitolsync/internal/logging"
)

// Manager owns the provider clients, the matcher, and the job schedules. It
// is the single entry point for both scheduled and manually triggered runs;
// the two share the same orchestrators and therefore the same leases.
type Manager struct {
	cfg   *config.Config
	store Store

	congress    *CongressClient
	fec         fecAPI
	houseVotes  *VotesClient
	senateVotes *VotesClient
	matcher     *EntityMatcher

	runWG gosync.WaitGroup
}

// NewManager wires the manager from config. The FEC client is wrapped in a
// circuit breaker; the remaining providers rely on the retry layer alone.
func NewManager(cfg *config.Config, store Store) *Manager {
	return &Manager{
		cfg:         cfg,
		store:       store,
		congress:    NewCongressClient(&cfg.Congress),
		fec:         NewFECBreakerClient(&cfg.FEC),
		houseVotes:  NewHouseVotesClient(&cfg.HouseClerk),
		senateVotes: NewSenateVotesClient(&cfg.SenateGov),
		matcher:     NewEntityMatcher(),
	}
}

// Jobs in scheduling order: members first, because votes (senate matching)
// and finance (candidate matching) both read the legislators table.
var scheduledJobs = []string{JobMembers, JobBills, JobVotes, JobFinance}

// TriggerSync runs one job synchronously and returns its outcome. Unknown
// jobs return a failed result, not an error, so the API layer has one shape
// to encode.
func (m *Manager) TriggerSync(ctx context.Context, job string, opts SyncOptions) SyncResult {
	if opts.Mode == "" {
		opts.Mode = "delta"
	}

	switch job {
	case JobMembers:
		return m.syncMembers(ctx, opts)
	case JobBills:
		return m.syncBills(ctx, opts)
	case JobVotes:
		return m.syncVotes(ctx, opts)
	case JobFinance:
		return m.syncFinance(ctx, opts)
	default:
		return SyncResult{Success: false, Message: fmt.Sprintf("unknown job %q", job)}
	}
}

// JobProvider maps a job to the provider its global cursor lives under, for
// the progress surface.
func JobProvider(job string) (provider, dataset string, ok bool) {
	switch job {
	case JobMembers:
		return ProviderCongress, "members", true
	case JobBills:
		return ProviderCongress, "bills", true
	case JobVotes:
		return ProviderHouseClerk, "votes_house", true
	case JobFinance:
		return ProviderFEC, "finance", true
	default:
		return "", "", false
	}
}

// Serve runs the job schedules until the context is cancelled. It satisfies
// suture.Service; a panic inside a run is the supervisor's to restart.
func (m *Manager) Serve(ctx context.Context) error {
	logging.Info().Bool("sync_on_startup", m.cfg.Jobs.SyncOnStartup).Msg("Sync manager starting")

	if m.cfg.Jobs.SyncOnStartup {
		m.runScheduled(ctx)
	}

	for _, job := range scheduledJobs {
		jobCfg := m.jobConfig(job)
		if !jobCfg.Enabled || jobCfg.Interval <= 0 {
			logging.Info().Str("job", job).Msg("Job disabled, not scheduling")
			continue
		}
		m.runWG.Add(1)
		go m.scheduleLoop(ctx, job, jobCfg.Interval)
	}

	<-ctx.Done()
	m.runWG.Wait()
	logging.Info().Msg("Sync manager stopped")
	return ctx.Err()
}

// scheduleLoop ticks one job. Overlap with a manual trigger is resolved by
// the lease, not the schedule.
func (m *Manager) scheduleLoop(ctx context.Context, job string, interval time.Duration) {
	defer m.runWG.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result := m.TriggerSync(ctx, job, SyncOptions{Mode: "delta"})
			if !result.Success && !result.Paused && !result.AlreadyRunning {
				logging.Error().Str("job", job).Str("message", result.Message).Msg("Scheduled sync failed")
			}
		}
	}
}

// runScheduled performs one startup pass over all enabled jobs, in order.
func (m *Manager) runScheduled(ctx context.Context) {
	for _, job := range scheduledJobs {
		if ctx.Err() != nil {
			return
		}
		if !m.jobConfig(job).Enabled {
			continue
		}
		m.TriggerSync(ctx, job, SyncOptions{Mode: "delta"})
	}
}

func (m *Manager) jobConfig(job string) config.JobConfig {
	switch job {
	case JobMembers:
		return m.cfg.Jobs.Members
	case JobBills:
		return m.cfg.Jobs.Bills
	case JobVotes:
		return m.cfg.Jobs.Votes
	case JobFinance:
		return m.cfg.Jobs.Finance
	default:
		return config.JobConfig{}
	}
}

// String names the service in supervisor logs.
func (m *Manager) String() string {
	return "sync-manager"
}
