// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package sync

import (
	"context"
	"fmt"

	"github.com/capitolmetrics/capitolsync/internal/logging"
	"github.com/capitolmetrics/capitolsync/internal/models"
)

// membersCursor is the members job's resumption point within an epoch.
type membersCursor struct {
	Offset int `json:"offset"`
}

// JobMembers keeps the legislators table current from the member listing.
// It runs a full scan every epoch; member records are small and the listing
// has no reliable delta feed.
const JobMembers = "members"

func (m *Manager) syncMembers(ctx context.Context, opts SyncOptions) SyncResult {
	jobCfg := m.cfg.Jobs.Members
	return runJob(ctx, m.store, JobMembers, ProviderCongress, "members", models.ScopeGlobal, jobCfg, opts,
		func(ctx context.Context, r *jobRun) error {
			var cur membersCursor
			resumed, total, err := r.loadCursor(ctx, &cur)
			if err != nil {
				return fmt.Errorf("load members cursor: %w", err)
			}
			if !resumed {
				cur = membersCursor{}
				total = 0
			}
			if opts.Mode == "full" && opts.Offset > 0 {
				cur.Offset = opts.Offset
			}

			limit := jobCfg.BatchSize
			if opts.Limit > 0 {
				limit = opts.Limit
			}

			every := m.cfg.Jobs.CheckpointEvery
			if every < 1 {
				every = 1
			}
			pages := 0

			for {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if !r.budget.ShouldContinue() {
					return r.checkpoint(ctx, cur, total)
				}

				page, upstreamCount, stats, err := m.congress.FetchMembers(ctx, cur.Offset, limit, r.budget)
				r.addStats(stats)
				if err != nil {
					return fmt.Errorf("fetch members page at offset %d: %w", cur.Offset, err)
				}
				if len(page) == 0 {
					return r.completeEpoch(ctx, total)
				}

				r.fetched += len(page)

				// One malformed member must not sink the page; failures are
				// recorded and skipped.
				results, itemErrs, _, err := ProcessChunkedTolerant(ctx, page, m.cfg.Jobs.Workers, m.cfg.Jobs.ChunkDelay, nil,
					func(ctx context.Context, leg models.Legislator) (string, error) {
						if leg.BioguideID == "" {
							return "", fmt.Errorf("member record missing bioguide id")
						}
						if err := m.store.UpsertLegislator(ctx, &leg); err != nil {
							return "", err
						}
						return leg.BioguideID, nil
					})
				if err != nil {
					return fmt.Errorf("upsert members page: %w", err)
				}
				for _, ie := range itemErrs {
					logging.Warn().Err(ie.Err).Int("index", ie.Index).Msg("Skipping malformed member record")
				}
				r.upserted += len(results)
				total += len(page)
				cur.Offset += len(page)
				pages++

				// The envelope's count ends the epoch without an extra
				// request for an empty page.
				if upstreamCount > 0 && cur.Offset >= upstreamCount {
					return r.completeEpoch(ctx, total)
				}

				// Cursor writes are batched to the configured interval; a
				// wind-down exit always persists the resumption point.
				windDown := stats.BudgetExhausted
				if pages%every == 0 || windDown {
					if err := r.checkpoint(ctx, cur, total); err != nil {
						return fmt.Errorf("checkpoint members cursor: %w", err)
					}
				}
				if windDown {
					return nil
				}
			}
		})
}
