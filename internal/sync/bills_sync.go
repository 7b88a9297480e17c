// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/capitolmetrics/capitolsync/internal/models"
)

// billsCursor is the bills job's resumption point within an epoch.
type billsCursor struct {
	Congress int `json:"congress"`
	Offset   int `json:"offset"`
}

// JobBills scans the current congress's bill feed page by page, upserting on
// the (congress, bill_type, bill_number) natural key.
const JobBills = "bills"

func (m *Manager) syncBills(ctx context.Context, opts SyncOptions) SyncResult {
	jobCfg := m.cfg.Jobs.Bills
	return runJob(ctx, m.store, JobBills, ProviderCongress, "bills", models.ScopeGlobal, jobCfg, opts,
		func(ctx context.Context, r *jobRun) error {
			congress := currentCongress(time.Now())

			var cur billsCursor
			resumed, total, err := r.loadCursor(ctx, &cur)
			if err != nil {
				return fmt.Errorf("load bills cursor: %w", err)
			}
			if !resumed || cur.Congress != congress {
				// New epoch, or the stored cursor belongs to a previous
				// congress and restarts against the current one.
				cur = billsCursor{Congress: congress}
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

				page, _, stats, err := m.congress.FetchBills(ctx, cur.Congress, cur.Offset, limit, r.budget)
				r.addStats(stats)
				if err != nil {
					return fmt.Errorf("fetch bills page at offset %d: %w", cur.Offset, err)
				}
				if len(page) == 0 {
					// 404 or empty page past the feed's end: epoch done.
					return r.completeEpoch(ctx, total)
				}

				r.fetched += len(page)
				page, err = m.enrichBills(ctx, r, page)
				if err != nil {
					return fmt.Errorf("enrich bills page at offset %d: %w", cur.Offset, err)
				}
				if err := m.store.UpsertBills(ctx, page); err != nil {
					return fmt.Errorf("upsert bills page: %w", err)
				}
				r.upserted += len(page)
				total += len(page)
				cur.Offset += len(page)
				pages++

				windDown := stats.BudgetExhausted
				if pages%every == 0 || windDown {
					if err := r.checkpoint(ctx, cur, total); err != nil {
						return fmt.Errorf("checkpoint bills cursor: %w", err)
					}
				}
				if windDown {
					return nil
				}
			}
		})
}

// billDetail pairs a detail fetch with its request cost so worker results
// can be folded into the run's counters after the pool joins.
type billDetail struct {
	bill  models.Bill
	stats RequestStats
}

// enrichBills fans out per-bill detail calls over the worker pool. Detail
// fetches are read-only and unordered, the pool strategy's home ground. A
// 404 detail (bill withdrawn between list and detail) keeps the list row.
func (m *Manager) enrichBills(ctx context.Context, r *jobRun, page []models.Bill) ([]models.Bill, error) {
	details, err := ProcessPool(ctx, page, m.cfg.Jobs.Workers, func(ctx context.Context, b models.Bill) (billDetail, error) {
		d, stats, err := m.congress.FetchBillDetail(ctx, b.Congress, b.BillType, b.BillNumber, r.budget)
		if err != nil {
			return billDetail{stats: stats}, err
		}
		if d == nil {
			return billDetail{bill: b, stats: stats}, nil
		}
		return billDetail{bill: *d, stats: stats}, nil
	})
	if err != nil {
		return nil, err
	}

	enriched := make([]models.Bill, 0, len(details))
	for _, d := range details {
		r.addStats(d.stats)
		enriched = append(enriched, d.bill)
	}
	return enriched, nil
}

// currentCongress maps a date to its congress number. The Nth congress
// convenes in January of 1789 + 2(N-1).
func currentCongress(t time.Time) int {
	return (t.Year()-1789)/2 + 1
}
