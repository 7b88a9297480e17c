// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

/*
finance_sync.go - Campaign-Finance Orchestrator

The finance job fans out over in-office legislators. Per legislator:

 1. resolve the finance candidate (cached id, or matcher over a fresh
    candidate search); no match means skip, never error
 2. fetch cycle totals and upsert
 3. page through itemized receipts and replace the (candidate, cycle)
    partition wholesale

A legislator is the checkpoint unit: the cursor records the last fully
reconciled legislator, and a partition is only ever replaced with a
completely fetched receipt set. Budget wind-down mid-legislator abandons
that legislator's data and resumes there next run.
*/
package sync

import (
	"context"
	"fmt"

	"github.com/capitolmetrics/capitolsync/internal/logging"
	"github.com/capitolmetrics/capitolsync/internal/models"
)

// fecAPI is the slice of the campaign-finance client the orchestrator
// needs; satisfied by FECClient and its breaker wrapper.
type fecAPI interface {
	SearchCandidates(ctx context.Context, lastName, state string, budget *TimeBudget) ([]models.FinanceCandidate, RequestStats, error)
	FetchTotals(ctx context.Context, candidateID string, cycle int, budget *TimeBudget) (*models.FinanceTotals, RequestStats, error)
	FetchScheduleA(ctx context.Context, candidateID string, cycle, perPage int, lastIndex string, budget *TimeBudget) ([]ScheduleAReceipt, string, RequestStats, error)
}

// financeCursor records the last fully reconciled legislator within an
// epoch, in ListLegislators order.
type financeCursor struct {
	LastBioguideID string `json:"last_bioguide_id"`
}

// JobFinance reconciles campaign-finance data for all matched legislators.
const JobFinance = "finance"

func (m *Manager) syncFinance(ctx context.Context, opts SyncOptions) SyncResult {
	jobCfg := m.cfg.Jobs.Finance

	jobID := JobFinance
	scopeKey := models.ScopeGlobal
	if opts.BioguideID != "" {
		// Targeted re-sync runs under its own narrow lease and cursor scope
		// so it never blocks or disturbs the batch job.
		jobID = JobFinance + ":" + opts.BioguideID
		scopeKey = opts.BioguideID
	}

	return runJob(ctx, m.store, jobID, ProviderFEC, "finance", scopeKey, jobCfg, opts,
		func(ctx context.Context, r *jobRun) error {
			legislators, err := m.store.ListLegislators(ctx, true)
			if err != nil {
				return fmt.Errorf("list legislators: %w", err)
			}
			if opts.BioguideID != "" {
				legislators = filterLegislator(legislators, opts.BioguideID)
				if len(legislators) == 0 {
					return fmt.Errorf("unknown legislator %s", opts.BioguideID)
				}
			}

			var cur financeCursor
			resumed, total, err := r.loadCursor(ctx, &cur)
			if err != nil {
				return fmt.Errorf("load finance cursor: %w", err)
			}
			if !resumed {
				cur = financeCursor{}
				total = 0
			}

			// Skip ahead to the legislator after the stored checkpoint. If
			// the checkpointed member left the list, start over.
			start := 0
			if cur.LastBioguideID != "" {
				for i := range legislators {
					if legislators[i].BioguideID == cur.LastBioguideID {
						start = i + 1
						break
					}
				}
			}

			cycle := m.matcher.currentCycle
			for i := start; i < len(legislators); i++ {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if !r.budget.ShouldContinue() {
					return r.checkpoint(ctx, cur, total)
				}

				leg := &legislators[i]
				n, err := m.reconcileLegislatorFinance(ctx, r, leg, cycle, jobCfg.BatchSize)
				if err != nil {
					return err
				}
				if n < 0 {
					// Budget wound down mid-legislator; resume here next run.
					return r.checkpoint(ctx, cur, total)
				}

				total += n
				cur.LastBioguideID = leg.BioguideID
				if err := r.checkpoint(ctx, cur, total); err != nil {
					return fmt.Errorf("checkpoint finance cursor: %w", err)
				}

				// Long fan-outs renew the lock at each checkpoint so a
				// healthy run does not lose its lease mid-epoch.
				if err := m.store.ExtendLease(ctx, r.jobID, jobCfg.MaxDuration); err != nil {
					logging.Warn().Err(err).Str("job", r.jobID).Msg("Failed to extend job lease")
				}
			}

			return r.completeEpoch(ctx, total)
		})
}

// reconcileLegislatorFinance processes one legislator end to end. Returns
// the number of reconciled records, 0 for a recognized skip, or -1 when the
// budget wound down before the legislator's receipt set was complete.
func (m *Manager) reconcileLegislatorFinance(ctx context.Context, r *jobRun, leg *models.Legislator, cycle, perPage int) (int, error) {
	candidateID, err := m.resolveCandidate(ctx, r, leg)
	if err != nil {
		return 0, err
	}
	if candidateID == "" {
		// No acceptable match this run. Skip, not an error.
		return 0, nil
	}

	totals, stats, err := m.fec.FetchTotals(ctx, candidateID, cycle, r.budget)
	r.addStats(stats)
	if err != nil {
		return 0, fmt.Errorf("fetch totals for %s: %w", candidateID, err)
	}

	if perPage < 1 {
		perPage = 100
	}
	var receipts []ScheduleAReceipt
	lastIndex := ""
	for {
		page, next, stats, err := m.fec.FetchScheduleA(ctx, candidateID, cycle, perPage, lastIndex, r.budget)
		r.addStats(stats)
		if err != nil {
			return 0, fmt.Errorf("fetch receipts for %s: %w", candidateID, err)
		}
		receipts = append(receipts, page...)
		if next == "" {
			break
		}
		lastIndex = next
		if stats.BudgetExhausted || !r.budget.ShouldContinue() {
			// Incomplete receipt set; never replace a partition with it.
			logging.Info().
				Str("bioguide_id", leg.BioguideID).
				Int("pages_fetched", len(receipts)/perPage).
				Msg("Budget wound down mid-legislator, abandoning partial receipt set")
			return -1, nil
		}
	}
	r.fetched += len(receipts)

	filings := make([]models.FinanceFiling, 0, len(receipts))
	for _, rec := range receipts {
		filing := models.FinanceFiling{
			FECCandidateID:  candidateID,
			Cycle:           cycle,
			CommitteeID:     rec.CommitteeID,
			Amount:          rec.Amount,
			ContributorName: rec.ContributorName,
			ContributorZip:  rec.ContributorZip,
			ContributorType: ClassifyContributor(rec.ContributorName),
			SourceRecordID:  rec.SubID,
		}
		if t, err := ParseReceiptDate(rec.ReceiptDate); err == nil {
			filing.ReceiptDate = t
		}
		filing.ID = deriveFilingID(candidateID, rec.SubID, rec.ReceiptDate, rec.Amount, rec.ContributorName, rec.ContributorZip)
		filings = append(filings, filing)
	}

	if err := m.store.ReplaceFinanceFilings(ctx, candidateID, cycle, filings); err != nil {
		return 0, fmt.Errorf("replace filings for %s: %w", candidateID, err)
	}
	r.upserted += len(filings)

	n := len(filings)
	if totals != nil {
		if err := m.store.UpsertFinanceTotals(ctx, totals); err != nil {
			return 0, fmt.Errorf("upsert totals for %s: %w", candidateID, err)
		}
		r.upserted++
		n++
	}
	return n, nil
}

// resolveCandidate returns the legislator's finance candidate id, consulting
// the persisted cache first and searching + scoring otherwise. An empty id
// with nil error means no acceptable match.
func (m *Manager) resolveCandidate(ctx context.Context, r *jobRun, leg *models.Legislator) (string, error) {
	if leg.FECCandidateID != nil && *leg.FECCandidateID != "" {
		if match := m.matcher.Match(leg, nil); match != nil {
			return match.CandidateID, nil
		}
	}

	pool, stats, err := m.fec.SearchCandidates(ctx, leg.LastName, leg.State, r.budget)
	r.addStats(stats)
	if err != nil {
		return "", fmt.Errorf("candidate search for %s: %w", leg.BioguideID, err)
	}

	match := m.matcher.Match(leg, pool)
	if match == nil {
		logging.Debug().Str("bioguide_id", leg.BioguideID).Msg("No acceptable candidate match, skipping")
		return "", nil
	}
	if !match.Cached {
		if err := m.store.SetFECCandidateID(ctx, leg.BioguideID, match.CandidateID, match.Score); err != nil {
			return "", fmt.Errorf("cache match for %s: %w", leg.BioguideID, err)
		}
	}
	return match.CandidateID, nil
}

func filterLegislator(legislators []models.Legislator, bioguideID string) []models.Legislator {
	for i := range legislators {
		if legislators[i].BioguideID == bioguideID {
			return legislators[i : i+1]
		}
	}
	return nil
}
