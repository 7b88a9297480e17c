// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/capitolmetrics/capitolsync/internal/logging"
	"github.com/capitolmetrics/capitolsync/internal/models"
)

// votesCursor is a per-chamber high-water mark. Roll numbers are assigned
// sequentially within a (congress, session), so the feed is walked by
// incrementing from the last stored roll until a 404.
type votesCursor struct {
	Congress int `json:"congress"`
	Session  int `json:"session"`
	LastRoll int `json:"last_roll"`
}

// JobVotes walks both chambers' roll-call feeds. The two chambers run under
// one job lease but keep independent cursors (datasets votes_house and
// votes_senate).
const JobVotes = "votes"

func (m *Manager) syncVotes(ctx context.Context, opts SyncOptions) SyncResult {
	jobCfg := m.cfg.Jobs.Votes
	return runJob(ctx, m.store, JobVotes, ProviderHouseClerk, "votes", models.ScopeGlobal, jobCfg, opts,
		func(ctx context.Context, r *jobRun) error {
			houseDone, err := m.syncChamberVotes(ctx, r, ChamberHouse)
			if err != nil {
				return err
			}
			if !houseDone || !r.budget.ShouldContinue() {
				// House consumed the budget; senate resumes next run from
				// its own cursor. The run is partial either way.
				return nil
			}
			senateDone, err := m.syncChamberVotes(ctx, r, ChamberSenate)
			if err != nil {
				return err
			}
			// The run only counts as complete when the last chamber caught
			// up; a senate walk cut off mid-feed stays partial.
			r.epochComplete = senateDone
			return nil
		})
}

// syncChamberVotes advances one chamber's high-water mark. Each roll is one
// unit of work: fetch, parse, reconcile, checkpoint. caughtUp reports
// whether the walk reached the end of the published sequence; false means
// the budget cut it off and the feed resumes next run.
func (m *Manager) syncChamberVotes(ctx context.Context, r *jobRun, chamber string) (caughtUp bool, err error) {
	client := m.houseVotes
	dataset := "votes_house"
	if chamber == ChamberSenate {
		client = m.senateVotes
		dataset = "votes_senate"
	}

	congress := currentCongress(time.Now())
	session := currentSession(time.Now())

	cur := votesCursor{Congress: congress, Session: session}
	stored, err := m.store.GetSyncCursor(ctx, client.provider, dataset, models.ScopeGlobal)
	if err != nil {
		return false, fmt.Errorf("load %s cursor: %w", dataset, err)
	}
	total := 0
	if stored != nil {
		total = stored.RecordsTotal
		if len(stored.Cursor) > 0 && !r.opts.Reset && r.opts.Mode != "full" {
			var prev votesCursor
			if err := json.Unmarshal(stored.Cursor, &prev); err == nil &&
				prev.Congress == congress && prev.Session == session {
				cur = prev
			}
		}
	}

	// The senate chamber needs the member index for name+state matching.
	var idx *memberIndex
	if chamber == ChamberSenate {
		legislators, err := m.store.ListLegislators(ctx, false)
		if err != nil {
			return false, fmt.Errorf("list legislators for senate matching: %w", err)
		}
		idx = newMemberIndex(legislators, ChamberSenate)
	}

	every := m.cfg.Jobs.CheckpointEvery
	if every < 1 {
		every = 1
	}
	rolls := 0

	for {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if !r.budget.ShouldContinue() {
			return false, m.putChamberCursor(ctx, client.provider, dataset, cur, total, false)
		}

		roll := cur.LastRoll + 1
		data, found, stats, err := client.FetchRoll(ctx, congress, session, roll, r.budget)
		r.addStats(stats)
		if err != nil {
			return false, fmt.Errorf("fetch %s roll %d: %w", chamber, roll, err)
		}
		if !found {
			// Caught up with the published sequence. Success, cursor kept:
			// this feed has a high-water mark, not an epoch.
			return true, m.putChamberCursor(ctx, client.provider, dataset, cur, total, true)
		}

		var rc *models.RollCall
		if chamber == ChamberHouse {
			rc, err = parseHouseRoll(data)
		} else {
			var skipped int
			rc, skipped, err = parseSenateRoll(data, idx)
			if skipped > 0 {
				logging.Warn().Int("roll", roll).Int("skipped", skipped).Msg("Senate roll had unresolvable members")
			}
		}
		if err != nil {
			return false, fmt.Errorf("parse %s roll %d: %w", chamber, roll, err)
		}

		r.fetched += len(rc.Positions)
		if err := m.store.UpsertRollCall(ctx, rc); err != nil {
			return false, fmt.Errorf("reconcile %s roll %d: %w", chamber, roll, err)
		}
		r.upserted += len(rc.Positions)
		total += len(rc.Positions)
		cur.LastRoll = roll
		rolls++

		windDown := stats.BudgetExhausted
		if rolls%every == 0 || windDown {
			if err := m.putChamberCursor(ctx, client.provider, dataset, cur, total, false); err != nil {
				return false, fmt.Errorf("checkpoint %s cursor: %w", dataset, err)
			}
		}
		if windDown {
			return false, nil
		}
	}
}

func (m *Manager) putChamberCursor(ctx context.Context, provider, dataset string, cur votesCursor, total int, success bool) error {
	payload, err := json.Marshal(cur)
	if err != nil {
		return fmt.Errorf("marshal votes cursor: %w", err)
	}
	return m.store.PutSyncCursor(ctx, provider, dataset, models.ScopeGlobal, payload, total, success)
}

// currentSession returns 1 for the first (odd) year of a congress, 2 for
// the second.
func currentSession(t time.Time) int {
	if t.Year()%2 == 1 {
		return 1
	}
	return 2
}
