// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

/*
matcher.go - Legislator / Campaign-Finance Candidate Resolution

Congress records and campaign-finance candidate records share no identifier,
so candidates are resolved by scored name matching. Exact last-name agreement
is a hard filter; first-name agreement is scored on a ladder (exact, nickname
alias, prefix containment, 3-character prefix) with small bonuses for state,
office type, and recent-cycle activity. A candidate is accepted only at or
above the fixed threshold.

An accepted match is cached on the legislator row (fec_candidate_id) and
trusted forever after: later runs bypass scoring entirely, even against a
changed candidate pool. Operators clear the cached id to force a re-match.
*/
package sync

import (
	"strings"
	"time"

	"github.com/capitolmetrics/capitolsync/internal/logging"
	"github.com/capitolmetrics/capitolsync/internal/metrics"
	"github.com/capitolmetrics/capitolsync/internal/models"
)

// First-name ladder scores, bonuses, and the acceptance threshold. The
// ladder alone cannot clear the threshold; at least one bonus is required,
// which keeps same-name candidates from other states out.
const (
	scoreFirstExact    = 40
	scoreFirstNickname = 30
	scoreFirstPrefix   = 20
	scoreFirstPrefix3  = 10

	bonusState        = 10
	bonusOfficeType   = 5
	bonusRecentCycles = 5

	matchThreshold = 60

	// cachedMatchScore marks results served from the persisted cache.
	cachedMatchScore = 100
)

// MatchResult is an accepted resolution.
type MatchResult struct {
	CandidateID string
	Score       int
	Cached      bool
}

// EntityMatcher resolves legislators to campaign-finance candidates.
type EntityMatcher struct {
	nicknames    *nicknameTable
	currentCycle int
}

// NewEntityMatcher builds a matcher anchored to the current election cycle.
func NewEntityMatcher() *EntityMatcher {
	return NewEntityMatcherAt(currentElectionCycle(time.Now()))
}

// NewEntityMatcherAt builds a matcher anchored to a specific cycle, used by
// tests and backfills.
func NewEntityMatcherAt(cycle int) *EntityMatcher {
	return &EntityMatcher{nicknames: newNicknameTable(), currentCycle: cycle}
}

// Match resolves one legislator against a candidate pool. A cached id on the
// legislator short-circuits scoring. Returns nil when no candidate clears
// the threshold; callers treat that as "skip this legislator this run",
// never as an error.
func (m *EntityMatcher) Match(leg *models.Legislator, pool []models.FinanceCandidate) *MatchResult {
	if leg.FECCandidateID != nil && *leg.FECCandidateID != "" {
		metrics.MatchAttempts.WithLabelValues("cached").Inc()
		return &MatchResult{CandidateID: *leg.FECCandidateID, Score: cachedMatchScore, Cached: true}
	}

	var best *MatchResult
	for i := range pool {
		score, ok := m.score(leg, &pool[i])
		if !ok {
			continue
		}
		if best == nil || score > best.Score {
			best = &MatchResult{CandidateID: pool[i].CandidateID, Score: score}
		}
	}

	if best == nil || best.Score < matchThreshold {
		metrics.MatchAttempts.WithLabelValues("no_match").Inc()
		return nil
	}

	metrics.MatchAttempts.WithLabelValues("matched").Inc()
	logging.Debug().
		Str("bioguide_id", leg.BioguideID).
		Str("candidate_id", best.CandidateID).
		Int("score", best.Score).
		Msg("Accepted candidate match")
	return best
}

// score computes one candidate's score, or ok=false when the hard last-name
// filter rejects it.
func (m *EntityMatcher) score(leg *models.Legislator, cand *models.FinanceCandidate) (int, bool) {
	candLast, candFirst := splitCandidateName(cand.Name)
	if candLast == "" || !strings.EqualFold(candLast, strings.TrimSpace(leg.LastName)) {
		return 0, false
	}

	legFirst := normalizeName(leg.FirstName)
	candFirst = normalizeName(candFirst)

	score := 0
	switch {
	case legFirst != "" && legFirst == candFirst:
		score += scoreFirstExact
	case m.nicknames.equivalent(legFirst, candFirst):
		score += scoreFirstNickname
	case prefixContained(legFirst, candFirst):
		score += scoreFirstPrefix
	case len(legFirst) >= 3 && len(candFirst) >= 3 && legFirst[:3] == candFirst[:3]:
		score += scoreFirstPrefix3
	}

	if cand.State != "" && strings.EqualFold(cand.State, leg.State) {
		score += bonusState
	}
	if officeMatchesChamber(cand.Office, leg.Chamber) {
		score += bonusOfficeType
	}
	if m.activeInRecentCycles(cand.Cycles) {
		score += bonusRecentCycles
	}

	return score, true
}

// activeInRecentCycles reports activity in either of the two most recent
// election cycles.
func (m *EntityMatcher) activeInRecentCycles(cycles []int) bool {
	for _, c := range cycles {
		if c == m.currentCycle || c == m.currentCycle-2 {
			return true
		}
	}
	return false
}

// splitCandidateName parses the upstream "LAST, FIRST MIDDLE" format. The
// first token after the comma is the given name; anything further is
// ignored.
func splitCandidateName(name string) (last, first string) {
	parts := strings.SplitN(name, ",", 2)
	last = strings.TrimSpace(parts[0])
	if len(parts) == 2 {
		rest := strings.Fields(strings.TrimSpace(parts[1]))
		if len(rest) > 0 {
			first = rest[0]
		}
	}
	return last, first
}

func normalizeName(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// prefixContained reports whether either normalized name is a strict prefix
// of the other ("DAN" / "DANIELLE"). Requires at least 3 characters on the
// shorter side so initials do not match everything.
func prefixContained(a, b string) bool {
	if a == "" || b == "" || a == b {
		return false
	}
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	return len(shorter) >= 3 && strings.HasPrefix(longer, shorter)
}

// officeMatchesChamber maps the finance office code to a chamber.
func officeMatchesChamber(office, chamber string) bool {
	switch strings.ToUpper(office) {
	case "H":
		return strings.EqualFold(chamber, "house")
	case "S":
		return strings.EqualFold(chamber, "senate")
	default:
		return false
	}
}

// currentElectionCycle returns the even year covering t (elections fall on
// even years; an odd year belongs to the next cycle).
func currentElectionCycle(t time.Time) int {
	year := t.Year()
	if year%2 == 1 {
		year++
	}
	return year
}
