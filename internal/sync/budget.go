// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package sync

import "time"

// nearExpiryFraction is the point in a budget's lifetime at which a run
// starts winding down instead of beginning new units of work.
const nearExpiryFraction = 0.85

// TimeBudget tracks elapsed wall-clock time against a per-invocation ceiling.
// Orchestrators check it at every unit boundary; a run that crosses the
// ceiling stops cleanly at its last checkpoint and reports partial.
//
// The zero value is unusable; construct with NewTimeBudget. A nil *TimeBudget
// is treated as unlimited by its methods, so call sites can pass nil when no
// ceiling applies.
type TimeBudget struct {
	start   time.Time
	ceiling time.Duration
	now     func() time.Time // swapped in tests
}

// NewTimeBudget starts a budget clock with the given ceiling.
func NewTimeBudget(ceiling time.Duration) *TimeBudget {
	return &TimeBudget{start: time.Now(), ceiling: ceiling, now: time.Now}
}

// Elapsed returns time spent since the budget started.
func (b *TimeBudget) Elapsed() time.Duration {
	if b == nil {
		return 0
	}
	return b.now().Sub(b.start)
}

// Remaining returns time left before expiry, never negative.
func (b *TimeBudget) Remaining() time.Duration {
	if b == nil {
		return time.Duration(1<<62 - 1)
	}
	rem := b.ceiling - b.Elapsed()
	if rem < 0 {
		return 0
	}
	return rem
}

// IsExpired reports whether elapsed time has reached the ceiling.
func (b *TimeBudget) IsExpired() bool {
	if b == nil {
		return false
	}
	return b.Elapsed() >= b.ceiling
}

// IsNearExpiry reports whether elapsed time has reached the wind-down
// threshold. Retry sleeps and new work units are skipped past this point.
func (b *TimeBudget) IsNearExpiry() bool {
	if b == nil {
		return false
	}
	return b.Elapsed() >= time.Duration(float64(b.ceiling)*nearExpiryFraction)
}

// ShouldContinue reports whether a new unit of work may begin.
func (b *TimeBudget) ShouldContinue() bool {
	return !b.IsNearExpiry()
}
