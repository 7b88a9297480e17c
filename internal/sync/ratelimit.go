// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package sync

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/capitolmetrics/capitolsync/internal/metrics"
)

// RateLimiter gates outbound requests to one provider: at most
// maxConcurrency calls in flight, and consecutive dispatches spaced at least
// minDelay apart. Both waits block on concurrency primitives and honor
// context cancellation. State is process-local and advisory; only throughput
// depends on it, never correctness.
type RateLimiter struct {
	provider string
	sem      chan struct{}
	interval *rate.Limiter
}

// NewRateLimiter builds a limiter for one provider. maxConcurrency below 1
// is clamped to 1; minDelay of zero disables spacing.
func NewRateLimiter(provider string, maxConcurrency int, minDelay time.Duration) *RateLimiter {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}

	var interval *rate.Limiter
	if minDelay > 0 {
		// One token per minDelay, burst 1: dispatch times are spaced by at
		// least minDelay regardless of how many goroutines are waiting.
		interval = rate.NewLimiter(rate.Every(minDelay), 1)
	}

	return &RateLimiter{
		provider: provider,
		sem:      make(chan struct{}, maxConcurrency),
		interval: interval,
	}
}

// Acquire blocks until a concurrency slot and a spacing token are available,
// then returns a release function. The returned wait duration is the total
// time spent blocked, for run accounting.
func (rl *RateLimiter) Acquire(ctx context.Context) (release func(), waited time.Duration, err error) {
	start := time.Now()

	select {
	case rl.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, time.Since(start), ctx.Err()
	}

	if rl.interval != nil {
		if err := rl.interval.Wait(ctx); err != nil {
			<-rl.sem
			return nil, time.Since(start), err
		}
	}

	waited = time.Since(start)
	if waited > 0 {
		metrics.RateLimitWaitSeconds.WithLabelValues(rl.provider).Add(waited.Seconds())
	}

	var once sync.Once
	release = func() {
		once.Do(func() { <-rl.sem })
	}
	return release, waited, nil
}

// Provider returns the provider key this limiter gates.
func (rl *RateLimiter) Provider() string {
	return rl.provider
}
