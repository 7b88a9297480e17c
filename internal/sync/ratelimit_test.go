// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package sync

import (
	"context"
	gosync "sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRateLimiterConcurrencyCap(t *testing.T) {
	const maxConcurrency = 3
	rl := NewRateLimiter("test", maxConcurrency, 0)

	var inFlight, peak atomic.Int64
	var wg gosync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, _, err := rl.Acquire(context.Background())
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			inFlight.Add(-1)
			release()
		}()
	}
	wg.Wait()

	if got := peak.Load(); got > maxConcurrency {
		t.Errorf("peak in-flight = %d, cap is %d", got, maxConcurrency)
	}
}

func TestRateLimiterMinimumSpacing(t *testing.T) {
	const minDelay = 25 * time.Millisecond
	rl := NewRateLimiter("test", 4, minDelay)

	var mu gosync.Mutex
	var dispatches []time.Time
	var wg gosync.WaitGroup

	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, _, err := rl.Acquire(context.Background())
			if err != nil {
				t.Errorf("acquire: %v", err)
				return
			}
			mu.Lock()
			dispatches = append(dispatches, time.Now())
			mu.Unlock()
			release()
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(dispatches); i++ {
		for j := 0; j < i; j++ {
			gap := dispatches[i].Sub(dispatches[j])
			if gap < 0 {
				gap = -gap
			}
			// Small tolerance for timer resolution.
			if gap < minDelay-5*time.Millisecond {
				t.Errorf("dispatches %d and %d only %v apart, want >= %v", j, i, gap, minDelay)
			}
		}
	}
}

func TestRateLimiterContextCancellation(t *testing.T) {
	rl := NewRateLimiter("test", 1, 0)

	release, _, err := rl.Acquire(context.Background())
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err = rl.Acquire(ctx)
	if err == nil {
		t.Fatal("second acquire should fail while the slot is held")
	}
	if ctx.Err() == nil {
		t.Error("expected the context to have expired")
	}
}

func TestRateLimiterReleaseIsIdempotent(t *testing.T) {
	rl := NewRateLimiter("test", 1, 0)

	release, _, err := rl.Acquire(context.Background())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	release()
	release() // double release must not free a second slot

	release2, _, err := rl.Acquire(context.Background())
	if err != nil {
		t.Fatalf("re-acquire: %v", err)
	}
	defer release2()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, _, err := rl.Acquire(ctx); err == nil {
		t.Error("third acquire should block: the double release must not widen the cap")
	}
}
