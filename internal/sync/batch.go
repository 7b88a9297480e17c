// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/capitolmetrics/capitolsync/internal/metrics"
)

// ItemError records one failed item in an error-tolerant batch.
type ItemError struct {
	Index int
	Err   error
}

func (e ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

// ProcessChunked runs fn over items in fixed-size chunks: each chunk's items
// run concurrently, the chunk is awaited as a whole, and chunks are separated
// by chunkDelay. The first failing item fails the batch. Chosen when
// downstream writes must not race across chunk boundaries.
//
// The budget is consulted before each chunk; a near-expired budget stops the
// batch after the last completed chunk and returns the results so far with
// nil error and done=false.
func ProcessChunked[T, R any](ctx context.Context, items []T, chunkSize int, chunkDelay time.Duration, budget *TimeBudget, fn func(ctx context.Context, item T) (R, error)) (results []R, done bool, err error) {
	if chunkSize < 1 {
		chunkSize = 1
	}
	results = make([]R, 0, len(items))

	for start := 0; start < len(items); start += chunkSize {
		if !budget.ShouldContinue() {
			return results, false, nil
		}
		if ctx.Err() != nil {
			return results, false, ctx.Err()
		}

		end := start + chunkSize
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]
		metrics.SyncBatchSize.Observe(float64(len(chunk)))

		chunkResults := make([]R, len(chunk))
		errs := make([]error, len(chunk))
		var wg gosync.WaitGroup
		for i := range chunk {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				chunkResults[i], errs[i] = fn(ctx, chunk[i])
			}(i)
		}
		wg.Wait()

		for i, e := range errs {
			if e != nil {
				return results, false, fmt.Errorf("chunk item %d: %w", start+i, e)
			}
		}
		results = append(results, chunkResults...)

		if end < len(items) && chunkDelay > 0 {
			select {
			case <-time.After(chunkDelay):
			case <-ctx.Done():
				return results, false, ctx.Err()
			}
		}
	}

	return results, true, nil
}

// ProcessChunkedTolerant is ProcessChunked with per-item error isolation: a
// failing item is recorded and the batch continues. Returns the successful
// results and the item errors side by side.
func ProcessChunkedTolerant[T, R any](ctx context.Context, items []T, chunkSize int, chunkDelay time.Duration, budget *TimeBudget, fn func(ctx context.Context, item T) (R, error)) (results []R, itemErrs []ItemError, done bool, err error) {
	if chunkSize < 1 {
		chunkSize = 1
	}
	results = make([]R, 0, len(items))

	for start := 0; start < len(items); start += chunkSize {
		if !budget.ShouldContinue() {
			return results, itemErrs, false, nil
		}
		if ctx.Err() != nil {
			return results, itemErrs, false, ctx.Err()
		}

		end := start + chunkSize
		if end > len(items) {
			end = len(items)
		}
		chunk := items[start:end]

		chunkResults := make([]R, len(chunk))
		errs := make([]error, len(chunk))
		var wg gosync.WaitGroup
		for i := range chunk {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				chunkResults[i], errs[i] = fn(ctx, chunk[i])
			}(i)
		}
		wg.Wait()

		for i, e := range errs {
			if e != nil {
				metrics.SyncErrors.WithLabelValues("item").Inc()
				itemErrs = append(itemErrs, ItemError{Index: start + i, Err: e})
				continue
			}
			results = append(results, chunkResults[i])
		}

		if end < len(items) && chunkDelay > 0 {
			select {
			case <-time.After(chunkDelay):
			case <-ctx.Done():
				return results, itemErrs, false, ctx.Err()
			}
		}
	}

	return results, itemErrs, true, nil
}

// ProcessPool runs a fixed number of workers pulling from a shared index
// until items are exhausted. No chunk boundary, no inter-chunk delay; results
// land at their item's index, which is race-free because every worker writes
// disjoint slots. Chosen for read-only fetches where ordering does not
// matter. The first error cancels the pool.
func ProcessPool[T, R any](ctx context.Context, items []T, workers int, fn func(ctx context.Context, item T) (R, error)) ([]R, error) {
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	results := make([]R, len(items))
	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var next atomic.Int64
	errs := make(chan error, workers)
	var wg gosync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				idx := int(next.Add(1)) - 1
				if idx >= len(items) {
					return
				}
				if poolCtx.Err() != nil {
					return
				}
				r, err := fn(poolCtx, items[idx])
				if err != nil {
					select {
					case errs <- fmt.Errorf("item %d: %w", idx, err):
					default:
					}
					cancel()
					return
				}
				results[idx] = r
			}
		}()
	}

	wg.Wait()
	select {
	case err := <-errs:
		return nil, err
	default:
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return results, nil
}
