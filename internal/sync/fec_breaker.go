// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/capitolmetrics/capitolsync/internal/config"
	"github.com/capitolmetrics/capitolsync/internal/logging"
	"github.com/capitolmetrics/capitolsync/internal/metrics"
	"github.com/capitolmetrics/capitolsync/internal/models"
)

// FECBreakerClient wraps FECClient with a circuit breaker. The finance job
// fans out to many candidates per run; once the upstream is down, the
// breaker fails the remaining fan-out fast instead of burning the run's
// budget on doomed retries. Breaker-open surfaces as a fetch error, which
// the orchestrator records as an error run, never a crash.
//
// The breaker uses real time for its interval and timeout. Tests exercise
// the wrapped FECClient directly.
type FECBreakerClient struct {
	client *FECClient
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewFECBreakerClient builds the breaker-wrapped client. The circuit opens
// at a 60% failure rate over at least 10 requests, and lets trial requests
// through again after two minutes.
func NewFECBreakerClient(cfg *config.ProviderConfig) *FECBreakerClient {
	cbName := "fec-api"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		IsSuccessful: func(err error) bool {
			// A wind-down abandon is the budget's doing, not the upstream's.
			return err == nil || errors.Is(err, errBudgetWindDown)
		},

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			if failureRatio >= 0.6 {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("Opening FEC circuit")
				return true
			}
			return false
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := breakerStateString(from), breakerStateString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("FEC circuit state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &FECBreakerClient{client: NewFECClient(cfg), cb: cb, name: cbName}
}

type fecFanout struct {
	pool      []models.FinanceCandidate
	totals    *models.FinanceTotals
	receipts  []ScheduleAReceipt
	nextIndex string
	stats     RequestStats
}

// execute runs fn under the breaker. On failure the fn result is passed
// through so callers can recover the request stats it carries.
func (c *FECBreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := c.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(c.name, "rejected").Inc()
			return result, fmt.Errorf("fec circuit open: %w", err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(c.name, "failure").Inc()
		return result, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(c.name, "success").Inc()
	return result, nil
}

// fanoutStats recovers the stats a failed call accumulated, so retries and
// waits still land in the run's audit counters.
func fanoutStats(result interface{}) RequestStats {
	if out, ok := result.(*fecFanout); ok && out != nil {
		return out.stats
	}
	return RequestStats{}
}

// SearchCandidates mirrors FECClient.SearchCandidates under the breaker.
func (c *FECBreakerClient) SearchCandidates(ctx context.Context, lastName, state string, budget *TimeBudget) ([]models.FinanceCandidate, RequestStats, error) {
	result, err := c.execute(func() (interface{}, error) {
		pool, stats, err := c.client.SearchCandidates(ctx, lastName, state, budget)
		if err != nil {
			return &fecFanout{stats: stats}, err
		}
		return &fecFanout{pool: pool, stats: stats}, nil
	})
	if err != nil {
		return nil, fanoutStats(result), err
	}
	out := result.(*fecFanout)
	return out.pool, out.stats, nil
}

// FetchTotals mirrors FECClient.FetchTotals under the breaker.
func (c *FECBreakerClient) FetchTotals(ctx context.Context, candidateID string, cycle int, budget *TimeBudget) (*models.FinanceTotals, RequestStats, error) {
	result, err := c.execute(func() (interface{}, error) {
		totals, stats, err := c.client.FetchTotals(ctx, candidateID, cycle, budget)
		if err != nil {
			return &fecFanout{stats: stats}, err
		}
		return &fecFanout{totals: totals, stats: stats}, nil
	})
	if err != nil {
		return nil, fanoutStats(result), err
	}
	out := result.(*fecFanout)
	return out.totals, out.stats, nil
}

// FetchScheduleA mirrors FECClient.FetchScheduleA under the breaker.
func (c *FECBreakerClient) FetchScheduleA(ctx context.Context, candidateID string, cycle, perPage int, lastIndex string, budget *TimeBudget) ([]ScheduleAReceipt, string, RequestStats, error) {
	result, err := c.execute(func() (interface{}, error) {
		receipts, next, stats, err := c.client.FetchScheduleA(ctx, candidateID, cycle, perPage, lastIndex, budget)
		if err != nil {
			return &fecFanout{stats: stats}, err
		}
		return &fecFanout{receipts: receipts, nextIndex: next, stats: stats}, nil
	})
	if err != nil {
		return nil, "", fanoutStats(result), err
	}
	out := result.(*fecFanout)
	return out.receipts, out.nextIndex, out.stats, nil
}

func breakerStateString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func breakerStateFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
