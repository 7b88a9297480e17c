// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

/*
httpclient.go - Retrying HTTP Client

One logical request to a rate-limited provider. Each physical attempt flows
through the provider's RateLimiter and runs under the per-request timeout;
429 and 5xx responses and transport failures are retried with exponential
backoff plus jitter, honoring Retry-After (RFC 6585, seconds or HTTP-date)
when the provider sends it.

Retry policy:
  - attempt n sleeps min(baseDelay * 2^n, maxDelay) + uniform jitter
  - Retry-After overrides the computed delay exactly
  - non-429 4xx returns immediately; the caller owns its domain meaning
  - a near-expired TimeBudget suppresses the sleep and returns the last
    response with Stats.BudgetExhausted set, so orchestrators can wind down
    instead of being killed mid-write; a 200 returned near expiry carries
    the same flag

Every 429 increments the per-provider rate-limited counter; all blocked time
(rate-limit waits plus backoff sleeps) is accumulated into RequestStats for
the run's audit record.
*/
package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"github.com/capitolmetrics/capitolsync/internal/config"
	"github.com/capitolmetrics/capitolsync/internal/logging"
	"github.com/capitolmetrics/capitolsync/internal/metrics"
)

// errBudgetWindDown marks a request abandoned on a retryable response
// because the run's budget is winding down. Provider clients return it in
// place of a status error when Stats.BudgetExhausted is set; the run
// scaffold maps it to a partial run, never a failure.
var errBudgetWindDown = errors.New("request abandoned, budget winding down")

// RequestStats reports what one logical request cost.
type RequestStats struct {
	Attempts        int           // physical attempts made
	APICalls        int           // alias of Attempts in the audit counters
	WaitTime        time.Duration // rate-limit waits + backoff sleeps
	RateLimited     int           // 429 responses observed
	BudgetExhausted bool          // stopped early because the budget is winding down
}

// Client issues retrying HTTP requests to one provider under its rate limits.
type Client struct {
	provider   string
	cfg        *config.ProviderConfig
	limiter    *RateLimiter
	httpClient *http.Client
}

// NewClient builds a client for one provider. The per-request timeout lives
// on the inner http.Client so a stuck attempt aborts without cancelling the
// caller's context.
func NewClient(provider string, cfg *config.ProviderConfig) *Client {
	return &Client{
		provider:   provider,
		cfg:        cfg,
		limiter:    NewRateLimiter(provider, cfg.MaxConcurrency, cfg.MinDelayBetweenRequests),
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// Do executes one logical request. It returns the final response (success or
// non-retryable status) and per-request stats; the caller must close the
// response body. A nil budget means no wall-clock ceiling. After exhausting
// retries it returns an error wrapping the last failure.
func (c *Client) Do(ctx context.Context, req *http.Request, budget *TimeBudget) (*http.Response, RequestStats, error) {
	var stats RequestStats
	var lastResp *http.Response
	var lastErr error

	maxAttempts := c.cfg.RetryAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		release, waited, err := c.limiter.Acquire(ctx)
		if err != nil {
			stats.WaitTime += waited
			return nil, stats, fmt.Errorf("rate limiter wait: %w", err)
		}
		stats.WaitTime += waited

		start := time.Now()
		resp, err := c.httpClient.Do(req.Clone(ctx))
		release()
		metrics.APICallDuration.WithLabelValues(c.provider).Observe(time.Since(start).Seconds())
		stats.Attempts++
		stats.APICalls++

		if err != nil {
			// Transport failure or per-attempt timeout. Retryable.
			metrics.APICallErrors.WithLabelValues(c.provider, "transport").Inc()
			lastErr = err
			lastResp = nil
			if ctx.Err() != nil {
				return nil, stats, fmt.Errorf("request to %s: %w", c.provider, err)
			}
		} else if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			if resp.StatusCode == http.StatusTooManyRequests {
				metrics.RateLimited429.WithLabelValues(c.provider).Inc()
				stats.RateLimited++
			} else {
				metrics.APICallErrors.WithLabelValues(c.provider, "server").Inc()
			}
			lastErr = nil
			lastResp = resp
		} else {
			// Success or a non-retryable client status. Caller decides. A
			// success near expiry carries the wind-down flag so the caller
			// checkpoints after this unit instead of starting another.
			if resp.StatusCode == http.StatusOK && budget.IsNearExpiry() {
				stats.BudgetExhausted = true
			}
			return resp, stats, nil
		}

		if attempt == maxAttempts-1 {
			break
		}

		delay := c.backoffDelay(attempt)
		if lastResp != nil {
			if ra, ok := parseRetryAfter(lastResp.Header.Get("Retry-After")); ok {
				delay = ra
			}
		}

		if budget.IsNearExpiry() {
			// Winding down: hand back whatever we have instead of sleeping.
			stats.BudgetExhausted = true
			if lastResp != nil {
				return lastResp, stats, nil
			}
			return nil, stats, fmt.Errorf("request to %s failed with budget exhausted: %w", c.provider, lastErr)
		}

		drainAndClose(lastResp)
		lastResp = nil

		logging.Warn().
			Str("provider", c.provider).
			Int("attempt", attempt+1).
			Int("max_attempts", maxAttempts).
			Dur("delay", delay).
			Err(lastErr).
			Msg("Retrying provider request")

		select {
		case <-time.After(delay):
			stats.WaitTime += delay
		case <-ctx.Done():
			return nil, stats, ctx.Err()
		}
	}

	drainAndClose(lastResp)
	if lastErr != nil {
		return nil, stats, fmt.Errorf("request to %s failed after %d attempts: %w", c.provider, stats.Attempts, lastErr)
	}
	status := 0
	if lastResp != nil {
		status = lastResp.StatusCode
	}
	return nil, stats, fmt.Errorf("request to %s failed after %d attempts: last status %d", c.provider, stats.Attempts, status)
}

// backoffDelay computes the capped exponential delay for a retry of the
// given zero-based attempt, plus uniform jitter.
func (c *Client) backoffDelay(attempt int) time.Duration {
	delay := c.cfg.RetryBaseDelay * (1 << attempt)
	if c.cfg.RetryMaxDelay > 0 && delay > c.cfg.RetryMaxDelay {
		delay = c.cfg.RetryMaxDelay
	}
	if c.cfg.RetryJitterPercent > 0 {
		jitterMax := delay * time.Duration(c.cfg.RetryJitterPercent) / 100
		if jitterMax > 0 {
			delay += time.Duration(rand.Int63n(int64(jitterMax)))
		}
	}
	return delay
}

// parseRetryAfter interprets a Retry-After value as integer seconds first,
// then as an HTTP-date.
func parseRetryAfter(value string) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second, true
	}
	if t, err := http.ParseTime(value); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return d, true
	}
	return 0, false
}

// drainAndClose discards an abandoned response body so the transport can
// reuse the connection.
func drainAndClose(resp *http.Response) {
	if resp == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	_ = resp.Body.Close()
}
