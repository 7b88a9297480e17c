// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

/*
Package sync implements the synchronization engine: the coordination layer
between rate-limited upstream APIs and the DuckDB destination store.

Layering, leaf first:

  - RateLimiter: per-provider concurrency cap plus minimum request spacing
  - Client: one logical HTTP request with timeout, retry, backoff and jitter
  - TimeBudget: per-invocation wall-clock ceiling with a wind-down threshold
  - batch helpers: chunked, error-tolerant, and worker-pool processing
  - EntityMatcher: fuzzy legislator-to-candidate resolution with a persisted
    match cache
  - orchestrators: one per job (members, bills, votes, finance), each a
    resumable, lease-guarded, time-boxed run over the shared scaffold
  - Manager: owns clients and schedules, exposes TriggerSync for the API

Durable state (cursors, leases, run history, the pause flag) lives behind the
Store interface; orchestrator tests run against an in-memory DuckDB. Process
state (rate-limit spacing, breaker counts) is advisory and resets on restart.
*/
package sync
