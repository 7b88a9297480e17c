// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

// Package api provides the HTTP surface: sync triggers, progress and audit
// reads, the global pause flag, health checks, and Prometheus metrics.
//
// Routing uses go-chi/chi with go-chi/cors and go-chi/httprate middleware.
// Every JSON endpoint responds with the models.APIResponse envelope; request
// bodies are decoded with goccy/go-json and validated through
// internal/validation.
//
// Trigger semantics mirror the sync engine exactly: a paused engine answers
// 200 with {success:false, paused:true}, a held job lease answers 409 with
// {success:false, already_running:true}. The HTTP layer adds no behavior of
// its own on top of Manager.TriggerSync.
package api
