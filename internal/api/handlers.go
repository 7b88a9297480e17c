// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package api

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/capitolmetrics/capitolsync/internal/database"
	"github.com/capitolmetrics/capitolsync/internal/sync"
)

// Handler holds the dependencies every endpoint reads.
type Handler struct {
	store   *database.DB
	manager *sync.Manager
	started time.Time
}

// NewHandler builds the handler set.
func NewHandler(store *database.DB, manager *sync.Manager) *Handler {
	return &Handler{
		store:   store,
		manager: manager,
		started: time.Now().UTC(),
	}
}

// TriggerSync runs one job synchronously and reports its outcome. The body
// is optional; an empty body is a default delta run.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	job := chi.URLParam(r, "job")
	if _, _, ok := sync.JobProvider(job); !ok {
		respondError(w, http.StatusNotFound, codeNotFound, "unknown sync job", nil)
		return
	}

	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, codeBadRequest, "malformed request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, errorEnvelope(apiErr))
		return
	}

	result := h.manager.TriggerSync(r.Context(), job, sync.SyncOptions{
		Mode:       req.Mode,
		Offset:     req.Offset,
		Limit:      req.Limit,
		Reset:      req.Reset,
		BioguideID: req.BioguideID,
	})

	status := http.StatusOK
	if result.AlreadyRunning {
		status = http.StatusConflict
	}
	respondData(w, status, result)
}

// SyncProgress returns the per-job progress row.
func (h *Handler) SyncProgress(w http.ResponseWriter, r *http.Request) {
	job := chi.URLParam(r, "job")
	provider, dataset, ok := sync.JobProvider(job)
	if !ok {
		respondError(w, http.StatusNotFound, codeNotFound, "unknown sync job", nil)
		return
	}

	progress, err := h.store.GetJobProgress(r.Context(), job, provider, dataset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to read job progress", err)
		return
	}
	respondData(w, http.StatusOK, progress)
}

// SyncRuns returns the audit history, newest first.
func (h *Handler) SyncRuns(w http.ResponseWriter, r *http.Request) {
	req := RunsRequest{
		Job:   r.URL.Query().Get("job"),
		Limit: getIntParam(r, "limit", 50),
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondJSON(w, http.StatusBadRequest, errorEnvelope(apiErr))
		return
	}

	runs, err := h.store.ListJobRuns(r.Context(), req.Job, req.Limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to list job runs", err)
		return
	}
	respondData(w, http.StatusOK, runs)
}

// GetPause returns the global pause flag.
func (h *Handler) GetPause(w http.ResponseWriter, r *http.Request) {
	paused, err := h.store.IsSyncPaused(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to read pause flag", err)
		return
	}
	respondData(w, http.StatusOK, map[string]bool{"paused": paused})
}

// PutPause sets the global pause flag. The flag gates future runs; it does
// not interrupt a run already holding its lease.
func (h *Handler) PutPause(w http.ResponseWriter, r *http.Request) {
	var req PauseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeBadRequest, "malformed request body", err)
		return
	}

	if err := h.store.SetSyncPaused(r.Context(), req.Paused); err != nil {
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to set pause flag", err)
		return
	}
	respondData(w, http.StatusOK, map[string]bool{"paused": req.Paused})
}

// HealthLive answers as long as the process serves requests.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondData(w, http.StatusOK, map[string]interface{}{
		"status": "alive",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// HealthReady answers once the database accepts queries.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, codeInternal, "database not ready", err)
		return
	}
	respondData(w, http.StatusOK, map[string]string{"status": "ready"})
}
