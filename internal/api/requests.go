// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package api

// SyncRequest is the optional body of POST /api/v1/sync/{job}. An empty body
// means a default delta run.
type SyncRequest struct {
	Mode       string `json:"mode" validate:"omitempty,oneof=delta full"`
	Offset     int    `json:"offset" validate:"min=0,max=1000000"`
	Limit      int    `json:"limit" validate:"min=0,max=250"`
	Reset      bool   `json:"reset"`
	BioguideID string `json:"bioguide_id" validate:"omitempty,alphanum,max=12"`
}

// PauseRequest is the body of PUT /api/v1/sync/pause.
type PauseRequest struct {
	Paused bool `json:"paused"`
}

// RunsRequest bounds the audit history query parameters.
type RunsRequest struct {
	Job   string `validate:"omitempty,max=64"`
	Limit int    `validate:"min=0,max=500"`
}
