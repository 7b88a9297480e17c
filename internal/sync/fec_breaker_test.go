// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package sync

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestBreakerKeepsStatsOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := fastProvider(srv.URL)
	c := NewFECBreakerClient(&cfg)

	_, stats, err := c.SearchCandidates(context.Background(), "SMITH", "OH", nil)
	if err == nil {
		t.Fatal("expected an error from an upstream serving 500s")
	}

	// The failed call's attempts and waits still feed the audit counters.
	if stats.Attempts != 2 {
		t.Errorf("stats.Attempts = %d, want both retry attempts recorded", stats.Attempts)
	}
	if stats.APICalls != 2 {
		t.Errorf("stats.APICalls = %d, want 2", stats.APICalls)
	}

	_, totalsStats, err := c.FetchTotals(context.Background(), "H6OH00001", 2026, nil)
	if err == nil {
		t.Fatal("expected an error from an upstream serving 500s")
	}
	if totalsStats.Attempts == 0 {
		t.Error("failed totals call lost its request stats")
	}

	_, _, schedStats, err := c.FetchScheduleA(context.Background(), "H6OH00001", 2026, 100, "", nil)
	if err == nil {
		t.Fatal("expected an error from an upstream serving 500s")
	}
	if schedStats.Attempts == 0 {
		t.Error("failed receipts call lost its request stats")
	}
}
