// CapitolSync - Legislative Records and Campaign Finance Synchronization
// Copyright 2026 CapitolMetrics
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/capitolmetrics/capitolsync

package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"
)

// blockingService runs until its context is cancelled, counting starts.
type blockingService struct {
	name   string
	starts atomic.Int64
}

func (s *blockingService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func (s *blockingService) String() string { return s.name }

// crashingService fails a fixed number of times, then blocks.
type crashingService struct {
	remaining atomic.Int64
	starts    atomic.Int64
}

func (s *crashingService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	if s.remaining.Add(-1) >= 0 {
		return errors.New("synthetic crash")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *crashingService) String() string { return "crashing-service" }

func quietLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestTreeRunsAndStopsServices(t *testing.T) {
	tree := NewTree(quietLogger(), DefaultTreeConfig())

	jobSvc := &blockingService{name: "job-service"}
	apiSvc := &blockingService{name: "api-service"}
	tree.AddJobService(jobSvc)
	tree.AddAPIService(apiSvc)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for (jobSvc.starts.Load() == 0 || apiSvc.starts.Load() == 0) && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if jobSvc.starts.Load() == 0 || apiSvc.starts.Load() == 0 {
		t.Fatal("services never started")
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop after cancellation")
	}
}

func TestTreeRestartsCrashedService(t *testing.T) {
	cfg := DefaultTreeConfig()
	cfg.FailureBackoff = 10 * time.Millisecond
	tree := NewTree(quietLogger(), cfg)

	svc := &crashingService{}
	svc.remaining.Store(2)
	tree.AddJobService(svc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := tree.ServeBackground(ctx)

	deadline := time.Now().Add(5 * time.Second)
	for svc.starts.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if got := svc.starts.Load(); got < 3 {
		t.Fatalf("service started %d times, want at least 3 (two crashes plus recovery)", got)
	}

	cancel()
	select {
	case <-errCh:
	case <-time.After(5 * time.Second):
		t.Fatal("tree did not stop after cancellation")
	}
}
