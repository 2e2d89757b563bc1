// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package operator

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"

	"dnsoperator/daemon"
)

func lookPath(t *testing.T, name string) string {
	t.Helper()
	path, err := exec.LookPath(name)
	if err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
	return path
}

func TestProcessRuntime_Lifecycle(t *testing.T) {
	state := daemon.NewState()
	rt := NewProcessRuntime(ProcessConfig{Binary: lookPath(t, "sleep"), Args: []string{"30"}, State: state})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rt.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !rt.Running() || !state.ServerStatus() {
		t.Fatal("process should be running after Run")
	}
	pid := rt.PID()
	if err := rt.Run(ctx); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if rt.PID() != pid {
		t.Error("second Run spawned another process")
	}

	if err := rt.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if rt.Running() || state.ServerStatus() {
		t.Error("process should be stopped after Shutdown")
	}

	err := rt.Shutdown(ctx)
	if !errors.Is(err, ErrNoRunningProcess) {
		t.Fatalf("Shutdown with nothing running = %v, want ErrNoRunningProcess", err)
	}
	var procErr *ProcessError
	if !errors.As(err, &procErr) || procErr.Op != "stop" {
		t.Errorf("error = %#v, want ProcessError{Op: stop}", err)
	}

	if err := rt.Run(ctx); err != nil {
		t.Fatalf("Run after Shutdown: %v", err)
	}
	if err := rt.Shutdown(ctx); err != nil {
		t.Fatalf("final Shutdown: %v", err)
	}
	if got := state.Snapshot().ServerStarts; got != 2 {
		t.Errorf("ServerStarts = %d, want 2", got)
	}
}

func TestProcessRuntime_ReapsExitedProcess(t *testing.T) {
	rt := NewProcessRuntime(ProcessConfig{Binary: lookPath(t, "true")})
	ctx := context.Background()
	if err := rt.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for rt.Running() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if rt.Running() {
		t.Fatal("exited process still reported running")
	}
	if err := rt.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown of exited process = %v, want nil", err)
	}
	if err := rt.Shutdown(ctx); !errors.Is(err, ErrNoRunningProcess) {
		t.Errorf("second Shutdown = %v, want ErrNoRunningProcess", err)
	}
}

func TestProcessRuntime_StartFailure(t *testing.T) {
	rt := NewProcessRuntime(ProcessConfig{Binary: "/nonexistent/dns-server-binary"})
	err := rt.Run(context.Background())
	var procErr *ProcessError
	if !errors.As(err, &procErr) || procErr.Op != "start" {
		t.Fatalf("Run error = %v, want ProcessError{Op: start}", err)
	}
	if rt.Running() {
		t.Error("failed start left a tracked process")
	}
}

func TestProcessRuntime_RunHonoursCancelledContext(t *testing.T) {
	rt := NewProcessRuntime(ProcessConfig{Binary: "sleep", Args: []string{"30"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rt.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
}

func TestRestartController_RestartsCrashedServer(t *testing.T) {
	state := daemon.NewState()
	rt := NewProcessRuntime(ProcessConfig{Binary: lookPath(t, "true"), State: state})
	ctx := context.Background()
	if err := rt.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	deadline := time.Now().Add(5 * time.Second)
	for rt.Running() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	c := &RestartController{}
	if err := c.Reconcile(ctx, Event{Kind: EventUpdate, Path: "/tmp/dns_manifest"}, rt, newFakeWatcher(nil)); err != nil {
		t.Fatalf("Reconcile after crash = %v, want nil", err)
	}
	if got := state.Snapshot().ServerStarts; got != 2 {
		t.Errorf("ServerStarts = %d, want 2", got)
	}
}
