// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package operator

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"sync"

	"dnsoperator/daemon"
	"dnsoperator/logger"
)

// Runtime owns the lifecycle of one external DNS server process.
type Runtime interface {
	// Run starts the server unless one is already tracked.
	Run(ctx context.Context) error
	// Shutdown stops the tracked server and waits for it to exit, bounded by ctx.
	Shutdown(ctx context.Context) error
	// Running reports whether a tracked server process is alive.
	Running() bool
}

// ProcessConfig describes the server executable managed by a ProcessRuntime.
type ProcessConfig struct {
	Binary string
	Args   []string
	Dir    string
	Logger *slog.Logger  // receives lifecycle messages and the child's output
	State  *daemon.State // optional; server up/down is mirrored here
}

type trackedProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error // valid once done is closed
}

func (p *trackedProcess) exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// ProcessRuntime runs the server as a child process via os/exec.
type ProcessRuntime struct {
	cfg ProcessConfig

	mu   sync.Mutex
	proc *trackedProcess
}

// NewProcessRuntime returns a runtime for cfg. Nothing is started until Run.
func NewProcessRuntime(cfg ProcessConfig) *ProcessRuntime {
	if cfg.Logger == nil {
		cfg.Logger = logger.Discard()
	}
	return &ProcessRuntime{cfg: cfg}
}

func (r *ProcessRuntime) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &ProcessError{Op: "start", Err: err}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.proc != nil {
		if !r.proc.exited() {
			return nil
		}
		r.proc = nil
	}

	// The child outlives ctx; only Shutdown stops it.
	cmd := exec.Command(r.cfg.Binary, r.cfg.Args...)
	cmd.Dir = r.cfg.Dir
	queue := logger.NewAsyncLogQueue(0)
	stdout := logger.NewLineWriter(r.cfg.Logger, slog.LevelInfo, "stdout", queue)
	stderr := logger.NewLineWriter(r.cfg.Logger, slog.LevelWarn, "stderr", queue)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		queue.Close()
		return &ProcessError{Op: "start", Err: err}
	}

	p := &trackedProcess{cmd: cmd, done: make(chan struct{})}
	r.proc = p
	if r.cfg.State != nil {
		r.cfg.State.SetServerStatus(true)
		r.cfg.State.RecordStart()
	}
	r.cfg.Logger.Info("server process started", "binary", r.cfg.Binary, "pid", cmd.Process.Pid)

	go r.reap(p, stdout, stderr, queue)
	return nil
}

func (r *ProcessRuntime) reap(p *trackedProcess, stdout, stderr *logger.LineWriter, queue *logger.AsyncLogQueue) {
	err := p.cmd.Wait()
	_ = stdout.Close()
	_ = stderr.Close()
	queue.Close()
	if r.cfg.State != nil {
		r.cfg.State.SetServerStatus(false)
	}
	r.cfg.Logger.Info("server process exited", "pid", p.cmd.Process.Pid, "status", exitStatus(err))
	p.err = err
	close(p.done)
}

func exitStatus(err error) string {
	if err == nil {
		return "exit status 0"
	}
	return err.Error()
}

func (r *ProcessRuntime) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.proc
	if p == nil {
		return &ProcessError{Op: "stop", Err: ErrNoRunningProcess}
	}
	if p.exited() {
		r.proc = nil
		return nil
	}
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return &ProcessError{Op: "stop", Err: err}
	}
	select {
	case <-p.done:
		r.proc = nil
		return nil
	case <-ctx.Done():
		return &ProcessError{Op: "wait", Err: ctx.Err()}
	}
}

func (r *ProcessRuntime) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.proc != nil && !r.proc.exited()
}

// PID returns the tracked process id, or 0 when nothing is running.
func (r *ProcessRuntime) PID() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.proc == nil || r.proc.exited() {
		return 0
	}
	return r.proc.cmd.Process.Pid
}
