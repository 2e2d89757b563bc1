// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package daemon

import (
	"sync"
	"sync/atomic"
	"time"
)

// ListenerSettings captures the runtime listener configuration for the daemon.
type ListenerSettings struct {
	ManifestPath string
	CorefilePath string
	DNSPort      string
	APIPort      string
	APIEnabled   bool
}

// EventSnapshot describes the most recent event handled by the operator loop.
type EventSnapshot struct {
	ID   string    `json:"id"`
	Kind string    `json:"kind"`
	Path string    `json:"path"`
	At   time.Time `json:"at"`
}

// ErrorSnapshot describes the most recent reconcile failure.
type ErrorSnapshot struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Snapshot is a point-in-time copy of the state, suitable for JSON output.
type Snapshot struct {
	OperatorRunning bool           `json:"operator_running"`
	ServerUp        bool           `json:"server_up"`
	APIRunning      bool           `json:"api_running"`
	Reconciles      uint64         `json:"reconciles"`
	Failures        uint64         `json:"failures"`
	ServerStarts    uint64         `json:"server_starts"`
	StartedAt       time.Time      `json:"started_at"`
	LastEvent       *EventSnapshot `json:"last_event,omitempty"`
	LastError       *ErrorSnapshot `json:"last_error,omitempty"`
}

// State owns mutable runtime data for the daemon process.
type State struct {
	stopMu        sync.Mutex
	stopCh        chan struct{}
	stoppedCh     chan struct{}
	stopClosed    bool
	stoppedClosed bool

	serverUp        atomic.Bool
	operatorRunning atomic.Bool
	apiRunning      atomic.Bool

	reconciles atomic.Uint64
	failures   atomic.Uint64
	starts     atomic.Uint64

	listenerMu sync.RWMutex
	listener   ListenerSettings

	lastMu    sync.RWMutex
	startedAt time.Time
	lastEvent *EventSnapshot
	lastError *ErrorSnapshot
}

// NewState builds a State with initial runtime defaults.
func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ResetChannels()
	return s
}

// ResetChannels reinitialises the coordination channels used to control the operator lifecycle.
func (s *State) ResetChannels() {
	s.stopMu.Lock()
	defer s.stopMu.Unlock()
	s.stopCh = make(chan struct{})
	s.stoppedCh = make(chan struct{})
	s.stopClosed = false
	s.stoppedClosed = false
}

// StopChannel returns the channel used to signal a shutdown.
func (s *State) StopChannel() <-chan struct{} {
	s.stopMu.Lock()
	ch := s.stopCh
	s.stopMu.Unlock()
	return ch
}

// StoppedChannel returns the channel that is closed once shutdown has completed.
func (s *State) StoppedChannel() <-chan struct{} {
	s.stopMu.Lock()
	ch := s.stoppedCh
	s.stopMu.Unlock()
	return ch
}

// SignalStop closes the stop channel (once) and returns the channel that should be awaited for shutdown completion.
func (s *State) SignalStop() <-chan struct{} {
	s.stopMu.Lock()
	if !s.stopClosed {
		close(s.stopCh)
		s.stopClosed = true
	}
	stopped := s.stoppedCh
	s.stopMu.Unlock()
	return stopped
}

// NotifyStopped closes the stopped channel (once) to indicate shutdown completion.
func (s *State) NotifyStopped() {
	s.stopMu.Lock()
	if !s.stoppedClosed {
		close(s.stoppedCh)
		s.stoppedClosed = true
	}
	s.stopMu.Unlock()
}

// SetServerStatus stores whether the DNS server process is currently running.
func (s *State) SetServerStatus(up bool) {
	s.serverUp.Store(up)
}

// ServerStatus reports whether the DNS server process is currently running.
func (s *State) ServerStatus() bool {
	return s.serverUp.Load()
}

// SetOperatorRunning records whether the watch/reconcile loop is active.
func (s *State) SetOperatorRunning(running bool) {
	s.operatorRunning.Store(running)
}

// OperatorRunning reports whether the watch/reconcile loop is active.
func (s *State) OperatorRunning() bool {
	return s.operatorRunning.Load()
}

// SetAPIRunning records the API server running state.
func (s *State) SetAPIRunning(running bool) {
	s.apiRunning.Store(running)
}

// APIRunning reports whether the API server goroutine is currently running.
func (s *State) APIRunning() bool {
	return s.apiRunning.Load()
}

// RecordEvent stores ev as the last handled event and bumps the reconcile counter.
func (s *State) RecordEvent(ev EventSnapshot) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	s.reconciles.Add(1)
	s.lastMu.Lock()
	s.lastEvent = &ev
	s.lastMu.Unlock()
}

// RecordStart counts a server process start.
func (s *State) RecordStart() {
	s.starts.Add(1)
}

// RecordError stores err as the last failure. A nil err is ignored.
func (s *State) RecordError(err error) {
	if err == nil {
		return
	}
	s.failures.Add(1)
	s.lastMu.Lock()
	s.lastError = &ErrorSnapshot{Message: err.Error(), At: time.Now()}
	s.lastMu.Unlock()
}

// UpdateListener applies a mutation to the stored listener settings.
func (s *State) UpdateListener(update func(*ListenerSettings)) {
	s.listenerMu.Lock()
	update(&s.listener)
	s.listenerMu.Unlock()
}

// ListenerSnapshot returns a copy of the current listener settings.
func (s *State) ListenerSnapshot() ListenerSettings {
	s.listenerMu.RLock()
	defer s.listenerMu.RUnlock()
	return s.listener
}

// Snapshot returns a copy of the counters, flags and last event/error.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		OperatorRunning: s.OperatorRunning(),
		ServerUp:        s.ServerStatus(),
		APIRunning:      s.APIRunning(),
		Reconciles:      s.reconciles.Load(),
		Failures:        s.failures.Load(),
		ServerStarts:    s.starts.Load(),
	}
	s.lastMu.RLock()
	snap.StartedAt = s.startedAt
	if s.lastEvent != nil {
		ev := *s.lastEvent
		snap.LastEvent = &ev
	}
	if s.lastError != nil {
		e := *s.lastError
		snap.LastError = &e
	}
	s.lastMu.RUnlock()
	return snap
}
