// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package daemon

import (
	"errors"
	"testing"
)

func TestNewState(t *testing.T) {
	s := NewState()
	if s == nil {
		t.Fatal("NewState returned nil")
	}
	if s.ServerStatus() {
		t.Error("new state should have ServerStatus false")
	}
	if s.APIRunning() || s.OperatorRunning() {
		t.Error("new state should have nothing running")
	}
	snap := s.Snapshot()
	if snap.LastEvent != nil || snap.LastError != nil || snap.Reconciles != 0 {
		t.Errorf("new snapshot = %+v", snap)
	}
}

func TestState_Flags(t *testing.T) {
	s := NewState()
	s.SetServerStatus(true)
	s.SetAPIRunning(true)
	s.SetOperatorRunning(true)
	if !s.ServerStatus() || !s.APIRunning() || !s.OperatorRunning() {
		t.Error("flags not stored")
	}
	s.SetServerStatus(false)
	if s.ServerStatus() {
		t.Error("ServerStatus() = true after SetServerStatus(false)")
	}
}

func TestState_ListenerSnapshot(t *testing.T) {
	s := NewState()
	snapshot := s.ListenerSnapshot()
	if snapshot.DNSPort != "" || snapshot.APIPort != "" {
		t.Errorf("new listener snapshot should have zero values, got %+v", snapshot)
	}
	s.UpdateListener(func(l *ListenerSettings) {
		l.DNSPort = "53"
		l.APIPort = "8080"
	})
	snapshot = s.ListenerSnapshot()
	if snapshot.DNSPort != "53" || snapshot.APIPort != "8080" {
		t.Errorf("ListenerSnapshot = %+v", snapshot)
	}
}

func TestState_RecordEventAndError(t *testing.T) {
	s := NewState()
	s.RecordEvent(EventSnapshot{ID: "a", Kind: "update", Path: "/tmp/m"})
	s.RecordEvent(EventSnapshot{ID: "b", Kind: "create", Path: "/tmp/m"})
	s.RecordStart()
	s.RecordError(nil)
	s.RecordError(errors.New("boom"))

	snap := s.Snapshot()
	if snap.Reconciles != 2 || snap.ServerStarts != 1 || snap.Failures != 1 {
		t.Errorf("counters = %+v", snap)
	}
	if snap.LastEvent == nil || snap.LastEvent.ID != "b" || snap.LastEvent.At.IsZero() {
		t.Errorf("LastEvent = %+v", snap.LastEvent)
	}
	if snap.LastError == nil || snap.LastError.Message != "boom" {
		t.Errorf("LastError = %+v", snap.LastError)
	}

	snap.LastEvent.ID = "mutated"
	if s.Snapshot().LastEvent.ID != "b" {
		t.Error("Snapshot shares memory with State")
	}
}

func TestState_SignalStop_NotifyStopped(t *testing.T) {
	s := NewState()
	stopped := s.SignalStop()
	select {
	case <-s.StopChannel():
	default:
		t.Fatal("StopChannel should be closed after SignalStop")
	}
	select {
	case <-stopped:
		t.Fatal("StoppedChannel should not be closed until NotifyStopped")
	default:
	}
	s.SignalStop()
	s.NotifyStopped()
	s.NotifyStopped()
	select {
	case <-stopped:
	default:
		t.Error("StoppedChannel should be closed after NotifyStopped")
	}
}
