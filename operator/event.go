// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only

// Package operator keeps a DNS server process in sync with the manifest on disk:
// a Watcher reports file changes, a Controller decides what to do about them,
// and a Runtime starts and stops the server process.
package operator

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRunningProcess is returned by Shutdown when no server process is tracked.
	ErrNoRunningProcess = errors.New("operator: no running process")
	// ErrUnknownEvent is returned by a Controller for an event kind it does not handle.
	ErrUnknownEvent = errors.New("operator: unknown event kind")
	// ErrWatcherClosed is returned by Watch after Unwatch.
	ErrWatcherClosed = errors.New("operator: watcher closed")
)

// EventKind classifies a change to a watched path.
type EventKind int

const (
	EventCreate EventKind = iota + 1
	EventUpdate
	EventDelete
)

func (k EventKind) String() string {
	switch k {
	case EventCreate:
		return "create"
	case EventUpdate:
		return "update"
	case EventDelete:
		return "delete"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is one change observed on a watched path.
type Event struct {
	Kind EventKind
	Path string
}

// ProcessError reports a failed server process operation.
type ProcessError struct {
	Op  string // "start", "stop" or "wait"
	Err error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("operator: %s server process: %v", e.Op, e.Err)
}

func (e *ProcessError) Unwrap() error { return e.Err }
