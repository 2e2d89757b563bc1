// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package operator

import (
	"context"
	"sync"
)

type fakeRuntime struct {
	mu          sync.Mutex
	calls       []string
	running     bool
	runErr      error
	shutdownErr error
}

func (f *fakeRuntime) Run(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "run")
	if f.runErr != nil {
		return f.runErr
	}
	f.running = true
	return nil
}

func (f *fakeRuntime) Shutdown(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, "shutdown")
	if f.shutdownErr != nil {
		return f.shutdownErr
	}
	f.running = false
	return nil
}

func (f *fakeRuntime) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeRuntime) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// fakeWatcher replays events from a channel; once it is closed Watch returns err.
type fakeWatcher struct {
	events chan Event
	err    error

	mu      sync.Mutex
	watches int
}

func newFakeWatcher(err error, events ...Event) *fakeWatcher {
	ch := make(chan Event, len(events))
	for _, ev := range events {
		ch <- ev
	}
	return &fakeWatcher{events: ch, err: err}
}

func (w *fakeWatcher) Watch(ctx context.Context) (Event, error) {
	w.mu.Lock()
	w.watches++
	w.mu.Unlock()
	select {
	case <-ctx.Done():
		return Event{}, ctx.Err()
	case ev, ok := <-w.events:
		if !ok {
			return Event{}, w.err
		}
		return ev, nil
	}
}

func (w *fakeWatcher) Unwatch() error { return nil }

func (w *fakeWatcher) Watches() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watches
}

type controllerFunc func(ctx context.Context, ev Event, rt Runtime, w Watcher) error

func (f controllerFunc) Reconcile(ctx context.Context, ev Event, rt Runtime, w Watcher) error {
	return f(ctx, ev, rt, w)
}
