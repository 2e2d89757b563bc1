// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package operator

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher delivers one change event per Watch call.
type Watcher interface {
	// Watch blocks until the next event, ctx is done, or the watcher is closed.
	Watch(ctx context.Context) (Event, error)
	// Unwatch stops observation. Pending and future Watch calls return ErrWatcherClosed.
	Unwatch() error
}

// FileWatcher observes a fixed set of files. It watches their parent
// directories and filters by name, so files replaced by rename are still seen.
type FileWatcher struct {
	fsw      *fsnotify.Watcher
	paths    map[string]struct{}
	debounce time.Duration
	logger   *slog.Logger

	closeOnce sync.Once
	closed    chan struct{}
}

// NewFileWatcher watches paths. Events that arrive within debounce of each other
// are coalesced into one; the kind of the last one wins. A zero debounce
// delivers every event as it arrives.
func NewFileWatcher(paths []string, debounce time.Duration, logger *slog.Logger) (*FileWatcher, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("operator: no paths to watch")
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("operator: create watcher: %w", err)
	}
	w := &FileWatcher{
		fsw:      fsw,
		paths:    make(map[string]struct{}, len(paths)),
		debounce: debounce,
		logger:   logger,
		closed:   make(chan struct{}),
	}
	dirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("operator: resolve %s: %w", p, err)
		}
		w.paths[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("operator: watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Paths returns the watched file paths.
func (w *FileWatcher) Paths() []string {
	out := make([]string, 0, len(w.paths))
	for p := range w.paths {
		out = append(out, p)
	}
	return out
}

func (w *FileWatcher) Watch(ctx context.Context) (Event, error) {
	var (
		pending Event
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-w.closed:
			return Event{}, ErrWatcherClosed
		case fe, ok := <-w.fsw.Events:
			if !ok {
				return Event{}, ErrWatcherClosed
			}
			ev, ok := w.classify(fe)
			if !ok {
				continue
			}
			if w.debounce <= 0 {
				return ev, nil
			}
			pending = ev
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return Event{}, ErrWatcherClosed
			}
			if w.logger != nil {
				w.logger.Warn("watcher error", "error", err)
			}
		case <-fire:
			return pending, nil
		}
	}
}

func (w *FileWatcher) classify(fe fsnotify.Event) (Event, bool) {
	path := filepath.Clean(fe.Name)
	if _, ok := w.paths[path]; !ok {
		return Event{}, false
	}
	switch {
	case fe.Has(fsnotify.Remove), fe.Has(fsnotify.Rename):
		return Event{Kind: EventDelete, Path: path}, true
	case fe.Has(fsnotify.Create):
		return Event{Kind: EventCreate, Path: path}, true
	case fe.Has(fsnotify.Write):
		return Event{Kind: EventUpdate, Path: path}, true
	default:
		return Event{}, false
	}
}

func (w *FileWatcher) Unwatch() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.closed)
		err = w.fsw.Close()
	})
	return err
}
