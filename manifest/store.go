// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Journal receives every revision the Store persists.
type Journal interface {
	Record(serial uint32, content string) error
}

// Store reads and writes the manifest file. Writes are serialised within the
// process and guarded across processes by comparing the on-disk serial with
// the serial the caller read.
type Store struct {
	path    string
	mu      sync.Mutex
	logger  *slog.Logger
	journal Journal
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger for parse diagnostics and journal failures.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// WithJournal records each saved revision in j.
func WithJournal(j Journal) StoreOption {
	return func(s *Store) { s.journal = j }
}

// NewStore returns a Store for the manifest at path.
func NewStore(path string, opts ...StoreOption) *Store {
	s := &Store{path: path}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the manifest file path.
func (s *Store) Path() string { return s.path }

// Load reads and parses the manifest.
func (s *Store) Load() (*Manifest, error) {
	return ReadFile(s.path, s.logger)
}

// Init writes m only if no manifest exists yet. It reports whether it wrote.
func (s *Store) Init(m *Manifest) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := os.Stat(s.path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, &StorageError{Op: "stat", Path: s.path, Err: err}
	}
	if err := s.write(m); err != nil {
		return false, err
	}
	return true, nil
}

// Save persists m if the manifest on disk still carries expectedSerial.
// A missing file is never a conflict.
func (s *Store) Save(m *Manifest, expectedSerial uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := ReadFile(s.path, nil)
	switch {
	case err == nil:
		if current.Serial() != expectedSerial {
			return &ConflictError{Expected: expectedSerial, Actual: current.Serial()}
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return err
	}
	return s.write(m)
}

// Mutate runs one read-modify-write cycle: load, check the optional caller
// precondition, apply fn, bump the serial, build and save against the serial
// that was read.
func (s *Store) Mutate(expectedSerial *uint32, fn func(*Builder)) (*Manifest, error) {
	b, err := LoadBuilder(s.path, s.logger)
	if err != nil {
		return nil, err
	}
	read := b.Serial()
	if expectedSerial != nil && *expectedSerial != read {
		return nil, &ConflictError{Expected: *expectedSerial, Actual: read}
	}
	fn(b)
	m, err := b.Increment().Build()
	if err != nil {
		return nil, err
	}
	if err := s.Save(m, read); err != nil {
		return nil, err
	}
	return m, nil
}

// write replaces the file atomically. Callers hold s.mu.
func (s *Store) write(m *Manifest) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &StorageError{Op: "mkdir", Path: dir, Err: err}
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return &StorageError{Op: "create", Path: s.path, Err: err}
	}
	content := m.String()
	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return &StorageError{Op: "write", Path: s.path, Err: err}
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return &StorageError{Op: "chmod", Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return &StorageError{Op: "close", Path: s.path, Err: err}
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return &StorageError{Op: "rename", Path: s.path, Err: err}
	}

	if s.journal != nil {
		if err := s.journal.Record(m.Serial(), content); err != nil {
			logWarn(s.logger, "failed to journal manifest revision", "serial", m.Serial(), "error", fmt.Sprint(err))
		}
	}
	return nil
}
