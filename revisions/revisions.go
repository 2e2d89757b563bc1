// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package revisions

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"
)

const revisionsBucket = "revisions"

// ErrNotFound is returned by Get when no revision is stored for a serial.
var ErrNotFound = errors.New("revisions: serial not found")

// Revision is one stored manifest version.
type Revision struct {
	Serial  uint32    `json:"serial"`
	SavedAt time.Time `json:"saved_at"`
	Content string    `json:"content,omitempty"`
}

// Journal keeps every manifest revision written by the store, keyed by serial.
// A nil *Journal is valid and records nothing.
type Journal struct {
	db        *bbolt.DB
	closeOnce sync.Once
	now       func() time.Time
}

// DefaultLockTimeout is how long Open waits for another process to release
// the database file lock.
const DefaultLockTimeout = 1 * time.Second

// Option configures Open.
type Option func(*openOptions)

type openOptions struct {
	lockTimeout time.Duration
}

// WithLockTimeout bounds the wait for the database file lock. Short-lived
// clients use a small value so a running server does not stall them.
func WithLockTimeout(d time.Duration) Option {
	return func(o *openOptions) {
		if d > 0 {
			o.lockTimeout = d
		}
	}
}

// Open opens (or creates) the journal database at path. An empty path disables
// the journal and returns nil without error.
func Open(path string, opts ...Option) (*Journal, error) {
	if path == "" {
		return nil, nil
	}
	o := openOptions{lockTimeout: DefaultLockTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("revisions: create directory: %w", err)
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: o.lockTimeout})
	if err != nil {
		return nil, fmt.Errorf("revisions: open database: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(revisionsBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("revisions: initialize bucket: %w", err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

func serialKey(serial uint32) []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, serial)
	return key
}

// Record stores content under serial, replacing any previous entry for it
// (serials repeat after wraparound).
func (j *Journal) Record(serial uint32, content string) error {
	if j == nil {
		return nil
	}
	data, err := json.Marshal(Revision{Serial: serial, SavedAt: j.now().UTC(), Content: content})
	if err != nil {
		return fmt.Errorf("revisions: marshal: %w", err)
	}
	return j.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(revisionsBucket))
		if bucket == nil {
			return fmt.Errorf("revisions bucket not found")
		}
		return bucket.Put(serialKey(serial), data)
	})
}

// Get returns the revision stored for serial, or ErrNotFound.
func (j *Journal) Get(serial uint32) (*Revision, error) {
	if j == nil {
		return nil, ErrNotFound
	}
	var rev *Revision
	err := j.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(revisionsBucket))
		if bucket == nil {
			return fmt.Errorf("revisions bucket not found")
		}
		data := bucket.Get(serialKey(serial))
		if data == nil {
			return ErrNotFound
		}
		rev = &Revision{}
		return json.Unmarshal(data, rev)
	})
	if err != nil {
		return nil, err
	}
	return rev, nil
}

// List returns every stored revision in ascending serial order, without content.
func (j *Journal) List() ([]Revision, error) {
	if j == nil {
		return nil, nil
	}
	var out []Revision
	err := j.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(revisionsBucket))
		if bucket == nil {
			return fmt.Errorf("revisions bucket not found")
		}
		return bucket.ForEach(func(_, v []byte) error {
			var rev Revision
			if err := json.Unmarshal(v, &rev); err != nil {
				return err
			}
			rev.Content = ""
			out = append(out, rev)
			return nil
		})
	})
	return out, err
}

// Close closes the database. Safe to call more than once.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	var closeErr error
	j.closeOnce.Do(func() {
		closeErr = j.db.Close()
	})
	return closeErr
}
