// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package manifest

import (
	"log/slog"
	"math"
)

// Builder applies mutations to a private copy of a Manifest. Build finalizes
// the builder: it hands out a snapshot and rejects further use until Reset.
type Builder struct {
	manifest  *Manifest
	finalized bool
	err       error
	logger    *slog.Logger
}

// NewBuilder returns a builder working on a copy of m.
func NewBuilder(m *Manifest) *Builder {
	return &Builder{manifest: m.Clone()}
}

// LoadBuilder reads and parses the manifest at path. Storage and document
// errors are returned to the caller. logger may be nil.
func LoadBuilder(path string, logger *slog.Logger) (*Builder, error) {
	m, err := ReadFile(path, logger)
	if err != nil {
		return nil, err
	}
	b := NewBuilder(m)
	b.logger = logger
	return b, nil
}

// WithLogger sets the logger used for builder diagnostics.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Reset re-arms the builder with a copy of m and clears any recorded error.
func (b *Builder) Reset(m *Manifest) *Builder {
	b.manifest = m.Clone()
	b.finalized = false
	b.err = nil
	return b
}

func (b *Builder) usable() bool {
	if b.finalized {
		b.err = ErrBuilderFinalized
		return false
	}
	return b.err == nil
}

// AddRecord replaces the record with the same name and type in place, or
// appends rec when there is none.
func (b *Builder) AddRecord(rec RecordData) *Builder {
	if !b.usable() {
		return b
	}
	if i := b.manifest.index(rec.RecordName(), rec.RecordType()); i >= 0 {
		b.manifest.records[i] = rec
		return b
	}
	b.manifest.records = append(b.manifest.records, rec)
	return b
}

// UpdateRecord replaces the record named name whose type matches rec's type.
// Without a match it does nothing; rec is not appended.
func (b *Builder) UpdateRecord(name string, rec RecordData) *Builder {
	if !b.usable() {
		return b
	}
	if i := b.manifest.index(name, rec.RecordType()); i >= 0 {
		b.manifest.records[i] = rec
	}
	return b
}

// DeleteRecord removes the first record matching name and type, if any.
func (b *Builder) DeleteRecord(name, recordType string) *Builder {
	if !b.usable() {
		return b
	}
	if i := b.manifest.index(name, recordType); i >= 0 {
		b.manifest.records = append(b.manifest.records[:i:i], b.manifest.records[i+1:]...)
	}
	return b
}

// Increment bumps the SOA serial by one. The serial wraps at 2^32.
func (b *Builder) Increment() *Builder {
	if !b.usable() {
		return b
	}
	if b.manifest.soa.Serial == math.MaxUint32 {
		logWarn(b.logger, "soa serial wraps around", "serial", b.manifest.soa.Serial)
	}
	b.manifest.soa.Serial++
	return b
}

// Serial reports the serial of the manifest being built.
func (b *Builder) Serial() uint32 {
	return b.manifest.soa.Serial
}

// Build returns the accumulated manifest and finalizes the builder. The first
// error recorded by a chained call is returned instead.
func (b *Builder) Build() (*Manifest, error) {
	if !b.usable() {
		return nil, b.err
	}
	b.finalized = true
	return b.manifest.Clone(), nil
}
