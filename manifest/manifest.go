// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package manifest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
)

const (
	originLine = 0
	ttlLine    = 1
	soaLine    = 2
)

// Manifest is a whole zone document: origin, default TTL, SOA and the ordered
// record list. Callers outside this package mutate it only through a Builder.
type Manifest struct {
	origin  OriginRecord
	ttl     TTLRecord
	soa     SOARecord
	records []RecordData
}

// New builds a Manifest from its parts.
func New(origin OriginRecord, ttl TTLRecord, soa SOARecord, records ...RecordData) *Manifest {
	m := &Manifest{origin: origin, ttl: ttl, soa: soa}
	if len(records) > 0 {
		m.records = append([]RecordData(nil), records...)
	}
	return m
}

// Default returns a starter manifest for origin with a single NS record for ns.
func Default(origin, ns, admin string) *Manifest {
	return New(
		OriginRecord{Origin: origin},
		TTLRecord{TTL: DefaultTTL},
		SOARecord{
			Name:    origin,
			Class:   ClassIN,
			MName:   ns,
			RName:   admin,
			Serial:  1,
			Refresh: DefaultRefresh,
			Retry:   DefaultRetry,
			Expire:  DefaultExpire,
			Minimum: DefaultMinimum,
		},
		Record{Name: origin, Class: ClassIN, Type: TypeNS, Value: ns},
	)
}

func (m *Manifest) Origin() OriginRecord { return m.origin }
func (m *Manifest) TTL() TTLRecord       { return m.ttl }
func (m *Manifest) SOA() SOARecord       { return m.soa }
func (m *Manifest) Serial() uint32       { return m.soa.Serial }

// Records returns a copy of the record list.
func (m *Manifest) Records() []RecordData {
	return append([]RecordData(nil), m.records...)
}

// Find returns the first record matching name and record type.
func (m *Manifest) Find(name, recordType string) (RecordData, bool) {
	if i := m.index(name, recordType); i >= 0 {
		return m.records[i], true
	}
	return nil, false
}

// FindAll returns every record of the given type, in document order.
func (m *Manifest) FindAll(recordType string) []RecordData {
	var out []RecordData
	for _, r := range m.records {
		if r.RecordType() == recordType {
			out = append(out, r)
		}
	}
	return out
}

func (m *Manifest) index(name, recordType string) int {
	for i, r := range m.records {
		if r.RecordName() == name && r.RecordType() == recordType {
			return i
		}
	}
	return -1
}

// Clone returns an independent copy. Record values are immutable, so copying
// the slice is enough.
func (m *Manifest) Clone() *Manifest {
	c := *m
	c.records = m.Records()
	return &c
}

// String composes the document: origin, TTL, SOA, then each record, newline-joined.
func (m *Manifest) String() string {
	lines := make([]string, 0, 3+len(m.records))
	lines = append(lines, m.origin.String(), m.ttl.String(), m.soa.String())
	for _, r := range m.records {
		lines = append(lines, r.String())
	}
	return strings.Join(lines, "\n")
}

// Bytes returns the composed document.
func (m *Manifest) Bytes() []byte { return []byte(m.String()) }

type manifestJSON struct {
	Origin  string            `json:"origin"`
	TTL     uint32            `json:"ttl"`
	SOA     SOARecord         `json:"soa"`
	Records []json.RawMessage `json:"records"`
}

// MarshalJSON renders the manifest for the HTTP layer. SOA entries in the
// record list carry an explicit "type" field.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	out := manifestJSON{
		Origin:  m.origin.Origin,
		TTL:     m.ttl.TTL,
		SOA:     m.soa,
		Records: make([]json.RawMessage, 0, len(m.records)),
	}
	for _, r := range m.records {
		var (
			raw []byte
			err error
		)
		switch rec := r.(type) {
		case SOARecord:
			raw, err = json.Marshal(struct {
				Type string `json:"type"`
				SOARecord
			}{Type: TypeSOA, SOARecord: rec})
		default:
			raw, err = json.Marshal(rec)
		}
		if err != nil {
			return nil, err
		}
		out.Records = append(out.Records, raw)
	}
	return json.Marshal(out)
}

// Parse parses a whole document. The origin and TTL lines never fail, the
// third line must be an SOA record, and any later line that fails to parse is
// logged and dropped so one bad record cannot keep the zone from loading.
// logger may be nil.
func Parse(text string, logger *slog.Logger) (*Manifest, error) {
	text = strings.ReplaceAll(text, "\t", " ")
	lines := strings.Split(text, "\n")
	if len(lines) <= soaLine {
		return nil, &DocumentError{Line: soaLine, Err: ErrExpectedSOA}
	}

	m := &Manifest{origin: ParseOrigin(lines[originLine])}

	ttl, err := ParseTTL(lines[ttlLine])
	if err != nil {
		logWarn(logger, "ttl directive defaulted", "line", ttlLine+1, "ttl", ttl.TTL, "error", err)
	}
	m.ttl = ttl

	rec, err := ParseLine(lines[soaLine])
	if err != nil {
		return nil, &DocumentError{Line: soaLine, Err: errors.Join(ErrExpectedSOA, err)}
	}
	soa, ok := rec.(SOARecord)
	if !ok {
		return nil, &DocumentError{Line: soaLine, Err: ErrExpectedSOA}
	}
	m.soa = soa

	for i, line := range lines[soaLine+1:] {
		rec, err := ParseLine(line)
		if err != nil {
			if errors.Is(err, ErrEmptyLine) {
				logDebug(logger, "skipping empty line", "line", soaLine+2+i)
			} else {
				logWarn(logger, "dropping unparsable record", "line", soaLine+2+i, "error", err)
			}
			continue
		}
		m.records = append(m.records, rec)
	}
	return m, nil
}

// ReadFile loads and parses the manifest at path.
func ReadFile(path string, logger *slog.Logger) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &StorageError{Op: "read", Path: path, Err: err}
	}
	return Parse(string(data), logger)
}

func logWarn(logger *slog.Logger, msg string, keyValues ...any) {
	if logger != nil {
		logger.Warn(msg, keyValues...)
	}
}

func logDebug(logger *slog.Logger, msg string, keyValues ...any) {
	if logger != nil {
		logger.Debug(msg, keyValues...)
	}
}
