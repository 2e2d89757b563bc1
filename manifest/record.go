// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only

// Package manifest parses, composes and mutates the plain-text zone manifest
// served by the managed DNS server.
package manifest

import (
	"fmt"
	"strconv"
	"strings"
)

// Record types understood by the manifest grammar.
const (
	TypeA   = "A"
	TypeNS  = "NS"
	TypeSOA = "SOA"
)

// ClassIN is the only record class the manifest writes.
const ClassIN = "IN"

// SOA timer defaults used when a field cannot be parsed.
const (
	DefaultRefresh uint32 = 7200
	DefaultRetry   uint32 = 3600
	DefaultExpire  uint32 = 604800
	DefaultMinimum uint32 = 300
)

const (
	recordFields = 4
	soaFields    = 10
)

// RecordData is one entry of a manifest's record list: a Record (A, NS) or an SOARecord.
type RecordData interface {
	RecordName() string
	RecordType() string
	String() string
	isRecordData()
}

// Record is a generic four-field record: name, class, type and value.
type Record struct {
	Name  string `json:"name"`
	Class string `json:"class"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

func (r Record) RecordName() string { return r.Name }
func (r Record) RecordType() string { return r.Type }
func (Record) isRecordData()        {}

func (r Record) String() string {
	return strings.Join([]string{r.Name, r.Class, r.Type, r.Value}, " ")
}

// SOARecord is the zone authority record.
type SOARecord struct {
	Name    string `json:"name"`
	Class   string `json:"class"`
	MName   string `json:"mname"` // primary name server
	RName   string `json:"rname"` // administrator mailbox
	Serial  uint32 `json:"serial"`
	Refresh uint32 `json:"refresh"`
	Retry   uint32 `json:"retry"`
	Expire  uint32 `json:"expire"`
	Minimum uint32 `json:"minimum"`
}

func (s SOARecord) RecordName() string { return s.Name }
func (SOARecord) RecordType() string   { return TypeSOA }
func (SOARecord) isRecordData()        {}

func (s SOARecord) String() string {
	return fmt.Sprintf("%s %s %s %s %s %d %d %d %d %d",
		s.Name, s.Class, TypeSOA, s.MName, s.RName,
		s.Serial, s.Refresh, s.Retry, s.Expire, s.Minimum)
}

// ParseLine parses one record line. Only a line that is empty once its
// comment is stripped reports ErrEmptyLine.
func ParseLine(line string) (RecordData, error) {
	fields := splitLine(line)
	n := len(fields)
	if n == 0 {
		return nil, ErrEmptyLine
	}
	if n != recordFields && n != soaFields {
		expected := recordFields
		if n > recordFields {
			expected = soaFields
		}
		return nil, &ArityError{Expected: expected, Got: n}
	}

	switch recordType := fields[2]; recordType {
	case TypeA, TypeNS:
		if n != recordFields {
			return nil, &ArityError{Expected: recordFields, Got: n}
		}
		return Record{Name: fields[0], Class: fields[1], Type: recordType, Value: fields[3]}, nil
	case TypeSOA:
		if n != soaFields {
			return nil, &ArityError{Expected: soaFields, Got: n}
		}
		return parseSOA(fields)
	default:
		return nil, &UnknownTypeError{Type: recordType}
	}
}

func parseSOA(fields []string) (SOARecord, error) {
	serial, err := strconv.ParseUint(fields[5], 10, 32)
	if err != nil {
		return SOARecord{}, &NumberError{Field: "serial", Value: fields[5], Err: err}
	}
	return SOARecord{
		Name:    fields[0],
		Class:   fields[1],
		MName:   fields[3],
		RName:   fields[4],
		Serial:  uint32(serial),
		Refresh: parseUint32Or(fields[6], DefaultRefresh),
		Retry:   parseUint32Or(fields[7], DefaultRetry),
		Expire:  parseUint32Or(fields[8], DefaultExpire),
		Minimum: parseUint32Or(fields[9], DefaultMinimum),
	}, nil
}

func parseUint32Or(s string, fallback uint32) uint32 {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return fallback
	}
	return uint32(v)
}

// splitLine normalizes the line and splits it on single spaces. Leading and
// trailing blanks are not trimmed: they yield empty fields and so count
// towards the arity.
func splitLine(line string) []string {
	line = normalizeLine(line)
	if line == "" {
		return nil
	}
	return strings.Split(line, " ")
}

// normalizeLine drops a CR line terminator and the comment, turns tabs into
// spaces and collapses runs of spaces.
func normalizeLine(line string) string {
	line = strings.TrimSuffix(line, "\r")
	line = stripComment(line)
	line = strings.ReplaceAll(line, "\t", " ")
	for strings.Contains(line, "  ") {
		line = strings.ReplaceAll(line, "  ", " ")
	}
	return line
}

func isBlank(r rune) bool {
	return r == ' ' || r == '\t' || r == '\r'
}

// stripComment drops everything from the first ';' not preceded by a backslash.
func stripComment(line string) string {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case ';':
			return line[:i]
		}
	}
	return line
}

// OriginRecord is the $ORIGIN directive.
type OriginRecord struct {
	Origin string `json:"origin"`
}

const originPrefix = "$ORIGIN "

// ParseOrigin keeps the line verbatim apart from a leading "$ORIGIN " prefix.
func ParseOrigin(line string) OriginRecord {
	line = strings.TrimRight(line, "\r")
	return OriginRecord{Origin: strings.TrimPrefix(line, originPrefix)}
}

func (o OriginRecord) String() string { return originPrefix + o.Origin }

// TTLRecord is the $TTL directive.
type TTLRecord struct {
	TTL uint32 `json:"ttl"`
}

// DefaultTTL applies when the $TTL directive is missing or malformed.
const DefaultTTL uint32 = 3600

const ttlPrefix = "$TTL "

// ParseTTL never fails: a missing or malformed directive yields DefaultTTL and
// a non-nil diagnostic describing why.
func ParseTTL(line string) (TTLRecord, error) {
	line = stripComment(line)
	if !strings.Contains(line, ttlPrefix) {
		return TTLRecord{TTL: DefaultTTL}, fmt.Errorf("manifest: zone file should contain %q, received: %q", strings.TrimSpace(ttlPrefix), line)
	}
	value := strings.Replace(line, ttlPrefix, "", 1)
	value = strings.Map(func(r rune) rune {
		if isBlank(r) {
			return -1
		}
		return r
	}, value)
	ttl, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return TTLRecord{TTL: DefaultTTL}, &NumberError{Field: "ttl", Value: value, Err: err}
	}
	return TTLRecord{TTL: uint32(ttl)}, nil
}

func (t TTLRecord) String() string { return ttlPrefix + strconv.FormatUint(uint64(t.TTL), 10) }
