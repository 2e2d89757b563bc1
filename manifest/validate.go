// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package manifest

import (
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/miekg/dns"
)

// Validate checks that the composed manifest is a zone the DNS server can
// load. The manifest grammar is lenient; this is the strict check.
func Validate(m *Manifest) error {
	if err := validateOrigin(m); err != nil {
		return err
	}
	return validateZone(m.String())
}

// ValidateFile checks the manifest at path as the DNS server will read it:
// the raw bytes go through the zone parser, so lines the lenient manifest
// parser would drop still fail validation.
func ValidateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &StorageError{Op: "read", Path: path, Err: err}
	}
	m, err := Parse(string(data), nil)
	if err != nil {
		return err
	}
	if err := validateOrigin(m); err != nil {
		return err
	}
	return validateZone(string(data))
}

func validateOrigin(m *Manifest) error {
	origin := strings.TrimSpace(m.origin.Origin)
	if _, ok := dns.IsDomainName(origin); !ok || !dns.IsFqdn(origin) {
		return fmt.Errorf("manifest: origin %q is not a fully qualified domain name", origin)
	}
	return nil
}

func validateZone(text string) error {
	zp := dns.NewZoneParser(strings.NewReader(text), "", "")
	count := 0
	for rr, ok := zp.Next(); ok; rr, ok = zp.Next() {
		if count == 0 && rr.Header().Rrtype != dns.TypeSOA {
			return fmt.Errorf("manifest: first record is %s, want SOA", dns.TypeToString[rr.Header().Rrtype])
		}
		count++
	}
	if err := zp.Err(); err != nil {
		return fmt.Errorf("manifest: zone does not parse: %w", err)
	}
	return nil
}

// ValidateRecord checks a single A or NS record before it is written.
func ValidateRecord(rec Record) error {
	if _, ok := dns.IsDomainName(rec.Name); !ok || rec.Name == "" {
		return fmt.Errorf("manifest: invalid record name %q", rec.Name)
	}
	if _, ok := dns.StringToClass[rec.Class]; !ok {
		return fmt.Errorf("manifest: invalid record class %q", rec.Class)
	}
	switch rec.Type {
	case TypeA:
		ip := net.ParseIP(rec.Value)
		if ip == nil || ip.To4() == nil {
			return fmt.Errorf("manifest: invalid IPv4 address %q", rec.Value)
		}
	case TypeNS:
		if _, ok := dns.IsDomainName(rec.Value); !ok || rec.Value == "" {
			return fmt.Errorf("manifest: invalid name server %q", rec.Value)
		}
	default:
		return &UnknownTypeError{Type: rec.Type}
	}
	if strings.ContainsAny(rec.Name+rec.Value, " \t\n;") {
		return fmt.Errorf("manifest: record fields must not contain blanks or ';'")
	}
	return nil
}
