// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package manifest

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

const sampleDocument = "$ORIGIN example.com.\n$TTL 3600\nexample.com. IN SOA ns1.example.com. admin.example.com. 1 7200 3600 604800 300\nwww IN A 127.0.0.1"

func mustParse(t *testing.T, text string) *Manifest {
	t.Helper()
	m, err := Parse(text, nil)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	return m
}

func TestParse_Sample(t *testing.T) {
	m := mustParse(t, sampleDocument)
	if m.Origin().Origin != "example.com." {
		t.Errorf("origin = %q", m.Origin().Origin)
	}
	if m.TTL().TTL != 3600 {
		t.Errorf("ttl = %d", m.TTL().TTL)
	}
	if m.Serial() != 1 {
		t.Errorf("serial = %d, want 1", m.Serial())
	}
	records := m.Records()
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	rec, ok := records[0].(Record)
	if !ok || rec.Type != TypeA || rec.Name != "www" || rec.Value != "127.0.0.1" {
		t.Errorf("record = %+v", records[0])
	}
}

func TestParse_RoundTrip(t *testing.T) {
	docs := []string{
		sampleDocument,
		"$ORIGIN example.com.\n$TTL 60\nexample.com. IN SOA ns1 admin 9 1 2 3 4",
		"$ORIGIN example.com.\n$TTL 60\n@ IN SOA ns1 admin 9 x 2 3 4\n\nwww IN A 10.0.0.1 ; comment\n@\tIN\tNS\tns1.example.com.\nbad line\nsub IN SOA a b 3 4 5 6 7",
		"example.net.\nno ttl here\nexample.net. IN SOA ns admin 4294967295 1 2 3 4\r\nmail IN A 10.0.0.2\r\n",
	}
	for i, doc := range docs {
		m := mustParse(t, doc)
		again := mustParse(t, m.String())
		if !reflect.DeepEqual(m, again) {
			t.Errorf("doc %d: round trip mismatch\nfirst:  %#v\nsecond: %#v", i, m, again)
		}
	}
}

func TestParse_DropsBadRecordLines(t *testing.T) {
	doc := strings.Join([]string{
		"$ORIGIN example.com.",
		"$TTL 3600",
		"example.com. IN SOA ns1 admin 1 7200 3600 604800 300",
		"this is garbage text",
		"www IN A 127.0.0.1",
	}, "\n")
	m := mustParse(t, doc)
	records := m.Records()
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	if records[0].RecordName() != "www" {
		t.Errorf("record = %+v", records[0])
	}
}

func TestParse_DropsLinesWithStrayBlanks(t *testing.T) {
	header := "$ORIGIN example.com.\n$TTL 3600\nexample.com. IN SOA ns1 admin 1 7200 3600 604800 300\n"
	for _, line := range []string{
		"www IN A 127.0.0.1 ; web",
		" www IN A 127.0.0.1",
		"www IN A 127.0.0.1 ",
		"   ",
	} {
		m := mustParse(t, header+line)
		if n := len(m.Records()); n != 0 {
			t.Errorf("line %q: records = %d, want 0", line, n)
		}
	}
}

func TestParse_ExpectedSOA(t *testing.T) {
	docs := []string{
		"$ORIGIN example.com.\n$TTL 3600\nwww IN A 127.0.0.1",
		"$ORIGIN example.com.\n$TTL 3600\nexample.com. IN SOA ns1 admin x 1 2 3 4",
		"$ORIGIN example.com.\n$TTL 3600",
		"",
	}
	for i, doc := range docs {
		_, err := Parse(doc, nil)
		if !errors.Is(err, ErrExpectedSOA) {
			t.Errorf("doc %d: error = %v, want ErrExpectedSOA", i, err)
		}
		var docErr *DocumentError
		if !errors.As(err, &docErr) || docErr.Line != 2 {
			t.Errorf("doc %d: error = %v, want DocumentError on line index 2", i, err)
		}
	}
}

func TestParse_DefaultTTL(t *testing.T) {
	m := mustParse(t, "$ORIGIN example.com.\n$TTL forever\nexample.com. IN SOA ns1 admin 1 1 1 1 1")
	if m.TTL().TTL != DefaultTTL {
		t.Errorf("ttl = %d, want %d", m.TTL().TTL, DefaultTTL)
	}
}

func TestCompose_Order(t *testing.T) {
	m := New(
		OriginRecord{Origin: "example.com."},
		TTLRecord{TTL: 300},
		SOARecord{Name: "example.com.", Class: "IN", MName: "ns1", RName: "admin", Serial: 5, Refresh: 1, Retry: 2, Expire: 3, Minimum: 4},
		Record{Name: "b", Class: "IN", Type: TypeA, Value: "10.0.0.2"},
		Record{Name: "a", Class: "IN", Type: TypeNS, Value: "ns1"},
	)
	want := "$ORIGIN example.com.\n$TTL 300\nexample.com. IN SOA ns1 admin 5 1 2 3 4\nb IN A 10.0.0.2\na IN NS ns1"
	if got := m.String(); got != want {
		t.Errorf("String() =\n%s\nwant\n%s", got, want)
	}
}

func TestDefault(t *testing.T) {
	m := Default("example.com.", "ns1.example.com.", "admin.example.com.")
	again := mustParse(t, m.String())
	if !reflect.DeepEqual(m, again) {
		t.Errorf("default manifest does not round trip: %s", m)
	}
	if err := Validate(m); err != nil {
		t.Errorf("Validate(default) = %v", err)
	}
}

func TestClone_IsIndependent(t *testing.T) {
	m := mustParse(t, sampleDocument)
	c := m.Clone()
	c.records[0] = Record{Name: "other", Class: "IN", Type: TypeA, Value: "10.0.0.9"}
	c.soa.Serial = 99
	if m.records[0].RecordName() != "www" || m.Serial() != 1 {
		t.Error("mutating the clone changed the original")
	}
}

func TestMarshalJSON(t *testing.T) {
	m := mustParse(t, sampleDocument)
	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded struct {
		Origin  string `json:"origin"`
		SOA     struct {
			Serial uint32 `json:"serial"`
		} `json:"soa"`
		Records []Record `json:"records"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Origin != "example.com." || decoded.SOA.Serial != 1 || len(decoded.Records) != 1 {
		t.Errorf("decoded = %+v", decoded)
	}
}
