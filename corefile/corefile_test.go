// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package corefile

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRender(t *testing.T) {
	got, err := Render(Params{Zone: "example.com.", ManifestPath: "/var/lib/dns/dns_manifest", Port: "53"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "example.com.:53 {\n    file /var/lib/dns/dns_manifest\n    log\n    errors\n}\n"
	if got != want {
		t.Errorf("Render =\n%s\nwant\n%s", got, want)
	}
}

func TestRenderRejectsBadParams(t *testing.T) {
	cases := []Params{
		{Zone: "example.com", ManifestPath: "/m", Port: "53"},
		{Zone: "", ManifestPath: "/m", Port: "53"},
		{Zone: "example.com.", ManifestPath: "", Port: "53"},
		{Zone: "example.com.", ManifestPath: "/with space", Port: "53"},
		{Zone: "example.com.", ManifestPath: "/m", Port: ""},
	}
	for _, p := range cases {
		if _, err := Render(p); err == nil {
			t.Errorf("Render(%+v) = nil error", p)
		}
	}
}

func TestEnsure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "Corefile")
	p := Params{Zone: "example.com.", ManifestPath: "/m", Port: "1053"}
	wrote, err := Ensure(path, p)
	if err != nil || !wrote {
		t.Fatalf("Ensure = %v, %v; want true, nil", wrote, err)
	}

	if err := os.WriteFile(path, []byte("custom"), 0o644); err != nil {
		t.Fatal(err)
	}
	wrote, err = Ensure(path, p)
	if err != nil || wrote {
		t.Fatalf("second Ensure = %v, %v; want false, nil", wrote, err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "custom" {
		t.Errorf("Ensure overwrote an existing Corefile: %q", data)
	}
}
