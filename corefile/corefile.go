// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only

// Package corefile renders the CoreDNS server configuration that serves the manifest.
package corefile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/miekg/dns"
)

// Params describe the single zone block to render.
type Params struct {
	Zone         string
	ManifestPath string
	Port         string
}

var tmpl = template.Must(template.New("corefile").Parse(`{{.Zone}}:{{.Port}} {
    file {{.ManifestPath}}
    log
    errors
}
`))

func (p Params) validate() error {
	if p.Zone == "" || !dns.IsFqdn(p.Zone) {
		return fmt.Errorf("corefile: zone %q must be a fully qualified name", p.Zone)
	}
	if _, ok := dns.IsDomainName(p.Zone); !ok {
		return fmt.Errorf("corefile: zone %q is not a domain name", p.Zone)
	}
	if strings.TrimSpace(p.ManifestPath) == "" {
		return errors.New("corefile: manifest path is empty")
	}
	if strings.ContainsAny(p.ManifestPath, " \t\n{}") {
		return fmt.Errorf("corefile: manifest path %q contains blanks or braces", p.ManifestPath)
	}
	if p.Port == "" {
		return errors.New("corefile: port is empty")
	}
	return nil
}

// Render returns the Corefile text for p.
func Render(p Params) (string, error) {
	if err := p.validate(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return "", fmt.Errorf("corefile: render: %w", err)
	}
	return buf.String(), nil
}

// Ensure writes the rendered Corefile to path when no file exists there yet.
// It reports whether a file was written.
func Ensure(path string, p Params) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("corefile: stat %s: %w", path, err)
	}
	text, err := Render(p)
	if err != nil {
		return false, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("corefile: create directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return false, fmt.Errorf("corefile: write %s: %w", path, err)
	}
	return true, nil
}
