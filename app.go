// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"dnsoperator/config"
	"dnsoperator/corefile"
	"dnsoperator/logger"
	"dnsoperator/manifest"
	"dnsoperator/revisions"
)

// clientLockTimeout keeps one-shot commands responsive while serve holds the journal.
const clientLockTimeout = 100 * time.Millisecond

// app is what one-shot commands and the shell operate on.
type app struct {
	cfgPath string
	cfg     config.Config
	logger  *slog.Logger
	store   *manifest.Store
	journal *revisions.Journal
	out     io.Writer
}

func loadConfig(path string) (*config.Loaded, error) {
	if strings.TrimSpace(path) != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

func openApp(opts *rootOptions, out io.Writer) (*app, error) {
	loaded, err := loadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	a := &app{cfgPath: loaded.Path, cfg: loaded.Config, out: out, logger: logger.Discard()}
	if opts.logFile != "" {
		a.logger = logger.NewClientLogger(opts.logFile)
	}
	// A running server holds the journal lock; one-shot commands then write without it.
	journal, err := revisions.Open(a.cfg.RevisionsPath(), revisions.WithLockTimeout(clientLockTimeout))
	if err != nil {
		a.logger.Warn("revision journal unavailable", "error", err)
		journal = nil
	}
	a.journal = journal
	a.store = manifest.NewStore(a.cfg.ManifestPath, manifest.WithLogger(a.logger), manifest.WithJournal(a.journal))
	return a, nil
}

func (a *app) Close() error {
	return a.journal.Close()
}

// ensureZone writes the default manifest and Corefile when they are missing.
func ensureZone(store *manifest.Store, cfg config.Config, log *slog.Logger) error {
	wrote, err := store.Init(manifest.Default(cfg.Zone.Origin, cfg.Zone.NameServer, cfg.Zone.Admin))
	if err != nil {
		return err
	}
	if wrote {
		log.Info("created default manifest", "path", cfg.ManifestPath, "origin", cfg.Zone.Origin)
	}
	wrote, err = corefile.Ensure(cfg.CorefilePath, corefile.Params{
		Zone:         cfg.Zone.Origin,
		ManifestPath: cfg.ManifestPath,
		Port:         cfg.DNSPort,
	})
	if err != nil {
		return err
	}
	if wrote {
		log.Info("created Corefile", "path", cfg.CorefilePath)
	}
	return nil
}

func (a *app) showManifest(format string) error {
	m, err := a.store.Load()
	if err != nil {
		return err
	}
	if format == "json" {
		return writeJSON(a.out, m)
	}
	_, err = fmt.Fprintln(a.out, m.String())
	return err
}

func (a *app) checkManifest() error {
	m, err := a.store.Load()
	if err != nil {
		return err
	}
	if err := manifest.ValidateFile(a.cfg.ManifestPath); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: zone %s serial %d, %d records OK\n", a.cfg.ManifestPath, m.Origin().Origin, m.Serial(), len(m.Records()))
	return nil
}

func (a *app) listRecords(recordType string) error {
	m, err := a.store.Load()
	if err != nil {
		return err
	}
	for _, rec := range m.Records() {
		if recordType != "" && rec.RecordType() != recordType {
			continue
		}
		fmt.Fprintln(a.out, rec.String())
	}
	return nil
}

// parseRecordType accepts "a" or "ns" in any case.
func parseRecordType(s string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case manifest.TypeA:
		return manifest.TypeA, nil
	case manifest.TypeNS:
		return manifest.TypeNS, nil
	default:
		return "", fmt.Errorf("record type %q: want a or ns", s)
	}
}

func parseSerial(s string) (uint32, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("serial %q: %w", s, err)
	}
	return uint32(v), nil
}

func (a *app) addRecord(expected *uint32, rec manifest.Record) error {
	if err := manifest.ValidateRecord(rec); err != nil {
		return err
	}
	m, err := a.store.Mutate(expected, func(b *manifest.Builder) {
		b.AddRecord(rec)
	})
	if err != nil {
		return err
	}
	a.logger.Info("record added", "name", rec.Name, "type", rec.Type, "serial", m.Serial())
	fmt.Fprintf(a.out, "added %s (serial %d)\n", rec, m.Serial())
	return nil
}

func (a *app) updateRecord(expected *uint32, name string, rec manifest.Record) error {
	if err := manifest.ValidateRecord(rec); err != nil {
		return err
	}
	if err := a.requireRecord(name, rec.Type); err != nil {
		return err
	}
	m, err := a.store.Mutate(expected, func(b *manifest.Builder) {
		b.UpdateRecord(name, rec)
	})
	if err != nil {
		return err
	}
	a.logger.Info("record updated", "name", name, "type", rec.Type, "serial", m.Serial())
	fmt.Fprintf(a.out, "updated %s (serial %d)\n", rec, m.Serial())
	return nil
}

func (a *app) deleteRecord(expected *uint32, name, recordType string) error {
	if err := a.requireRecord(name, recordType); err != nil {
		return err
	}
	m, err := a.store.Mutate(expected, func(b *manifest.Builder) {
		b.DeleteRecord(name, recordType)
	})
	if err != nil {
		return err
	}
	a.logger.Info("record deleted", "name", name, "type", recordType, "serial", m.Serial())
	fmt.Fprintf(a.out, "deleted %s %s (serial %d)\n", name, recordType, m.Serial())
	return nil
}

var errRecordNotFound = errors.New("record not found")

func (a *app) requireRecord(name, recordType string) error {
	m, err := a.store.Load()
	if err != nil {
		return err
	}
	if _, ok := m.Find(name, recordType); !ok {
		return fmt.Errorf("%s %s: %w", name, recordType, errRecordNotFound)
	}
	return nil
}

func (a *app) history(serial string) error {
	if a.journal == nil {
		return errors.New("revision journal is disabled or locked by a running server (use GET /revisions)")
	}
	if serial != "" {
		s, err := parseSerial(serial)
		if err != nil {
			return err
		}
		rev, err := a.journal.Get(s)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(a.out, rev.Content)
		return err
	}
	list, err := a.journal.List()
	if err != nil {
		return err
	}
	for _, rev := range list {
		fmt.Fprintf(a.out, "%-10d %s\n", rev.Serial, rev.SavedAt.Format("2006-01-02 15:04:05Z07:00"))
	}
	return nil
}

func (a *app) showConfig() error {
	fmt.Fprintf(a.out, "# %s\n", a.cfgPath)
	return writeJSON(a.out, a.cfg)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
