// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// FileName is the canonical name of the configuration file.
	FileName = "dnsoperator.json"
	// systemConfigPath is the location checked last when resolving the config.
	systemConfigPath = "/etc/" + FileName
)

// Defaults for a freshly written configuration.
const (
	DefaultServerBinary    = "coredns"
	DefaultDNSPort         = "53"
	DefaultAPIPort         = "8080"
	DefaultDebounceMillis  = 250
	DefaultShutdownSeconds = 10
	defaultManifestName    = "dns_manifest"
	defaultCorefileName    = "Corefile"
	defaultRevisionsName   = "revisions.db"
)

// ZoneDefaults seed the manifest written when none exists yet.
type ZoneDefaults struct {
	Origin     string `json:"origin"`
	NameServer string `json:"nameserver"`
	Admin      string `json:"admin"`
}

// LogRotationMode is the log rotation strategy: "none", "size", or "time".
type LogRotationMode string

const (
	LogRotationNone LogRotationMode = "none"
	LogRotationSize LogRotationMode = "size"
	LogRotationTime LogRotationMode = "time"
)

// LogConfig holds logging directory, severity, and rotation settings.
// A Dir of "-" sends logs to stderr.
type LogConfig struct {
	Dir            string          `json:"log_dir"`
	Severity       string          `json:"log_severity"`
	Rotation       LogRotationMode `json:"log_rotation"`
	RotationSizeMB int             `json:"log_rotation_size_mb"`
	RotationDays   int             `json:"log_rotation_time_days"`
}

// Config captures all persisted settings for dnsoperator.
type Config struct {
	ManifestPath           string       `json:"manifest"`
	CorefilePath           string       `json:"corefile"`
	ServerBinary           string       `json:"server_binary"`
	ServerArgs             []string     `json:"server_args,omitempty"`
	DNSPort                string       `json:"port"`
	RESTPort               string       `json:"apiport"`
	APIEnabled             bool         `json:"api"`
	DebounceMillis         int          `json:"debounce_ms"`
	ShutdownTimeoutSeconds int          `json:"shutdown_timeout_seconds"`
	RevisionsDB            *string      `json:"revisions_db,omitempty"` // nil: default path, "": disabled
	Zone                   ZoneDefaults `json:"zone"`
	Log                    LogConfig    `json:"log"`
}

// Loaded contains the configuration together with metadata about the source file.
type Loaded struct {
	Path    string
	Created bool
	Config  Config
}

// Debounce is the watcher coalescing window.
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// ShutdownTimeout bounds how long a server stop may take.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutSeconds) * time.Second
}

// RevisionsPath returns the journal path, or "" when the journal is disabled.
func (c *Config) RevisionsPath() string {
	if c.RevisionsDB == nil {
		return ""
	}
	return *c.RevisionsDB
}

// Load resolves the dnsoperator configuration file, creating a default one if
// necessary, and returns the parsed configuration alongside metadata.
func Load() (*Loaded, error) {
	candidates, err := candidatePaths()
	if err != nil {
		return nil, err
	}

	for _, path := range candidates {
		cfg, err := readConfig(path)
		if err == nil {
			cfg.applyDefaults(filepath.Dir(path))
			return &Loaded{Path: path, Config: *cfg}, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
	}

	defaultDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: determine working directory: %w", err)
	}

	defaultPath := filepath.Join(defaultDir, FileName)
	cfg := defaultConfig(defaultDir)
	if err := writeConfig(defaultPath, cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults(defaultDir)
	return &Loaded{Path: defaultPath, Created: true, Config: *cfg}, nil
}

// resolveConfigPath returns the config file path. If path is a directory (ends
// with /, exists as dir, or path has no extension), returns path/FileName;
// otherwise returns path as the config file path.
func resolveConfigPath(path string) (string, error) {
	path = filepath.Clean(strings.TrimSpace(path))
	if path == "" || path == "." {
		return "", fmt.Errorf("config: path is empty")
	}
	isDir := strings.HasSuffix(path, string(filepath.Separator))
	if !isDir {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			isDir = true
		} else if !strings.Contains(filepath.Base(path), ".") {
			isDir = true
		}
	}
	if isDir {
		path = strings.TrimSuffix(path, string(filepath.Separator))
		return filepath.Join(path, FileName), nil
	}
	return path, nil
}

// LoadFromPath loads configuration from the given path, or creates a default
// config at that path if the file does not exist. Path may be a directory
// (then config is path/dnsoperator.json) or a file path.
func LoadFromPath(path string) (*Loaded, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("config: path is empty")
	}
	configPath, err := resolveConfigPath(path)
	if err != nil {
		return nil, err
	}
	cfg, err := readConfig(configPath)
	if err == nil {
		cfg.applyDefaults(filepath.Dir(configPath))
		return &Loaded{Path: configPath, Config: *cfg}, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read %s: %w", configPath, err)
	}
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("config: ensure config directory %s: %w", dir, err)
	}
	defaultCfg := defaultConfig(dir)
	if err := writeConfig(configPath, defaultCfg); err != nil {
		return nil, err
	}
	defaultCfg.applyDefaults(dir)
	return &Loaded{Path: configPath, Created: true, Config: *defaultCfg}, nil
}

// Read loads and normalises configuration from the specified path without
// searching other locations.
func Read(path string) (*Config, error) {
	cfg, err := readConfig(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults(filepath.Dir(path))
	return cfg, nil
}

// Save writes the supplied configuration back to the given path.
func Save(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("config: ensure config directory %s: %w", dir, err)
	}
	cfg.applyDefaults(dir)
	return writeConfig(path, &cfg)
}

func candidatePaths() ([]string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("config: determine executable path: %w", err)
	}
	execDir := filepath.Dir(execPath)

	var paths []string
	paths = appendIfMissing(paths, filepath.Join(execDir, FileName))

	if userPath, err := userConfigPath(); err == nil && userPath != "" {
		paths = appendIfMissing(paths, userPath)
	}

	paths = appendIfMissing(paths, systemConfigPath)
	return paths, nil
}

func userConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: determine user config dir: %w", err)
	}
	return filepath.Join(dir, "dnsoperator", FileName), nil
}

func readConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("config: file %s is empty", path)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}

func writeConfig(path string, cfg *Config) error {
	payload, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal config: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func defaultConfig(baseDir string) *Config {
	logDir := "/var/log/dnsoperator"
	if !isSystemConfigDir(baseDir) && !runningAsRoot() {
		logDir = filepath.Join(baseDir, "log")
	}
	revisions := filepath.Join(baseDir, defaultRevisionsName)
	corefile := filepath.Join(baseDir, defaultCorefileName)
	return &Config{
		ManifestPath:           filepath.Join(baseDir, defaultManifestName),
		CorefilePath:           corefile,
		ServerBinary:           DefaultServerBinary,
		ServerArgs:             []string{"-conf", corefile},
		DNSPort:                DefaultDNSPort,
		RESTPort:               DefaultAPIPort,
		APIEnabled:             false,
		DebounceMillis:         DefaultDebounceMillis,
		ShutdownTimeoutSeconds: DefaultShutdownSeconds,
		RevisionsDB:            &revisions,
		Zone: ZoneDefaults{
			Origin:     "example.com.",
			NameServer: "ns1.example.com.",
			Admin:      "admin.example.com.",
		},
		Log: LogConfig{
			Dir:            logDir,
			Severity:       "info",
			Rotation:       LogRotationSize,
			RotationSizeMB: 100,
			RotationDays:   7,
		},
	}
}

func (c *Config) applyDefaults(configDir string) {
	c.ManifestPath = ensureAbsolutePath(configDir, c.ManifestPath, defaultManifestName)
	c.CorefilePath = ensureAbsolutePath(configDir, c.CorefilePath, defaultCorefileName)
	if strings.TrimSpace(c.ServerBinary) == "" {
		c.ServerBinary = DefaultServerBinary
	}
	if c.ServerArgs == nil {
		c.ServerArgs = []string{"-conf", c.CorefilePath}
	}
	if c.DNSPort == "" {
		c.DNSPort = DefaultDNSPort
	}
	if c.RESTPort == "" {
		c.RESTPort = DefaultAPIPort
	}
	if c.DebounceMillis < 0 {
		c.DebounceMillis = 0
	} else if c.DebounceMillis == 0 {
		c.DebounceMillis = DefaultDebounceMillis
	}
	if c.ShutdownTimeoutSeconds <= 0 {
		c.ShutdownTimeoutSeconds = DefaultShutdownSeconds
	}
	if c.RevisionsDB == nil {
		revisions := filepath.Join(configDir, defaultRevisionsName)
		c.RevisionsDB = &revisions
	} else if strings.TrimSpace(*c.RevisionsDB) != "" {
		revisions := ensureAbsolutePath(configDir, *c.RevisionsDB, defaultRevisionsName)
		c.RevisionsDB = &revisions
	}
	if c.Zone.Origin == "" {
		c.Zone.Origin = "example.com."
	}
	if c.Zone.NameServer == "" {
		c.Zone.NameServer = "ns1." + c.Zone.Origin
	}
	if c.Zone.Admin == "" {
		c.Zone.Admin = "admin." + c.Zone.Origin
	}

	if c.Log.Dir == "" {
		if isSystemConfigDir(configDir) {
			c.Log.Dir = "/var/log/dnsoperator"
		} else {
			c.Log.Dir = filepath.Join(configDir, "log")
		}
	} else if c.Log.Dir != "-" {
		c.Log.Dir = ensureAbsolutePath(configDir, c.Log.Dir, "log")
	}
	if c.Log.Severity == "" {
		c.Log.Severity = "info"
	}
	if c.Log.Rotation == "" {
		c.Log.Rotation = LogRotationSize
	}
	if c.Log.RotationSizeMB <= 0 {
		c.Log.RotationSizeMB = 100
	}
	if c.Log.RotationDays <= 0 {
		c.Log.RotationDays = 7
	}
}

func appendIfMissing(paths []string, candidate string) []string {
	for _, existing := range paths {
		if existing == candidate {
			return paths
		}
	}
	return append(paths, candidate)
}

func ensureAbsolutePath(configDir, value, fallbackName string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return filepath.Join(configDir, fallbackName)
	}
	if filepath.IsAbs(value) {
		return filepath.Clean(value)
	}
	return filepath.Join(configDir, value)
}

// isSystemConfigDir returns true when configDir is the system config location (e.g. /etc or /etc/dnsoperator),
// so log dir and other defaults can use system paths like /var/log/dnsoperator.
func isSystemConfigDir(configDir string) bool {
	clean := filepath.Clean(configDir)
	return clean == "/etc" || strings.HasPrefix(clean, "/etc"+string(filepath.Separator))
}
