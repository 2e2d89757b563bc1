// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package logger

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"dnsoperator/config"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

const defaultAsyncLogQueueSize = 10000

const (
	rotationCheckInterval = 5 * time.Minute
	clientLogFilename     = "dnsoperatorclient.log"
)

// Fixed server log file names.
const (
	OperatorLog  = "operator.log"
	APIServerLog = "api.log"
)

// StderrDir is the log directory value that sends output to stderr instead of a file.
const StderrDir = "-"

// safeWriter wraps a writer and on write failure falls back to stderr without failing.
type safeWriter struct {
	inner io.Writer
}

func (w *safeWriter) Write(p []byte) (n int, err error) {
	n, err = w.inner.Write(p)
	if err != nil {
		_, _ = os.Stderr.Write([]byte("[log write failed, logging to stderr] "))
		_, _ = os.Stderr.Write(p)
		return len(p), nil // pretend success so caller doesn't abort
	}
	return n, nil
}

// throttleRotateWriter wraps lumberjack and only runs a time-based rotation check every 5m.
type throttleRotateWriter struct {
	lj           *lj.Logger
	lastCheck    time.Time
	mu           sync.Mutex
	maxAgeDays   int
	rotateByTime bool
}

func (w *throttleRotateWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	if w.rotateByTime && time.Since(w.lastCheck) > rotationCheckInterval {
		w.lastCheck = time.Now()
		info, err := os.Stat(w.lj.Filename)
		if err == nil && info.ModTime().Before(time.Now().Add(-time.Duration(w.maxAgeDays)*24*time.Hour)) {
			_ = w.lj.Rotate()
		}
	}
	w.mu.Unlock()
	return w.lj.Write(p)
}

// buildLumberjack creates a lumberjack logger for the given path and config.
// For rotation "none", maxSize and maxAge are 0 (no rotation).
func buildLumberjack(logPath string, logCfg config.LogConfig) *lj.Logger {
	rot := &lj.Logger{
		Filename: logPath,
	}
	switch logCfg.Rotation {
	case config.LogRotationSize:
		rot.MaxSize = logCfg.RotationSizeMB
		if rot.MaxSize <= 0 {
			rot.MaxSize = 100
		}
		rot.MaxAge = logCfg.RotationDays
		rot.MaxBackups = 3
	case config.LogRotationTime:
		rot.MaxAge = logCfg.RotationDays
		if rot.MaxAge <= 0 {
			rot.MaxAge = 7
		}
		rot.MaxBackups = 3
	}
	return rot
}

// SeverityNone disables logging: no files are created, all output is discarded.
const SeverityNone = "none"

func isSeverityNone(severity string) bool {
	return strings.EqualFold(severity, SeverityNone)
}

// levelFromSeverity maps config severity string to slog.Level.
func levelFromSeverity(severity string) slog.Level {
	switch strings.ToLower(severity) {
	case SeverityNone:
		return slog.LevelError + 1000 // effectively nothing passes
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newFileWriter creates an io.Writer for the given path and log config.
// It creates the directory if needed. On write failure it falls back to stderr (safeWriter).
func newFileWriter(logPath string, logCfg config.LogConfig) (io.Writer, error) {
	dir := filepath.Dir(logPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", dir, err)
	}
	rot := buildLumberjack(logPath, logCfg)
	var inner io.Writer = rot
	if logCfg.Rotation == config.LogRotationTime {
		inner = &throttleRotateWriter{
			lj:           rot,
			maxAgeDays:   logCfg.RotationDays,
			rotateByTime: true,
		}
	}
	return &safeWriter{inner: inner}, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1000}))
}

// NewServerLogger creates a slog.Logger that writes to a service-specific log file
// under logCfg.Dir (operator.log or api.log).
// If severity is "none", no files are created and all log output is discarded.
// A Dir of "-" logs to stderr, as does any failure to open the file.
func NewServerLogger(serviceLogName string, logCfg config.LogConfig) *slog.Logger {
	if isSeverityNone(logCfg.Severity) {
		return Discard()
	}
	level := levelFromSeverity(logCfg.Severity)
	if logCfg.Dir == StderrDir {
		h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
		return slog.New(h).With("service", strings.TrimSuffix(serviceLogName, ".log"))
	}
	logPath := filepath.Join(logCfg.Dir, serviceLogName)
	wr, err := newFileWriter(logPath, logCfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "logger: failed to open %s: %v; using stderr\n", logPath, err)
		wr = os.Stderr
	}
	h := slog.NewTextHandler(wr, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// ClientLogPath returns the path for the client log file.
// If path is a directory, returns path/dnsoperatorclient.log; otherwise returns path as-is.
func ClientLogPath(path string) string {
	path = filepath.Clean(path)
	if path == "" || path == "." {
		return clientLogFilename
	}
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		return filepath.Join(path, clientLogFilename)
	}
	return path
}

// NewClientLogger creates a slog.Logger for one-shot CLI commands that writes to the
// given path (file or dir/dnsoperatorclient.log). Only used when the user passes --log-file.
func NewClientLogger(logFilePath string) *slog.Logger {
	logPath := ClientLogPath(logFilePath)
	cfg := config.LogConfig{
		Dir:            filepath.Dir(logPath),
		Severity:       "info",
		Rotation:       config.LogRotationSize,
		RotationSizeMB: 10,
		RotationDays:   3,
	}
	wr, err := newFileWriter(logPath, cfg)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "logger: failed to open client log %s: %v; using stderr\n", logPath, err)
		wr = os.Stderr
	}
	h := slog.NewTextHandler(wr, &slog.HandlerOptions{Level: slog.LevelInfo})
	return slog.New(h)
}

// LineWriter turns a byte stream (a child process's stdout or stderr) into one
// log record per line. Partial lines are buffered until a newline or Close.
type LineWriter struct {
	logger *slog.Logger
	level  slog.Level
	stream string
	queue  *AsyncLogQueue

	mu  sync.Mutex
	buf bytes.Buffer
}

// NewLineWriter returns a LineWriter that logs at level with a "stream" attribute.
// When queue is non-nil, records are emitted from the queue's goroutine so the
// writer never blocks on log I/O.
func NewLineWriter(logger *slog.Logger, level slog.Level, stream string, queue *AsyncLogQueue) *LineWriter {
	if logger == nil {
		logger = Discard()
	}
	return &LineWriter{logger: logger, level: level, stream: stream, queue: queue}
}

func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	for {
		idx := bytes.IndexByte(w.buf.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := string(w.buf.Next(idx + 1))
		w.emit(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

// Close flushes any buffered partial line.
func (w *LineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() > 0 {
		w.emit(strings.TrimRight(w.buf.String(), "\r"))
		w.buf.Reset()
	}
	return nil
}

func (w *LineWriter) emit(line string) {
	if line == "" {
		return
	}
	logger, level, stream := w.logger, w.level, w.stream
	if w.queue == nil {
		logger.Log(context.Background(), level, line, "stream", stream)
		return
	}
	w.queue.Enqueue(func() {
		logger.Log(context.Background(), level, line, "stream", stream)
	})
}

// AsyncLogQueue runs log callbacks in a single background goroutine so the
// caller never blocks on I/O. Child process pipes are drained through it.
type AsyncLogQueue struct {
	ch        chan func()
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewAsyncLogQueue creates a queue with the given buffer size and starts the worker.
// If size <= 0, defaultAsyncLogQueueSize is used.
func NewAsyncLogQueue(size int) *AsyncLogQueue {
	if size <= 0 {
		size = defaultAsyncLogQueueSize
	}
	q := &AsyncLogQueue{ch: make(chan func(), size)}
	q.wg.Add(1)
	go q.worker()
	return q
}

func (q *AsyncLogQueue) worker() {
	defer q.wg.Done()
	for f := range q.ch {
		f()
	}
}

// Enqueue adds f to the queue. If the queue is full, f is dropped so the caller never blocks.
func (q *AsyncLogQueue) Enqueue(f func()) {
	if q == nil || q.ch == nil {
		return
	}
	select {
	case q.ch <- f:
	default:
	}
}

// Close closes the queue and waits for the worker to drain. Idempotent.
func (q *AsyncLogQueue) Close() {
	if q == nil {
		return
	}
	q.closeOnce.Do(func() {
		close(q.ch)
		q.wg.Wait()
	})
}
