// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only

// Package api exposes the manifest over HTTP: read the zone, change A and NS
// records, browse stored revisions and report operator status.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"dnsoperator/daemon"
	"dnsoperator/manifest"
	"dnsoperator/revisions"

	"github.com/gin-gonic/gin"
)

const shutdownGrace = 5 * time.Second

// RouteRegistrar registers HTTP routes on the supplied Gin engine.
type RouteRegistrar func(*gin.Engine)

// Server serves the manifest API. Store is required; State, Journal and Logger are optional.
type Server struct {
	Store   *manifest.Store
	State   *daemon.State
	Journal *revisions.Journal
	Logger  *slog.Logger

	// Extra registers additional routes after the default ones.
	Extra RouteRegistrar
}

// Handler builds the Gin engine with every route registered.
func (s *Server) Handler() http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())
	s.RegisterRoutes(router)
	if s.Extra != nil {
		s.Extra(router)
	}
	return router
}

// Start serves on port until ctx is cancelled, then shuts the listener down.
// It returns nil after a clean shutdown.
func (s *Server) Start(ctx context.Context, port string) error {
	if s.Store == nil {
		logAPIWarn(s.Logger, "missing manifest store; cannot start API")
		return errors.New("api: manifest store is required")
	}
	trimmed := strings.TrimSpace(port)
	if trimmed == "" {
		logAPIWarn(s.Logger, "invalid port; refusing to start")
		return errors.New("api: port is empty")
	}
	if s.State != nil {
		if s.State.APIRunning() {
			logAPIWarn(s.Logger, "API server already running; skipping start")
			return nil
		}
		s.State.SetAPIRunning(true)
		defer s.State.SetAPIRunning(false)
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort("", trimmed),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logAPIInfo(s.Logger, "API server starting", "port", trimmed)

	select {
	case err := <-errCh:
		logAPIError(s.Logger, "API server stopped with error", "error", err)
		return fmt.Errorf("api: %w", err)
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logAPIError(s.Logger, "API server shutdown failed", "error", err)
		return fmt.Errorf("api: shutdown: %w", err)
	}
	logAPIInfo(s.Logger, "API server stopped")
	return nil
}

// RegisterRoutes wires up the manifest, record, revision and status handlers.
func (s *Server) RegisterRoutes(router *gin.Engine) {
	if router == nil {
		return
	}
	router.GET("/", s.manifestHandler)
	router.GET("/manifest", s.manifestHandler)

	for path, recordType := range recordTypes {
		group := router.Group("/" + path)
		group.GET("", s.listRecordsHandler(recordType))
		group.GET("/:name", s.getRecordHandler(recordType))
		group.POST("", s.addRecordHandler(recordType))
		group.PUT("/:name", s.updateRecordHandler(recordType))
		group.DELETE("/:name", s.deleteRecordHandler(recordType))
	}

	router.GET("/revisions", s.listRevisionsHandler)
	router.GET("/revisions/:serial", s.getRevisionHandler)

	router.GET("/status", s.statusHandler)
	router.GET("/status/page", s.statusPageHandler)
	router.GET("/health", healthHandler)
	router.GET("/ready", s.readyHandler)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if s.Logger == nil {
			return
		}
		s.Logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client", c.ClientIP())
	}
}

func logAPIInfo(logger *slog.Logger, msg string, keyValues ...any) {
	if logger != nil {
		logger.Info(msg, keyValues...)
	}
}

func logAPIWarn(logger *slog.Logger, msg string, keyValues ...any) {
	if logger != nil {
		logger.Warn(msg, keyValues...)
	}
}

func logAPIError(logger *slog.Logger, msg string, keyValues ...any) {
	if logger != nil {
		logger.Error(msg, keyValues...)
	}
}
