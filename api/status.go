// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package api

import (
	"errors"
	"net/http"
	"strconv"

	"dnsoperator/revisions"

	"github.com/gin-gonic/gin"
)

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// readyHandler reports ready once the operator loop runs and the server process is up.
func (s *Server) readyHandler(c *gin.Context) {
	if s.State == nil || !s.State.OperatorRunning() || !s.State.ServerStatus() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}

func (s *Server) statusHandler(c *gin.Context) {
	resp := gin.H{}
	if s.State != nil {
		resp["operator"] = s.State.Snapshot()
		ls := s.State.ListenerSnapshot()
		resp["listeners"] = gin.H{
			"manifest":    ls.ManifestPath,
			"corefile":    ls.CorefilePath,
			"dns_port":    ls.DNSPort,
			"api_port":    ls.APIPort,
			"api_enabled": ls.APIEnabled,
		}
	}
	if m, err := s.Store.Load(); err == nil {
		resp["zone"] = gin.H{
			"origin":  m.Origin().Origin,
			"serial":  m.Serial(),
			"records": len(m.Records()),
		}
	} else {
		resp["zone_error"] = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) listRevisionsHandler(c *gin.Context) {
	if s.Journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "revision journal disabled"})
		return
	}
	list, err := s.Journal.List()
	if err != nil {
		logAPIError(s.Logger, "list revisions failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if list == nil {
		list = []revisions.Revision{}
	}
	c.JSON(http.StatusOK, gin.H{"revisions": list})
}

func (s *Server) getRevisionHandler(c *gin.Context) {
	if s.Journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "revision journal disabled"})
		return
	}
	serial, err := strconv.ParseUint(c.Param("serial"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "serial must be an unsigned 32-bit integer"})
		return
	}
	rev, err := s.Journal.Get(uint32(serial))
	if errors.Is(err, revisions.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "revision not found"})
		return
	}
	if err != nil {
		logAPIError(s.Logger, "get revision failed", "serial", serial, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, rev)
		return
	}
	c.String(http.StatusOK, rev.Content)
}
