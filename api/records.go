// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"dnsoperator/manifest"

	"github.com/gin-gonic/gin"
)

// recordTypes maps URL path segments to the record types they manage.
var recordTypes = map[string]string{
	"a":  manifest.TypeA,
	"ns": manifest.TypeNS,
}

// RecordRequest is the JSON body accepted by POST and PUT.
type RecordRequest struct {
	Name  string `json:"name" binding:"required"`
	Class string `json:"class,omitempty"`
	Type  string `json:"type,omitempty"`
	Value string `json:"value" binding:"required"`
}

func (r RecordRequest) toRecord(recordType string) (manifest.Record, error) {
	rec := manifest.Record{
		Name:  strings.TrimSpace(r.Name),
		Class: strings.ToUpper(strings.TrimSpace(r.Class)),
		Type:  recordType,
		Value: strings.TrimSpace(r.Value),
	}
	if rec.Class == "" {
		rec.Class = manifest.ClassIN
	}
	if t := strings.ToUpper(strings.TrimSpace(r.Type)); t != "" && t != recordType {
		return rec, errors.New("record type does not match the URL")
	}
	return rec, manifest.ValidateRecord(rec)
}

// ifMatch reads the optional If-Match serial precondition.
func ifMatch(c *gin.Context) (*uint32, error) {
	raw := strings.Trim(strings.TrimSpace(c.GetHeader("If-Match")), `"`)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return nil, errors.New("If-Match must be a manifest serial")
	}
	serial := uint32(v)
	return &serial, nil
}

func setSerialHeader(c *gin.Context, m *manifest.Manifest) {
	c.Header("ETag", `"`+strconv.FormatUint(uint64(m.Serial()), 10)+`"`)
}

func (s *Server) manifestHandler(c *gin.Context) {
	m, err := s.Store.Load()
	if err != nil {
		s.writeError(c, err)
		return
	}
	setSerialHeader(c, m)
	if c.Query("format") == "json" {
		c.JSON(http.StatusOK, m)
		return
	}
	c.String(http.StatusOK, m.String())
}

func (s *Server) listRecordsHandler(recordType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := s.Store.Load()
		if err != nil {
			s.writeError(c, err)
			return
		}
		records := m.FindAll(recordType)
		if records == nil {
			records = []manifest.RecordData{}
		}
		setSerialHeader(c, m)
		c.JSON(http.StatusOK, gin.H{"serial": m.Serial(), "records": records})
	}
}

func (s *Server) getRecordHandler(recordType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := s.Store.Load()
		if err != nil {
			s.writeError(c, err)
			return
		}
		rec, ok := m.Find(c.Param("name"), recordType)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		setSerialHeader(c, m)
		c.JSON(http.StatusOK, rec)
	}
}

func (s *Server) addRecordHandler(recordType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var request RecordRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
			return
		}
		rec, err := request.toRecord(recordType)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		expected, err := ifMatch(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		m, err := s.Store.Mutate(expected, func(b *manifest.Builder) {
			b.AddRecord(rec)
		})
		if err != nil {
			s.writeError(c, err)
			return
		}
		logAPIInfo(s.Logger, "record added", "name", rec.Name, "type", rec.Type, "serial", m.Serial())
		setSerialHeader(c, m)
		c.JSON(http.StatusCreated, gin.H{"status": "record added", "serial": m.Serial(), "record": rec})
	}
}

func (s *Server) updateRecordHandler(recordType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		var request RecordRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
			return
		}
		rec, err := request.toRecord(recordType)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		expected, err := ifMatch(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		expected, ok := s.requireRecord(c, name, recordType, expected)
		if !ok {
			return
		}
		m, err := s.Store.Mutate(expected, func(b *manifest.Builder) {
			b.UpdateRecord(name, rec)
		})
		if err != nil {
			s.writeError(c, err)
			return
		}
		logAPIInfo(s.Logger, "record updated", "name", name, "type", rec.Type, "serial", m.Serial())
		setSerialHeader(c, m)
		c.JSON(http.StatusOK, gin.H{"status": "record updated", "serial": m.Serial(), "record": rec})
	}
}

func (s *Server) deleteRecordHandler(recordType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")
		expected, err := ifMatch(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		expected, ok := s.requireRecord(c, name, recordType, expected)
		if !ok {
			return
		}
		m, err := s.Store.Mutate(expected, func(b *manifest.Builder) {
			b.DeleteRecord(name, recordType)
		})
		if err != nil {
			s.writeError(c, err)
			return
		}
		logAPIInfo(s.Logger, "record deleted", "name", name, "type", recordType, "serial", m.Serial())
		setSerialHeader(c, m)
		c.JSON(http.StatusOK, gin.H{"status": "record deleted", "serial": m.Serial()})
	}
}

// requireRecord answers 404 when the record is missing. Without a caller
// precondition it pins the mutation to the serial it just read.
func (s *Server) requireRecord(c *gin.Context, name, recordType string, expected *uint32) (*uint32, bool) {
	m, err := s.Store.Load()
	if err != nil {
		s.writeError(c, err)
		return nil, false
	}
	if _, found := m.Find(name, recordType); !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return nil, false
	}
	if expected == nil {
		serial := m.Serial()
		expected = &serial
	}
	return expected, true
}

func (s *Server) writeError(c *gin.Context, err error) {
	var conflict *manifest.ConflictError
	var docErr *manifest.DocumentError
	switch {
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "expected": conflict.Expected, "actual": conflict.Actual})
	case errors.As(err, &docErr):
		logAPIError(s.Logger, "manifest on disk is invalid", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		logAPIError(s.Logger, "manifest operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
