// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dnsoperator/daemon"
	"dnsoperator/manifest"
	"dnsoperator/revisions"

	"github.com/gin-gonic/gin"
)

const testManifest = "$ORIGIN example.com.\n$TTL 3600\nexample.com. IN SOA ns1.example.com. admin.example.com. 1 7200 3600 604800 300\nwww IN A 127.0.0.1\n@ IN NS ns1.example.com."

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	server  *Server
	handler http.Handler
	path    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "dns_manifest")
	if err := os.WriteFile(path, []byte(testManifest), 0o644); err != nil {
		t.Fatal(err)
	}
	journal, err := revisions.Open(filepath.Join(dir, "revisions.db"))
	if err != nil {
		t.Fatalf("revisions.Open: %v", err)
	}
	t.Cleanup(func() { _ = journal.Close() })
	s := &Server{
		Store:   manifest.NewStore(path, manifest.WithJournal(journal)),
		State:   daemon.NewState(),
		Journal: journal,
	}
	return &testEnv{server: s, handler: s.Handler(), path: path}
}

func (e *testEnv) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) onDisk(t *testing.T) *manifest.Manifest {
	t.Helper()
	m, err := e.server.Store.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return m
}

func TestHealthHandler(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("/health status = %d, want 200", rec.Code)
	}
}

func TestReadyHandler(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(t, http.MethodGet, "/ready", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/ready before start = %d, want 503", rec.Code)
	}
	env.server.State.SetOperatorRunning(true)
	env.server.State.SetServerStatus(true)
	if rec := env.do(t, http.MethodGet, "/ready", ""); rec.Code != http.StatusOK {
		t.Errorf("/ready when running = %d, want 200", rec.Code)
	}

	env.server.State = nil
	if rec := env.do(t, http.MethodGet, "/ready", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("/ready without state = %d, want 503", rec.Code)
	}
}

func TestGetManifest(t *testing.T) {
	env := newTestEnv(t)
	for _, target := range []string{"/", "/manifest"} {
		rec := env.do(t, http.MethodGet, target, "")
		if rec.Code != http.StatusOK || rec.Body.String() != testManifest {
			t.Errorf("GET %s = %d %q", target, rec.Code, rec.Body.String())
		}
		if rec.Header().Get("ETag") != `"1"` {
			t.Errorf("GET %s ETag = %q", target, rec.Header().Get("ETag"))
		}
	}
	rec := env.do(t, http.MethodGet, "/manifest?format=json", "")
	var body struct {
		Origin string `json:"origin"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Origin != "example.com." {
		t.Errorf("json manifest = %s (%v)", rec.Body.String(), err)
	}
}

func TestListAndGetRecords(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/a", "")
	var list struct {
		Serial  uint32            `json:"serial"`
		Records []manifest.Record `json:"records"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if list.Serial != 1 || len(list.Records) != 1 || list.Records[0].Name != "www" {
		t.Errorf("GET /a = %+v", list)
	}

	if rec := env.do(t, http.MethodGet, "/ns/@", ""); rec.Code != http.StatusOK {
		t.Errorf("GET /ns/@ = %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/a/missing", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET /a/missing = %d, want 404", rec.Code)
	}
}

func TestAddRecord(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/ns", `{"name":"ns2","value":"ns2.example.com."}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /ns = %d %s", rec.Code, rec.Body.String())
	}
	m := env.onDisk(t)
	if m.Serial() != 2 {
		t.Errorf("serial = %d, want 2", m.Serial())
	}
	if _, ok := m.Find("ns2", manifest.TypeNS); !ok {
		t.Error("ns2 not written")
	}
	if !strings.HasSuffix(m.String(), "\nns2 IN NS ns2.example.com.") {
		t.Errorf("record not appended:\n%s", m)
	}
	if _, err := env.server.Journal.Get(2); err != nil {
		t.Errorf("revision 2 not journaled: %v", err)
	}
}

func TestAddRecordRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)
	bodies := []string{
		`not json`,
		`{"name":"www"}`,
		`{"name":"www","value":"not-an-ip"}`,
		`{"name":"www","type":"NS","value":"10.0.0.1"}`,
		`{"name":"bad name","value":"10.0.0.1"}`,
	}
	for _, body := range bodies {
		if rec := env.do(t, http.MethodPost, "/a", body); rec.Code != http.StatusBadRequest {
			t.Errorf("POST /a %s = %d, want 400", body, rec.Code)
		}
	}
	if env.onDisk(t).Serial() != 1 {
		t.Error("rejected input changed the manifest")
	}
}

func TestUpdateRecord(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPut, "/a/www", `{"name":"www","value":"10.0.0.9"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT /a/www = %d %s", rec.Code, rec.Body.String())
	}
	got, _ := env.onDisk(t).Find("www", manifest.TypeA)
	if got.(manifest.Record).Value != "10.0.0.9" {
		t.Errorf("record = %+v", got)
	}

	if rec := env.do(t, http.MethodPut, "/a/missing", `{"name":"missing","value":"10.0.0.1"}`); rec.Code != http.StatusNotFound {
		t.Errorf("PUT /a/missing = %d, want 404", rec.Code)
	}
}

func TestDeleteRecord(t *testing.T) {
	env := newTestEnv(t)
	if rec := env.do(t, http.MethodDelete, "/a/www", ""); rec.Code != http.StatusOK {
		t.Fatalf("DELETE /a/www = %d", rec.Code)
	}
	m := env.onDisk(t)
	if _, ok := m.Find("www", manifest.TypeA); ok || m.Serial() != 2 {
		t.Errorf("after delete: serial %d\n%s", m.Serial(), m)
	}
	if rec := env.do(t, http.MethodDelete, "/a/www", ""); rec.Code != http.StatusNotFound {
		t.Errorf("second DELETE = %d, want 404", rec.Code)
	}
}

func TestIfMatchConflict(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/a", `{"name":"api","value":"10.0.0.5"}`, "If-Match", `"7"`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("stale If-Match = %d, want 409", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/a", `{"name":"api","value":"10.0.0.5"}`, "If-Match", `"1"`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("current If-Match = %d %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("ETag") != `"2"` {
		t.Errorf("ETag = %q", rec.Header().Get("ETag"))
	}
	if rec := env.do(t, http.MethodDelete, "/a/api", "", "If-Match", "abc"); rec.Code != http.StatusBadRequest {
		t.Errorf("malformed If-Match = %d, want 400", rec.Code)
	}
}

func TestRevisions(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/a", `{"name":"api","value":"10.0.0.5"}`)

	rec := env.do(t, http.MethodGet, "/revisions", "")
	var list struct {
		Revisions []revisions.Revision `json:"revisions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil || len(list.Revisions) != 1 || list.Revisions[0].Serial != 2 {
		t.Errorf("GET /revisions = %s", rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/revisions/2", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "api IN A 10.0.0.5") {
		t.Errorf("GET /revisions/2 = %d %q", rec.Code, rec.Body.String())
	}
	if rec := env.do(t, http.MethodGet, "/revisions/99", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET /revisions/99 = %d, want 404", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/revisions/x", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("GET /revisions/x = %d, want 400", rec.Code)
	}
}

func TestBrokenManifestIsServerError(t *testing.T) {
	env := newTestEnv(t)
	if err := os.WriteFile(env.path, []byte("$ORIGIN example.com.\n$TTL 1\nwww IN A 10.0.0.1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if rec := env.do(t, http.MethodGet, "/manifest", ""); rec.Code != http.StatusInternalServerError {
		t.Errorf("GET /manifest = %d, want 500", rec.Code)
	}
}

func TestStatusEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.server.State.RecordEvent(daemon.EventSnapshot{ID: "id-1", Kind: "update", Path: env.path})
	env.do(t, http.MethodPost, "/a", `{"name":"api","value":"10.0.0.5"}`)

	rec := env.do(t, http.MethodGet, "/status", "")
	var status struct {
		Operator daemon.Snapshot `json:"operator"`
		Zone     struct {
			Serial uint32 `json:"serial"`
		} `json:"zone"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode /status: %v", err)
	}
	if status.Operator.Reconciles != 1 || status.Zone.Serial != 2 {
		t.Errorf("/status = %s", rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/status/page", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "api") || !strings.Contains(rec.Body.String(), "/revisions/2") {
		t.Errorf("/status/page = %d", rec.Code)
	}
}

func TestStartValidatesArguments(t *testing.T) {
	if err := (&Server{}).Start(context.Background(), "8080"); err == nil {
		t.Error("Start without a store should fail")
	}
	env := newTestEnv(t)
	if err := env.server.Start(context.Background(), " "); err == nil {
		t.Error("Start with an empty port should fail")
	}
}
