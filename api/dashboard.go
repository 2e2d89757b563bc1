// Copyright 2024-2026 George (earentir) Pantazis (https://earentir.dev)
// SPDX-License-Identifier: GPL-2.0-only
package api

import (
	"html/template"
	"net/http"
	"strconv"
	"time"

	"dnsoperator/manifest"

	"github.com/gin-gonic/gin"
)

const revisionsPageLimit = 10

// dashboardData is the struct passed to the status page template.
type dashboardData struct {
	Ready      bool
	OperatorUp bool
	ServerUp   bool
	APIUp      bool
	Uptime     string
	Started    string

	Reconciles   uint64
	Failures     uint64
	ServerStarts uint64
	LastEvent    string
	LastError    string

	Origin      string
	Serial      uint32
	ZoneError   string
	RecordCount int
	Records     []struct{ Name, Type, Value string }

	Listeners struct {
		ManifestPath string
		CorefilePath string
		DNSPort      string
		APIPort      string
	}

	JournalEnabled bool
	Revisions      []struct {
		Serial  uint32
		SavedAt string
	}
}

var statusPageTemplate = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>dnsoperator Status</title>
  <style>
    :root {
      --bg: #0d1117;
      --bg-panel: #161b22;
      --bg-hover: #21262d;
      --border: #30363d;
      --text: #e6edf3;
      --text-muted: #8b949e;
      --accent: #58a6ff;
      --success: #3fb950;
      --danger: #f85149;
    }
    * { box-sizing: border-box; }
    body {
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', 'Noto Sans', Helvetica, Arial, sans-serif;
      background: var(--bg);
      color: var(--text);
      margin: 0;
      padding: 1.5rem;
      line-height: 1.5;
    }
    h1 { font-size: 1.5rem; font-weight: 600; margin: 0 0 1.5rem 0; }
    .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(280px, 1fr)); gap: 1rem; }
    .panel { background: var(--bg-panel); border: 1px solid var(--border); border-radius: 8px; padding: 1rem 1.25rem; overflow: hidden; }
    .panel h2 {
      font-size: 0.875rem; font-weight: 600; color: var(--text-muted); text-transform: uppercase;
      margin: 0 0 0.75rem 0; padding-bottom: 0.5rem; border-bottom: 1px solid var(--border);
    }
    .panel ul { margin: 0; padding: 0; list-style: none; }
    .panel li { display: flex; justify-content: space-between; padding: 0.35rem 0; border-bottom: 1px solid var(--border); }
    .panel li:last-child { border-bottom: none; }
    .panel .key { color: var(--text-muted); }
    .panel.wide { grid-column: 1 / -1; }
    .status-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-right: 0.5rem; }
    .status-dot.ok { background: var(--success); }
    .status-dot.fail { background: var(--danger); }
    table { width: 100%; border-collapse: collapse; font-size: 0.875rem; }
    th, td { padding: 0.5rem 0.75rem; text-align: left; border-bottom: 1px solid var(--border); }
    th { color: var(--text-muted); font-weight: 600; }
    tr:hover td { background: var(--bg-hover); }
    a { color: var(--accent); text-decoration: none; }
    .muted { color: var(--text-muted); font-size: 0.875rem; margin-top: 1rem; }
  </style>
</head>
<body>
  <h1>dnsoperator Status</h1>
  <div class="grid">
    <div class="panel">
      <h2>Status</h2>
      <ul>
        <li><span class="key"><span class="status-dot {{if .Ready}}ok{{else}}fail{{end}}"></span>Ready</span><span>{{if .Ready}}Yes{{else}}No{{end}}</span></li>
        <li><span class="key"><span class="status-dot {{if .OperatorUp}}ok{{else}}fail{{end}}"></span>Operator</span><span>{{if .OperatorUp}}Up{{else}}Down{{end}}</span></li>
        <li><span class="key"><span class="status-dot {{if .ServerUp}}ok{{else}}fail{{end}}"></span>DNS server</span><span>{{if .ServerUp}}Up{{else}}Down{{end}}</span></li>
        <li><span class="key"><span class="status-dot {{if .APIUp}}ok{{else}}fail{{end}}"></span>API</span><span>{{if .APIUp}}Up{{else}}Down{{end}}</span></li>
        <li><span class="key">Uptime</span><span>{{.Uptime}}</span></li>
        <li><span class="key">Started</span><span>{{.Started}}</span></li>
      </ul>
    </div>
    <div class="panel">
      <h2>Reconcile</h2>
      <ul>
        <li><span class="key">Events</span><span>{{.Reconciles}}</span></li>
        <li><span class="key">Failures</span><span>{{.Failures}}</span></li>
        <li><span class="key">Server starts</span><span>{{.ServerStarts}}</span></li>
        <li><span class="key">Last event</span><span>{{if .LastEvent}}{{.LastEvent}}{{else}}none{{end}}</span></li>
        <li><span class="key">Last error</span><span>{{if .LastError}}{{.LastError}}{{else}}none{{end}}</span></li>
      </ul>
    </div>
    <div class="panel">
      <h2>Listeners</h2>
      <ul>
        <li><span class="key">Manifest</span><span>{{.Listeners.ManifestPath}}</span></li>
        <li><span class="key">Corefile</span><span>{{.Listeners.CorefilePath}}</span></li>
        <li><span class="key">DNS port</span><span>{{.Listeners.DNSPort}}</span></li>
        <li><span class="key">API port</span><span>{{.Listeners.APIPort}}</span></li>
      </ul>
    </div>
    <div class="panel wide">
      <h2>Zone {{.Origin}}</h2>
      {{if .ZoneError}}<p class="muted">{{.ZoneError}}</p>{{else}}
      <p class="muted">Serial {{.Serial}} · {{.RecordCount}} records</p>
      <table>
        <thead><tr><th>Name</th><th>Type</th><th>Value</th></tr></thead>
        <tbody>
          {{range .Records}}<tr><td>{{.Name}}</td><td>{{.Type}}</td><td>{{.Value}}</td></tr>{{end}}
        </tbody>
      </table>
      {{end}}
    </div>
    {{if .JournalEnabled}}
    <div class="panel wide">
      <h2>Recent revisions</h2>
      <table>
        <thead><tr><th>Serial</th><th>Saved</th></tr></thead>
        <tbody>
          {{range .Revisions}}<tr><td><a href="/revisions/{{.Serial}}">{{.Serial}}</a></td><td>{{.SavedAt}}</td></tr>{{end}}
        </tbody>
      </table>
    </div>
    {{end}}
  </div>
  <p class="muted">JSON: <a href="/status">/status</a> · Manifest: <a href="/manifest">/manifest</a></p>
</body>
</html>
`))

// statusPageHandler serves a read-only dashboard of operator state, the zone and recent revisions.
func (s *Server) statusPageHandler(c *gin.Context) {
	var data dashboardData
	if s.State != nil {
		snap := s.State.Snapshot()
		data.OperatorUp = snap.OperatorRunning
		data.ServerUp = snap.ServerUp
		data.APIUp = snap.APIRunning
		data.Ready = snap.OperatorRunning && snap.ServerUp
		data.Reconciles = snap.Reconciles
		data.Failures = snap.Failures
		data.ServerStarts = snap.ServerStarts
		if !snap.StartedAt.IsZero() {
			data.Started = snap.StartedAt.Format(time.RFC3339)
			data.Uptime = roundDuration(time.Since(snap.StartedAt))
		}
		if ev := snap.LastEvent; ev != nil {
			data.LastEvent = ev.Kind + " " + ev.Path + " at " + ev.At.Format(time.RFC3339)
		}
		if e := snap.LastError; e != nil {
			data.LastError = e.Message
		}
		ls := s.State.ListenerSnapshot()
		data.Listeners.ManifestPath = ls.ManifestPath
		data.Listeners.CorefilePath = ls.CorefilePath
		data.Listeners.DNSPort = ls.DNSPort
		data.Listeners.APIPort = ls.APIPort
	}

	if m, err := s.Store.Load(); err != nil {
		data.ZoneError = err.Error()
	} else {
		data.Origin = m.Origin().Origin
		data.Serial = m.Serial()
		records := m.Records()
		data.RecordCount = len(records)
		for _, r := range records {
			row := struct{ Name, Type, Value string }{Name: r.RecordName(), Type: r.RecordType(), Value: r.String()}
			if rec, ok := r.(manifest.Record); ok {
				row.Value = rec.Value
			}
			data.Records = append(data.Records, row)
		}
	}

	if s.Journal != nil {
		data.JournalEnabled = true
		if list, err := s.Journal.List(); err == nil {
			if len(list) > revisionsPageLimit {
				list = list[len(list)-revisionsPageLimit:]
			}
			for i := len(list) - 1; i >= 0; i-- {
				data.Revisions = append(data.Revisions, struct {
					Serial  uint32
					SavedAt string
				}{Serial: list[i].Serial, SavedAt: list[i].SavedAt.Format(time.RFC3339)})
			}
		}
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := statusPageTemplate.Execute(c.Writer, data); err != nil {
		c.String(http.StatusInternalServerError, err.Error())
	}
}

func roundDuration(d time.Duration) string {
	if d < time.Minute {
		return d.Round(time.Second).String()
	}
	if d < time.Hour {
		return d.Round(time.Minute).String()
	}
	if d < 24*time.Hour {
		return d.Round(time.Hour).String()
	}
	days := int(d / (24 * time.Hour))
	rem := d % (24 * time.Hour)
	if rem == 0 {
		return strconv.Itoa(days) + "d"
	}
	return strconv.Itoa(days) + "d " + rem.Round(time.Hour).String()
}
