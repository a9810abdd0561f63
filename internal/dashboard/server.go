// Package dashboard serves the latest replay report over HTTP.
package dashboard

import (
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"GapSentinel/internal/model"
	"GapSentinel/internal/notifier"
)

// Server keeps the most recent report and renders it.
type Server struct {
	mu       sync.RWMutex
	report   *model.Report
	gatherer prometheus.Gatherer
}

// New creates a dashboard. A nil gatherer disables /metrics.
func New(g prometheus.Gatherer) *Server {
	return &Server{gatherer: g}
}

// Publish replaces the report shown by the dashboard.
func (s *Server) Publish(r *model.Report) {
	s.mu.Lock()
	s.report = r
	s.mu.Unlock()
}

// Latest returns the last published report, or nil before the first run.
func (s *Server) Latest() *model.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

// Handler returns the dashboard routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/report", s.handleReport)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return mux
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	r := s.Latest()
	if r == nil {
		http.Error(w, "no replay has completed yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(r); err != nil {
		log.Printf("[ERROR] encode report: %v", err)
	}
}

type tile struct {
	Symbol string
	Line   string
	Signal bool
}

type pageData struct {
	Report *model.Report
	Tiles  []tile
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	data := pageData{Report: s.Latest()}
	if data.Report != nil {
		for i := range data.Report.Results {
			res := &data.Report.Results[i]
			data.Tiles = append(data.Tiles, tile{
				Symbol: res.Symbol,
				Line:   notifier.FormatStatus(res),
				Signal: res.HasSignal(),
			})
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("[ERROR] render dashboard: %v", err)
	}
}

var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>FVG + DCA replay</title>
<style>
body { font-family: sans-serif; margin: 2em; }
.tiles { display: flex; flex-wrap: wrap; gap: 1em; }
.tile { border: 1px solid #ccc; padding: .6em 1em; border-radius: 4px; }
.signal { border-color: #2a7; }
table { border-collapse: collapse; margin-top: 1em; }
td, th { border: 1px solid #ddd; padding: .3em .7em; text-align: right; }
</style>
</head>
<body>
<h1>FVG + DCA replay</h1>
{{- with .Report}}
<p>Run {{.RunID}} · {{.Source}} · {{.Timeframe}} · finished {{.FinishedAt.Format "2006-01-02 15:04:05 MST"}}</p>
<div class="tiles">
{{- range $.Tiles}}
<div class="tile{{if .Signal}} signal{{end}}">{{.Line}}</div>
{{- end}}
{{- range .Failures}}
<div class="tile">{{.Symbol}}: {{.Error}}</div>
{{- end}}
</div>
<h2>Trades</h2>
{{- if .Trades}}
<table>
<tr><th>Symbol</th><th>Exit time</th><th>Avg entry</th><th>Exit price</th><th>Quantity</th><th>Profit</th></tr>
{{- range .Trades}}
<tr><td>{{.Symbol}}</td><td>{{.ExitTime.Format "2006-01-02 15:04"}}</td><td>{{printf "%.4f" .AvgEntry}}</td><td>{{printf "%.4f" .ExitPrice}}</td><td>{{.Quantity}}</td><td>{{printf "%+.4f" .Profit}}</td></tr>
{{- end}}
</table>
<h2>Cumulative profit</h2>
<table>
<tr><th>Time</th><th>Symbol</th><th>Cumulative</th></tr>
{{- range .Cumulative}}
<tr><td>{{.Time.Format "2006-01-02 15:04"}}</td><td>{{.Symbol}}</td><td>{{printf "%+.4f" .Cumulative}}</td></tr>
{{- end}}
</table>
<p>Total profit: {{printf "%+.4f" .TotalProfit}}</p>
{{- else}}
<p>No pair met the entry condition.</p>
{{- end}}
{{- else}}
<p>No replay has completed yet.</p>
{{- end}}
</body>
</html>
`))
