// Package metrics exposes Prometheus collectors for replays.
//
//   - gapsentinel_replays_total{result}            ok|error
//   - gapsentinel_symbols_simulated_total{outcome} no_signal|open|closed|error
//   - gapsentinel_gaps_detected_total{direction}   bullish|bearish (latest gap per symbol)
//   - gapsentinel_last_run_profit                  summed profit of the last replay
//   - gapsentinel_replay_duration_seconds          wall time of a replay
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"GapSentinel/internal/model"
)

// Metrics holds all replay collectors.
type Metrics struct {
	Replays         *prometheus.CounterVec
	Symbols         *prometheus.CounterVec
	Gaps            *prometheus.CounterVec
	LastRunProfit   prometheus.Gauge
	ReplayDuration  prometheus.Histogram
	LastRunUnixTime prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Replays: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gapsentinel",
			Name:      "replays_total",
			Help:      "Replays run, by result.",
		}, []string{"result"}),
		Symbols: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gapsentinel",
			Name:      "symbols_simulated_total",
			Help:      "Symbols replayed, by outcome.",
		}, []string{"outcome"}),
		Gaps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gapsentinel",
			Name:      "gaps_detected_total",
			Help:      "Latest fair value gap per replayed symbol, by direction.",
		}, []string{"direction"}),
		LastRunProfit: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "gapsentinel",
			Name:      "last_run_profit",
			Help:      "Summed trade profit of the last replay.",
		}),
		ReplayDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gapsentinel",
			Name:      "replay_duration_seconds",
			Help:      "Wall time of a replay.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		LastRunUnixTime: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "gapsentinel",
			Name:      "last_run_timestamp_seconds",
			Help:      "Finish time of the last successful replay.",
		}),
	}
}

// ObserveReport records a finished replay.
func (m *Metrics) ObserveReport(r *model.Report) {
	m.Replays.WithLabelValues("ok").Inc()
	for i := range r.Results {
		res := &r.Results[i]
		if !res.HasSignal() {
			m.Symbols.WithLabelValues("no_signal").Inc()
			continue
		}
		m.Symbols.WithLabelValues(string(res.Position.Status)).Inc()
		if res.LatestGap != nil {
			m.Gaps.WithLabelValues(string(res.LatestGap.Direction)).Inc()
		}
	}
	if n := len(r.Failures); n > 0 {
		m.Symbols.WithLabelValues("error").Add(float64(n))
	}
	m.LastRunProfit.Set(r.TotalProfit)
	m.ReplayDuration.Observe(r.FinishedAt.Sub(r.StartedAt).Seconds())
	m.LastRunUnixTime.Set(float64(r.FinishedAt.Unix()))
}

// ObserveFailure records a replay that could not start.
func (m *Metrics) ObserveFailure() { m.Replays.WithLabelValues("error").Inc() }
