// Package observability exposes engine progress as prometheus metrics
// and as a human-readable event stream.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every engine counter and gauge. Constructed once by
// the orchestrator and passed by reference; no package-level state.
type Metrics struct {
	registry *prometheus.Registry

	CandidatesEvaluated prometheus.Counter
	CandidatesRejected  *prometheus.CounterVec // by deciding tier
	Acquisitions        *prometheus.CounterVec // by venue, outcome
	Exits               *prometheus.CounterVec // by type
	OpenPositions       prometheus.Gauge
	RPCLatency          prometheus.Histogram
	VenueLatency        *prometheus.HistogramVec // by venue
}

// NewMetrics builds and registers the metric set on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		CandidatesEvaluated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sniper_candidates_evaluated_total",
			Help: "Candidates that entered the safety gate.",
		}),
		CandidatesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sniper_candidates_rejected_total",
			Help: "Candidates rejected, by the tier that decided.",
		}, []string{"tier"}),
		Acquisitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sniper_acquisitions_total",
			Help: "Acquisition attempts, by venue and outcome.",
		}, []string{"venue", "outcome"}),
		Exits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sniper_exits_total",
			Help: "Completed exit actions, by type.",
		}, []string{"type"}),
		OpenPositions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sniper_open_positions",
			Help: "Positions currently under management.",
		}),
		RPCLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sniper_rpc_latency_seconds",
			Help:    "Chain round-trip latency of position price fetches.",
			Buckets: prometheus.DefBuckets,
		}),
		VenueLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sniper_venue_latency_seconds",
			Help:    "Venue swap latency, by venue.",
			Buckets: prometheus.DefBuckets,
		}, []string{"venue"}),
	}

	reg.MustRegister(
		m.CandidatesEvaluated,
		m.CandidatesRejected,
		m.Acquisitions,
		m.Exits,
		m.OpenPositions,
		m.RPCLatency,
		m.VenueLatency,
	)
	return m
}

// Handler returns the scrape endpoint for this metric set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
