package dev

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsPath is the dev-only metrics endpoint.
const MetricsPath = internalPrefix + "metrics"

// Metrics collects dev-session counters: builds, reload broadcasts, and
// connected clients. Each session owns its registry so repeated sessions
// in one process never collide.
type Metrics struct {
	registry *prometheus.Registry

	// BuildsTotal counts completed compiles by result.
	BuildsTotal *prometheus.CounterVec

	// BroadcastsTotal counts content-changed broadcasts.
	BroadcastsTotal prometheus.Counter

	// ClientsConnected is the current live-reload client count.
	ClientsConnected prometheus.Gauge
}

// NewMetrics creates and registers the session's collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BuildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "autofe_builds_total",
			Help: "Completed compiles by result.",
		}, []string{"result"}),
		BroadcastsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "autofe_reload_broadcasts_total",
			Help: "content-changed broadcasts sent to live-reload clients.",
		}),
		ClientsConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "autofe_reload_clients",
			Help: "Currently connected live-reload clients.",
		}),
	}

	m.registry.MustRegister(m.BuildsTotal, m.BroadcastsTotal, m.ClientsConnected)
	return m
}

// Handler serves the session's metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
