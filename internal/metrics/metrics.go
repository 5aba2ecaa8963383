// Package metrics exposes prometheus counters for wake requests.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the wake counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// PacketsSent counts magic packets handed to the network.
	PacketsSent prometheus.Counter
	// Failures counts failed wake requests by reason.
	Failures *prometheus.CounterVec
	// Commands counts received commands by source.
	Commands *prometheus.CounterVec
}

// New creates the counters and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PacketsSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gowol_packets_sent_total",
				Help: "Number of Wake-on-LAN packets sent",
			},
		),
		Failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowol_wake_failures_total",
				Help: "Number of failed wake requests",
			},
			[]string{"reason"},
		),
		Commands: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowol_commands_total",
				Help: "Number of wake commands received",
			},
			[]string{"source"},
		),
	}

	m.registry.MustRegister(m.PacketsSent, m.Failures, m.Commands)
	return m
}

// PacketSent records a successful send.
func (m *Metrics) PacketSent() {
	if m == nil {
		return
	}
	m.PacketsSent.Inc()
}

// Failure records a failed wake request.
func (m *Metrics) Failure(reason string) {
	if m == nil {
		return
	}
	m.Failures.WithLabelValues(reason).Inc()
}

// Command records a command received from source.
func (m *Metrics) Command(source string) {
	if m == nil {
		return
	}
	m.Commands.WithLabelValues(source).Inc()
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
