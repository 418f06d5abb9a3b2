// Package metrics holds the hub's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "chirper_hub"

type Metrics struct {
	Requests      *prometheus.CounterVec
	Writes        *prometheus.CounterVec
	Snapshots     *prometheus.CounterVec
	Subscriptions prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "gRPC requests by method and status code.",
		}, []string{"method", "code"}),
		Writes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "document_writes_total",
			Help:      "Committed document writes by collection and operation.",
		}, []string{"collection", "op"}),
		Snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_delivered_total",
			Help:      "Live query snapshots sent to subscribers.",
		}, []string{"collection"}),
		Subscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_subscriptions",
			Help:      "Currently open live queries.",
		}),
	}
	reg.MustRegister(m.Requests, m.Writes, m.Snapshots, m.Subscriptions)
	return m
}

func (m *Metrics) ObserveRequest(method, code string) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(method, code).Inc()
}

func (m *Metrics) ObserveWrite(collection, op string) {
	if m == nil {
		return
	}
	m.Writes.WithLabelValues(collection, op).Inc()
}

func (m *Metrics) ObserveSnapshot(collection string) {
	if m == nil {
		return
	}
	m.Snapshots.WithLabelValues(collection).Inc()
}

func (m *Metrics) SubscriptionOpened() {
	if m == nil {
		return
	}
	m.Subscriptions.Inc()
}

func (m *Metrics) SubscriptionClosed() {
	if m == nil {
		return
	}
	m.Subscriptions.Dec()
}

// Handler serves the collectors gathered by g in the text exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
