// Package metrics exposes dialog and adapter metrics to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m3rciful/geobot/app/dialog"
)

const namespace = "geobot"

// SessionCounter reports the number of live sessions.
type SessionCounter func(ctx context.Context) (int, error)

// Metrics implements dialog.Recorder on top of a Prometheus registry.
type Metrics struct {
	reg          *prometheus.Registry
	transitions  *prometheus.CounterVec
	adapterCalls *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry. sessions may be nil.
func New(sessions SessionCounter) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dialog_transitions_total",
				Help:      "Committed dialog transitions by source and target state.",
			},
			[]string{"from", "to"},
		),
		adapterCalls: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "adapter_call_duration_seconds",
				Help:      "Latency of external lookups by adapter and outcome.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"adapter", "outcome"},
		),
	}
	reg.MustRegister(
		m.transitions,
		m.adapterCalls,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if sessions != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_sessions",
				Help:      "Conversations currently held by the session store.",
			},
			func() float64 {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				n, err := sessions(ctx)
				if err != nil {
					return -1
				}
				return float64(n)
			},
		))
	}
	return m
}

// Transition counts a committed state change.
func (m *Metrics) Transition(from, to dialog.State) {
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

// AdapterCall observes the latency of one external lookup.
func (m *Metrics) AdapterCall(adapter, outcome string, took time.Duration) {
	m.adapterCalls.WithLabelValues(adapter, outcome).Observe(took.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}
