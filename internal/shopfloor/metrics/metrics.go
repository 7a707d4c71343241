// Package metrics exposes prometheus instrumentation for scan sessions.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"

	"shopfloor_go/internal/domain"
	"shopfloor_go/internal/engine"
	"shopfloor_go/internal/scan"
)

const namespace = "shopfloor"

// Metrics implements engine.Observer.
type Metrics struct {
	registry *prometheus.Registry

	ScansTotal       *prometheus.CounterVec
	CallsTotal       *prometheus.CounterVec
	CallDuration     *prometheus.HistogramVec
	TransitionsTotal *prometheus.CounterVec
	StaleDiscards    *prometheus.CounterVec
	BreakerState     *prometheus.GaugeVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}
	m.ScansTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_total",
			Help:      "Scans received, by classified kind",
		},
		[]string{"scenario", "state", "kind"},
	)
	m.CallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Backend calls by outcome",
		},
		[]string{"scenario", "operation", "outcome"},
	)
	m.CallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_duration_seconds",
			Help:      "Backend call round trip in seconds",
			Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"scenario", "operation"},
	)
	m.TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "State transitions",
		},
		[]string{"scenario", "from", "to"},
	)
	m.StaleDiscards = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_discards_total",
			Help:      "Call results dropped because the screen moved on",
		},
		[]string{"scenario", "reason"},
	)
	m.BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	reg.MustRegister(
		m.ScansTotal,
		m.CallsTotal,
		m.CallDuration,
		m.TransitionsTotal,
		m.StaleDiscards,
		m.BreakerState,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Scanned(scenario, state string, kind scan.Kind) {
	m.ScansTotal.WithLabelValues(scenario, state, kind.String()).Inc()
}

func (m *Metrics) Transitioned(scenario, from, to string) {
	m.TransitionsTotal.WithLabelValues(scenario, from, to).Inc()
}

func (m *Metrics) Discarded(scenario, reason string) {
	m.StaleDiscards.WithLabelValues(scenario, reason).Inc()
}

// RecordBreaker fits backend.Options.OnBreakerChange.
func (m *Metrics) RecordBreaker(name string, st gobreaker.State) {
	var v float64
	switch st {
	case gobreaker.StateHalfOpen:
		v = 1
	case gobreaker.StateOpen:
		v = 2
	}
	m.BreakerState.WithLabelValues(name).Set(v)
}

// Instrument counts and times every call made through next.
func (m *Metrics) Instrument(next engine.Transport) engine.Transport {
	return engine.TransportFunc(func(ctx context.Context, scenario, operation string, params engine.Params) (domain.Envelope, error) {
		start := time.Now()
		env, err := next.Call(ctx, scenario, operation, params)
		m.CallDuration.WithLabelValues(scenario, operation).Observe(time.Since(start).Seconds())
		m.CallsTotal.WithLabelValues(scenario, operation, CallOutcome(env, err)).Inc()
		return env, err
	})
}

func CallOutcome(env domain.Envelope, err error) string {
	switch {
	case err != nil:
		return "transport_error"
	case env.Rejected():
		return "rejected"
	default:
		return "ok"
	}
}
