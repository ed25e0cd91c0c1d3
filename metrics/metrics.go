// Package metrics exposes playback session counters in the prometheus format.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/peyitv/peyitv/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "peyitv"

// Metrics holds the session collectors on a private registry. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	starts      *prometheus.CounterVec
	failures    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	stalls      prometheus.Counter
	state       *prometheus.GaugeVec
	startup     prometheus.Histogram
}

// New registers the session collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		starts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_start_total",
			Help:      "Playback start attempts by protocol",
		}, []string{"protocol"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_failure_total",
			Help:      "Playback sessions ended by an error, by error kind",
		}, []string{"kind"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_transition_total",
			Help:      "Session state transitions",
		}, []string{"from", "to"}),
		stalls: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_stall_total",
			Help:      "Buffer underruns after playback had started",
		}),
		state: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_state",
			Help:      "1 for the current session state, 0 otherwise",
		}, []string{"state"}),
		startup: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "session_startup_seconds",
			Help:      "Time from start request to first rendered frame",
			Buckets:   []float64{0.25, 0.5, 1, 2, 3, 5, 8, 13, 20, 30},
		}),
	}
}

// Registry is the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveStart counts a start attempt.
func (m *Metrics) ObserveStart(protocol string) {
	if m == nil {
		return
	}
	m.starts.WithLabelValues(protocol).Inc()
}

// ObserveFailure counts a session ended by err.
func (m *Metrics) ObserveFailure(kind string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(kind).Inc()
}

// ObserveTransition counts a transition and moves the state gauge.
func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}

	m.transitions.WithLabelValues(from, to).Inc()
	m.state.WithLabelValues(from).Set(0)
	m.state.WithLabelValues(to).Set(1)

	if to == "stalled" {
		m.stalls.Inc()
	}
}

// ObserveStartup records how long the session took to render its first frame.
func (m *Metrics) ObserveStartup(d time.Duration) {
	if m == nil {
		return
	}
	m.startup.Observe(d.Seconds())
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Infof("serving metrics on %s", ln.Addr())

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
