// Package promexport publishes live run counters on a Prometheus endpoint.
package promexport

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/torosent/waveload/internal/metrics"
)

const namespace = "waveload"

// Exporter is an aggregator observer that mirrors measurements into
// Prometheus collectors on a private registry.
type Exporter struct {
	registry *prometheus.Registry
	calls    *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewExporter() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "calls_total",
			Help:      "Calls issued, by kind, outcome and phase (warmup or timed).",
		}, []string{"kind", "outcome", "phase"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_latency_seconds",
			Help:      "Latency of successful timed calls.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
		}, []string{"kind"}),
	}
	e.registry.MustRegister(e.calls, e.latency)
	return e
}

// Observe implements metrics.Observer.
func (e *Exporter) Observe(m metrics.Measurement) {
	phase := "timed"
	if !m.Counted() {
		phase = "warmup"
	}
	outcome := "success"
	if !m.Success() {
		outcome = "failure"
	}
	kind := m.Kind().String()
	e.calls.WithLabelValues(kind, outcome, phase).Inc()
	if m.Counted() && m.Success() {
		e.latency.WithLabelValues(kind).Observe(m.Latency().Seconds())
	}
}

// Handler returns an HTTP handler that exposes the exporter's metrics.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// Server serves /metrics until Shutdown.
type Server struct {
	srv  *http.Server
	ln   net.Listener
	done chan error
}

// Serve listens on addr and serves the exporter's metrics in the background.
func (e *Exporter) Serve(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())

	s := &Server{
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ln:   ln,
		done: make(chan error, 1),
	}
	go func() {
		err := s.srv.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		s.done <- err
	}()
	return s, nil
}

// Addr is the address the server is listening on.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Shutdown stops the server, waiting for in-flight scrapes.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return err
	}
	return <-s.done
}
