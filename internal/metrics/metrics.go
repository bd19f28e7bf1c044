// Package metrics exports control-loop counters to Prometheus.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/nav"
)

// #region metrics
// Metrics holds one registry per process. Methods are safe for concurrent use.
type Metrics struct {
	registry *prometheus.Registry

	cycles       prometheus.Counter
	transitions  *prometheus.CounterVec
	unmapped     prometheus.Counter
	errors       *prometheus.CounterVec
	wheelSpeed   *prometheus.GaugeVec
	cycleSeconds prometheus.Histogram
}

// New registers the controller's collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		cycles: f.NewCounter(prometheus.CounterOpts{
			Name: "nav_cycles_total",
			Help: "Control cycles evaluated",
		}),
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nav_transitions_total",
			Help: "Statechart transitions by source state, target state and rule",
		}, []string{"from", "to", "rule"}),
		unmapped: f.NewCounter(prometheus.CounterOpts{
			Name: "nav_unmapped_state_total",
			Help: "Cycles that landed in a state with no action",
		}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "nav_errors_total",
			Help: "Loop errors by stage",
		}, []string{"stage"}),
		wheelSpeed: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nav_wheel_speed_mm_per_second",
			Help: "Last commanded wheel speed",
		}, []string{"wheel"}),
		cycleSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "nav_cycle_duration_seconds",
			Help:    "Wall time of one control cycle",
			Buckets: []float64{0.001, 0.005, 0.01, 0.02, 0.04, 0.06, 0.1, 0.25},
		}),
	}
}

// Observe records one evaluated cycle.
func (m *Metrics) Observe(p nav.Policy, res nav.StepResult) {
	m.cycles.Inc()
	if res.Transition != nil {
		m.transitions.WithLabelValues(
			nav.StateName(p, res.Transition.From),
			nav.StateName(p, res.Transition.To),
			res.Transition.Rule,
		).Inc()
	}
	if res.Unmapped {
		m.unmapped.Inc()
	}
	m.wheelSpeed.WithLabelValues("left").Set(float64(res.Speeds.Left))
	m.wheelSpeed.WithLabelValues("right").Set(float64(res.Speeds.Right))
}

// CycleDuration records how long a cycle took.
func (m *Metrics) CycleDuration(d time.Duration) {
	m.cycleSeconds.Observe(d.Seconds())
}

// Error counts a failure in stage ("sensor", "actuator", "record", ...).
func (m *Metrics) Error(stage string) {
	m.errors.WithLabelValues(stage).Inc()
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// #endregion metrics

// #region server
// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// #endregion server
