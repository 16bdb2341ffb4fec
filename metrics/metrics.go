// Package metrics exports Prometheus counters for the gateway and the tag agent
// and serves them on a dedicated listener.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "attendance"

// Touch outcomes recorded by the agent.
const (
	TouchCaptured  = "captured"
	TouchForwarded = "forwarded"
	TouchDropped   = "dropped"
)

// Ledger call results recorded by the gateway.
const (
	ResultOK          = "ok"
	ResultDuplicate   = "duplicate"
	ResultUnreachable = "unreachable"
	ResultFailed      = "failed"
)

var (
	registry = prometheus.NewRegistry()

	touches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "agent",
		Name:      "touches_total",
		Help:      "Tag touches handled by the agent, by outcome.",
	}, []string{"outcome"})

	forwardFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "agent",
		Name:      "forward_failures_total",
		Help:      "Attendance forwards to the gateway that failed or timed out.",
	})

	storeFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "agent",
		Name:      "store_failures_total",
		Help:      "Rendezvous store errors that degraded a touch to attendance-only.",
	})

	marks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "marks_total",
		Help:      "Attendance marks submitted to the ledger, by result.",
	}, []string{"result"})

	registrations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "registrations_total",
		Help:      "Student registrations submitted to the ledger, by result.",
	}, []string{"result"})

	ledgerLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "gateway",
		Name:      "ledger_tx_seconds",
		Help:      "Time from submitting a ledger transaction to its receipt.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"method"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		touches,
		forwardFailures,
		storeFailures,
		marks,
		registrations,
		ledgerLatency,
	)
}

// RecordTouch counts a touch handled by the agent.
func RecordTouch(outcome string) {
	touches.WithLabelValues(outcome).Inc()
}

// RecordForwardFailure counts a failed attendance forward.
func RecordForwardFailure() {
	forwardFailures.Inc()
}

// RecordStoreFailure counts a rendezvous store error seen by the agent.
func RecordStoreFailure() {
	storeFailures.Inc()
}

// RecordMark counts an attendance mark and how long the ledger took.
func RecordMark(result string, took time.Duration) {
	marks.WithLabelValues(result).Inc()
	ledgerLatency.WithLabelValues("markAttendance").Observe(took.Seconds())
}

// RecordRegistration counts a registration and how long the ledger took.
func RecordRegistration(result string, took time.Duration) {
	registrations.WithLabelValues(result).Inc()
	ledgerLatency.WithLabelValues("registerStudent").Observe(took.Seconds())
}

// Handler serves the metrics registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
}

// MetricsServer serves /metrics on its own listener.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server listening on addr.
func New(addr string) (*MetricsServer, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	return &MetricsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// ListenAndServe blocks until the server stops.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
