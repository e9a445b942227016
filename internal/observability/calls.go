// internal/observability/calls.go
package observability

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"finflow-ledger/internal/repository"
	"finflow-ledger/pkg/db"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ledger"

// CallMetrics records stored-procedure calls as Prometheus metrics and log lines.
// It implements repository.CallObserver.
type CallMetrics struct {
	logger   *slog.Logger
	registry *prometheus.Registry
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
}

var _ repository.CallObserver = (*CallMetrics)(nil)

// NewCallMetrics creates the metrics on a private registry.
func NewCallMetrics(logger *slog.Logger) *CallMetrics {
	m := &CallMetrics{
		logger:   logger,
		registry: prometheus.NewRegistry(),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "procedure_call_duration_seconds",
			Help:      "Duration of stored procedure calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "shape", "outcome"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "procedure_call_failures_total",
			Help:      "Failed stored procedure calls by error kind.",
		}, []string{"procedure", "kind"}),
	}
	m.registry.MustRegister(m.duration, m.failures)
	return m
}

// ObserveCall implements repository.CallObserver.
func (m *CallMetrics) ObserveCall(ctx context.Context, event repository.CallEvent) {
	outcome := "ok"
	if event.Err != nil {
		outcome = "error"
	}
	m.duration.WithLabelValues(event.Procedure, string(event.Shape), outcome).Observe(event.Duration.Seconds())

	attrs := []any{
		"procedure", event.Procedure,
		"shape", event.Shape,
		"target", event.Target,
		"in_transaction", event.InTransaction,
		"duration", event.Duration,
	}
	if event.Err == nil {
		m.logger.DebugContext(ctx, "Procedure call", attrs...)
		return
	}
	kind := KindOf(event.Err)
	m.failures.WithLabelValues(event.Procedure, kind).Inc()
	m.logger.WarnContext(ctx, "Procedure call failed", append(attrs, "kind", kind, "error", event.Err)...)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *CallMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// KindOf names the data-access error kind of err, for labels and logs.
func KindOf(err error) string {
	switch {
	case errors.Is(err, db.ErrConfiguration):
		return "configuration"
	case errors.Is(err, db.ErrConnectivity):
		return "connectivity"
	case errors.Is(err, db.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, db.ErrConstraintViolation):
		return "constraint_violation"
	case errors.Is(err, db.ErrDataAccess):
		return "data_access"
	default:
		return "other"
	}
}
