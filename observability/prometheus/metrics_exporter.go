package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/Sanaki/go-threading/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	GateWaitBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	threadStateTotal *prom.CounterVec
	threadExitTotal  *prom.CounterVec
	gateWaitSeconds  *prom.HistogramVec
	pendingDeletions prom.Gauge
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for
// core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "threading"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.GateWaitBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	stateVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "thread_state_transitions_total",
		Help:      "Total thread lifecycle state transitions.",
	}, []string{"kind", "state"})
	exitVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "thread_exits_total",
		Help:      "Total thread exits.",
	}, []string{"kind", "cancelled"})
	gateVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "gate_wait_seconds",
		Help:      "Time threads spent blocked on their start and pause gates.",
		Buckets:   buckets,
	}, []string{"gate"})
	pendingGauge := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_deletions",
		Help:      "Detached threads currently in asynchronous teardown.",
	})

	var err error
	if stateVec, err = registerCollector(reg, stateVec); err != nil {
		return nil, err
	}
	if exitVec, err = registerCollector(reg, exitVec); err != nil {
		return nil, err
	}
	if gateVec, err = registerCollector(reg, gateVec); err != nil {
		return nil, err
	}
	if pendingGauge, err = registerCollector(reg, pendingGauge); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		threadStateTotal: stateVec,
		threadExitTotal:  exitVec,
		gateWaitSeconds:  gateVec,
		pendingDeletions: pendingGauge,
	}, nil
}

// RecordThreadState records a lifecycle state transition.
func (m *MetricsExporter) RecordThreadState(kind core.ThreadKind, state core.ThreadState) {
	if m == nil {
		return
	}
	m.threadStateTotal.WithLabelValues(kind.String(), state.String()).Inc()
}

// RecordThreadExit records a completed thread.
func (m *MetricsExporter) RecordThreadExit(kind core.ThreadKind, cancelled bool) {
	if m == nil {
		return
	}
	m.threadExitTotal.WithLabelValues(kind.String(), boolLabel(cancelled)).Inc()
}

// RecordGateWait records time blocked on a start or pause gate.
func (m *MetricsExporter) RecordGateWait(gate string, duration time.Duration) {
	if m == nil {
		return
	}
	m.gateWaitSeconds.WithLabelValues(normalizeLabel(gate, "unknown")).Observe(duration.Seconds())
}

// RecordPendingDeletions records the pending-deletion count.
func (m *MetricsExporter) RecordPendingDeletions(count int) {
	if m == nil {
		return
	}
	m.pendingDeletions.Set(float64(count))
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
