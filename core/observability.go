package core

import "time"

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting threading runtime metrics.
// Implementations can send metrics to monitoring systems (see
// observability/prometheus for a client_golang exporter).
//
// Methods should be non-blocking and fast: several of them fire on the hot
// path of lifecycle transitions. The runtime never invokes a callback while
// holding a thread's internal lock, so implementations may read back through
// the public accessors.
type Metrics interface {
	// RecordThreadState records a thread entering the given lifecycle
	// state. kind distinguishes joinable from detached threads.
	RecordThreadState(kind ThreadKind, state ThreadState)

	// RecordThreadExit records a completed thread together with its exit
	// code. cancelled reports that the exit code is the cancellation
	// sentinel.
	RecordThreadExit(kind ThreadKind, cancelled bool)

	// RecordGateWait records how long a thread was blocked on one of its
	// gates. gate is "start" or "pause".
	RecordGateWait(gate string, duration time.Duration)

	// RecordPendingDeletions records the current number of detached
	// threads whose asynchronous teardown has not finished yet.
	RecordPendingDeletions(count int)
}

// NilMetrics is a no-op Metrics implementation, the default when none is
// configured.
type NilMetrics struct{}

// RecordThreadState is a no-op.
func (m *NilMetrics) RecordThreadState(kind ThreadKind, state ThreadState) {}

// RecordThreadExit is a no-op.
func (m *NilMetrics) RecordThreadExit(kind ThreadKind, cancelled bool) {}

// RecordGateWait is a no-op.
func (m *NilMetrics) RecordGateWait(gate string, duration time.Duration) {}

// RecordPendingDeletions is a no-op.
func (m *NilMetrics) RecordPendingDeletions(count int) {}

// =============================================================================
// Snapshots
// =============================================================================

// RuntimeStats represents a point-in-time snapshot of a Runtime, suitable
// for periodic export.
type RuntimeStats struct {
	LiveThreads      int
	PendingDeletions int
	GuiGateHeld      bool
	ShutdownStarted  bool
}

// RuntimeConfig holds configuration options for a Runtime. All fields are
// optional; zero values select the defaults.
type RuntimeConfig struct {
	// Logger receives lifecycle and shutdown logs. Defaults to DefaultLogger.
	Logger Logger

	// Metrics receives runtime metrics. Defaults to NilMetrics.
	Metrics Metrics
}

// DefaultRuntimeConfig returns a config with default logger and metrics.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		Logger:  NewDefaultLogger(),
		Metrics: &NilMetrics{},
	}
}
