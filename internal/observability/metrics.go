package observability

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects per-operation counters for parse and conflict checks.
type Metrics struct {
	mu         sync.Mutex
	operations map[string]*OperationMetrics

	requestTotal  atomic.Int64
	requestFailed atomic.Int64
	conflicts     atomic.Int64
}

// OperationMetrics represents metrics for a single operation name.
type OperationMetrics struct {
	executionCount atomic.Int64
	totalDuration  atomic.Int64 // microseconds
	errorCount     atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{operations: make(map[string]*OperationMetrics)}
}

var globalMetrics = NewMetrics()

// GlobalMetrics returns the process-wide metrics instance.
func GlobalMetrics() *Metrics {
	return globalMetrics
}

// RecordRequest records one execution of operation.
func (m *Metrics) RecordRequest(operation string, duration time.Duration) {
	m.requestTotal.Add(1)
	om := m.operation(operation)
	om.executionCount.Add(1)
	om.totalDuration.Add(duration.Microseconds())
}

// RecordFailure records a failed execution of operation.
func (m *Metrics) RecordFailure(operation string) {
	m.requestFailed.Add(1)
	m.operation(operation).errorCount.Add(1)
}

// RecordConflicts adds n detected conflicts.
func (m *Metrics) RecordConflicts(n int) {
	m.conflicts.Add(int64(n))
}

func (m *Metrics) operation(name string) *OperationMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	om, ok := m.operations[name]
	if !ok {
		om = &OperationMetrics{}
		m.operations[name] = om
	}
	return om
}

// Reset resets all metrics (useful for testing).
func (m *Metrics) Reset() {
	m.requestTotal.Store(0)
	m.requestFailed.Store(0)
	m.conflicts.Store(0)

	m.mu.Lock()
	m.operations = make(map[string]*OperationMetrics)
	m.mu.Unlock()
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() *MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	ops := make(map[string]*OperationSnapshot, len(m.operations))
	for name, om := range m.operations {
		count := om.executionCount.Load()
		snap := &OperationSnapshot{
			ExecutionCount: count,
			ErrorCount:     om.errorCount.Load(),
		}
		if count > 0 {
			snap.AverageDuration = time.Duration(om.totalDuration.Load()/count) * time.Microsecond
		}
		ops[name] = snap
	}

	return &MetricsSnapshot{
		RequestTotal:  m.requestTotal.Load(),
		RequestFailed: m.requestFailed.Load(),
		Conflicts:     m.conflicts.Load(),
		Operations:    ops,
	}
}

// MetricsSnapshot represents a point-in-time snapshot of metrics.
type MetricsSnapshot struct {
	RequestTotal  int64                         `json:"request_total"`
	RequestFailed int64                         `json:"request_failed"`
	Conflicts     int64                         `json:"conflicts"`
	Operations    map[string]*OperationSnapshot `json:"operations"`
}

// OperationSnapshot represents metrics for a specific operation.
type OperationSnapshot struct {
	ExecutionCount  int64         `json:"execution_count"`
	ErrorCount      int64         `json:"error_count"`
	AverageDuration time.Duration `json:"average_duration"`
}

// OperationNames returns the recorded operation names in sorted order.
func (s *MetricsSnapshot) OperationNames() []string {
	names := make([]string, 0, len(s.Operations))
	for name := range s.Operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SuccessRate returns the success rate as a percentage (0-100).
func (s *MetricsSnapshot) SuccessRate() float64 {
	if s.RequestTotal == 0 {
		return 100.0
	}
	return float64(s.RequestTotal-s.RequestFailed) / float64(s.RequestTotal) * 100.0
}
