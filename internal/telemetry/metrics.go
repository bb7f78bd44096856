// Package telemetry provides metrics collection and reporting
// for monitoring the Notion adapter's API traffic.
package telemetry

import (
	"fmt"
	"sync"
	"time"
)

// MetricsCollector provides a thread-safe interface for collecting
// application metrics for monitoring and troubleshooting.
type MetricsCollector struct {
	counters   map[string]int64
	gauges     map[string]float64
	timers     map[string][]time.Duration
	latestTime map[string]time.Time
	mu         sync.RWMutex
}

// Metric names for the Notion client. Per-operation metrics append the
// tool-style operation name to the prefix (e.g. "notion.api_calls.get_page").
const (
	MetricAPICallPrefix      = "notion.api_calls."
	MetricResponseTimePrefix = "notion.response_time."

	MetricAPICallsSuccess = "notion.api_calls.success"
	MetricAPICallsFailure = "notion.api_calls.failure"

	// Dispatcher-level metrics.
	MetricToolCalls           = "server.tool_calls"
	MetricToolCallsRejected   = "server.tool_calls.rejected"
	MetricToolCallsUnknown    = "server.tool_calls.unknown"
	MetricToolCallsSuccessful = "server.tool_calls.success"
)

// NewMetricsCollector creates a new MetricsCollector instance.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		counters:   make(map[string]int64),
		gauges:     make(map[string]float64),
		timers:     make(map[string][]time.Duration),
		latestTime: make(map[string]time.Time),
	}
}

// IncrementCounter increments a named counter by the specified amount.
func (m *MetricsCollector) IncrementCounter(name string, amount int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters[name] += amount
}

// GetCounter returns the current value of a named counter.
func (m *MetricsCollector) GetCounter(name string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.counters[name]
}

// SetGauge sets a named gauge to the specified value.
func (m *MetricsCollector) SetGauge(name string, value float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.gauges[name] = value
}

// GetGauge returns the current value of a named gauge.
func (m *MetricsCollector) GetGauge(name string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.gauges[name]
}

// RecordTimer records a duration sample against a named timer and notes
// the time of the observation.
func (m *MetricsCollector) RecordTimer(name string, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.timers[name] = append(m.timers[name], elapsed)
	m.latestTime[name] = time.Now()
}

// TimerCount returns the number of samples a named timer has recorded.
func (m *MetricsCollector) TimerCount(name string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.timers[name])
}

// AverageTimer returns the mean of a named timer's samples, or zero when
// no samples exist.
func (m *MetricsCollector) AverageTimer(name string) time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()

	samples := m.timers[name]
	if len(samples) == 0 {
		return 0
	}

	var total time.Duration
	for _, d := range samples {
		total += d
	}
	return total / time.Duration(len(samples))
}

// Snapshot returns a human-readable dump of all collected metrics,
// suitable for logging on shutdown.
func (m *MetricsCollector) Snapshot() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := ""
	for name, value := range m.counters {
		out += fmt.Sprintf("counter %s=%d\n", name, value)
	}
	for name, value := range m.gauges {
		out += fmt.Sprintf("gauge %s=%f\n", name, value)
	}
	for name, samples := range m.timers {
		var total time.Duration
		for _, d := range samples {
			total += d
		}
		avg := time.Duration(0)
		if len(samples) > 0 {
			avg = total / time.Duration(len(samples))
		}
		out += fmt.Sprintf("timer %s count=%d avg=%s\n", name, len(samples), avg)
	}
	return out
}

// Reset clears all collected metrics.
func (m *MetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters = make(map[string]int64)
	m.gauges = make(map[string]float64)
	m.timers = make(map[string][]time.Duration)
	m.latestTime = make(map[string]time.Time)
}
