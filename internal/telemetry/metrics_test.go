package telemetry

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestCounters(t *testing.T) {
	m := NewMetricsCollector()

	m.IncrementCounter(MetricToolCalls, 1)
	m.IncrementCounter(MetricToolCalls, 2)

	if got := m.GetCounter(MetricToolCalls); got != 3 {
		t.Errorf("Expected counter 3, got %d", got)
	}
	if got := m.GetCounter("never.touched"); got != 0 {
		t.Errorf("Expected zero for unknown counter, got %d", got)
	}
}

func TestGauges(t *testing.T) {
	m := NewMetricsCollector()

	m.SetGauge("queue.depth", 4)
	m.SetGauge("queue.depth", 2)

	if got := m.GetGauge("queue.depth"); got != 2 {
		t.Errorf("Expected gauge 2, got %f", got)
	}
}

func TestTimers(t *testing.T) {
	m := NewMetricsCollector()
	name := MetricResponseTimePrefix + "get_page"

	m.RecordTimer(name, 10*time.Millisecond)
	m.RecordTimer(name, 30*time.Millisecond)

	if got := m.TimerCount(name); got != 2 {
		t.Errorf("Expected 2 samples, got %d", got)
	}
	if got := m.AverageTimer(name); got != 20*time.Millisecond {
		t.Errorf("Expected average 20ms, got %s", got)
	}
	if got := m.AverageTimer("no.samples"); got != 0 {
		t.Errorf("Expected zero average without samples, got %s", got)
	}
}

func TestSnapshotIncludesAllKinds(t *testing.T) {
	m := NewMetricsCollector()
	m.IncrementCounter(MetricAPICallsSuccess, 5)
	m.SetGauge("queue.depth", 1)
	m.RecordTimer(MetricResponseTimePrefix+"search", time.Second)

	snap := m.Snapshot()
	for _, want := range []string{MetricAPICallsSuccess, "queue.depth", MetricResponseTimePrefix + "search"} {
		if !strings.Contains(snap, want) {
			t.Errorf("Expected snapshot to mention %q, got:\n%s", want, snap)
		}
	}
}

func TestReset(t *testing.T) {
	m := NewMetricsCollector()
	m.IncrementCounter(MetricToolCalls, 7)
	m.RecordTimer("t", time.Millisecond)

	m.Reset()

	if got := m.GetCounter(MetricToolCalls); got != 0 {
		t.Errorf("Expected counter cleared, got %d", got)
	}
	if got := m.TimerCount("t"); got != 0 {
		t.Errorf("Expected timer cleared, got %d", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	m := NewMetricsCollector()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.IncrementCounter(MetricToolCalls, 1)
				m.RecordTimer("t", time.Microsecond)
				_ = m.GetCounter(MetricToolCalls)
			}
		}()
	}
	wg.Wait()

	if got := m.GetCounter(MetricToolCalls); got != 1000 {
		t.Errorf("Expected 1000 increments, got %d", got)
	}
	if got := m.TimerCount("t"); got != 1000 {
		t.Errorf("Expected 1000 samples, got %d", got)
	}
}
