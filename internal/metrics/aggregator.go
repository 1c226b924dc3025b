package metrics

import (
	"math"
	"sync"
	"sync/atomic"
)

// DefaultMaxTools caps the number of distinct tool names tracked.
const DefaultMaxTools = 10_000

// ToolCounters holds the per-tool atomic counters. Plain increments use
// relaxed semantics; min/max use CAS loops.
type ToolCounters struct {
	invocations      atomic.Uint64
	successes        atomic.Uint64
	failures         atomic.Uint64
	totalDurationMS  atomic.Uint64
	totalRequestSize atomic.Uint64
	minDurationMS    atomic.Uint64
	maxDurationMS    atomic.Uint64
}

// NewToolCounters creates a counter set with the minimum initialized to +∞.
func NewToolCounters() *ToolCounters {
	c := &ToolCounters{}
	c.minDurationMS.Store(math.MaxUint64)
	return c
}

// RecordInvocation applies one invocation to the counters.
func (c *ToolCounters) RecordInvocation(success bool, durationMS uint64, requestSize *uint64) {
	c.invocations.Add(1)

	if success {
		c.successes.Add(1)
	} else {
		c.failures.Add(1)
	}

	c.totalDurationMS.Add(durationMS)

	if requestSize != nil {
		c.totalRequestSize.Add(*requestSize)
	}

	for {
		current := c.minDurationMS.Load()
		if durationMS >= current || c.minDurationMS.CompareAndSwap(current, durationMS) {
			break
		}
	}
	for {
		current := c.maxDurationMS.Load()
		if durationMS <= current || c.maxDurationMS.CompareAndSwap(current, durationMS) {
			break
		}
	}
}

// ToolSnapshot is a point-in-time copy of one tool's counters.
// Counters are eventually consistent: concurrent recorders may land between
// the individual loads.
type ToolSnapshot struct {
	Invocations      uint64  `json:"invocation_count"`
	Successes        uint64  `json:"success_count"`
	Failures         uint64  `json:"failure_count"`
	TotalDurationMS  uint64  `json:"total_duration_ms"`
	AvgDurationMS    float64 `json:"avg_duration_ms"`
	MinDurationMS    uint64  `json:"min_duration_ms"`
	MaxDurationMS    uint64  `json:"max_duration_ms"`
	TotalRequestSize uint64  `json:"total_request_size"`
}

// Snapshot reads the counters. The minimum reads as 0 until the first
// invocation lands; the average is 0 when there are no invocations.
func (c *ToolCounters) Snapshot() ToolSnapshot {
	invocations := c.invocations.Load()

	var avg float64
	if invocations > 0 {
		avg = float64(c.totalDurationMS.Load()) / float64(invocations)
	}

	minDuration := c.minDurationMS.Load()
	if invocations == 0 {
		minDuration = 0
	}

	return ToolSnapshot{
		Invocations:      invocations,
		Successes:        c.successes.Load(),
		Failures:         c.failures.Load(),
		TotalDurationMS:  c.totalDurationMS.Load(),
		AvgDurationMS:    avg,
		MinDurationMS:    minDuration,
		MaxDurationMS:    c.maxDurationMS.Load(),
		TotalRequestSize: c.totalRequestSize.Load(),
	}
}

// GlobalSnapshot is a point-in-time copy of the process-wide counters.
type GlobalSnapshot struct {
	TotalInvocations  uint64 `json:"total_invocations"`
	ActiveInvocations uint64 `json:"active_invocations"`
	PeakConcurrency   uint64 `json:"peak_concurrency"`
}

// Aggregator is the process-wide counter table: a mutex-guarded bounded map
// of tool name to atomic counters, plus global counters.
type Aggregator struct {
	mu       sync.Mutex
	tools    map[string]*ToolCounters
	maxTools int

	totalInvocations  atomic.Uint64
	activeInvocations atomic.Uint64
	peakConcurrency   atomic.Uint64
}

// NewAggregator creates an aggregator capped at maxTools distinct tool names.
// A non-positive cap selects DefaultMaxTools.
func NewAggregator(maxTools int) *Aggregator {
	if maxTools <= 0 {
		maxTools = DefaultMaxTools
	}
	return &Aggregator{
		tools:    make(map[string]*ToolCounters),
		maxTools: maxTools,
	}
}

// RecordEvent applies one metric event. When the tool table is full an
// arbitrary existing entry is evicted before insertion; precise LRU is not
// required by the bounded-map semantics.
func (a *Aggregator) RecordEvent(event Event) {
	a.totalInvocations.Add(1)

	active := a.activeInvocations.Add(1)
	for {
		peak := a.peakConcurrency.Load()
		if active <= peak || a.peakConcurrency.CompareAndSwap(peak, active) {
			break
		}
	}
	defer a.activeInvocations.Add(^uint64(0))

	counters := a.countersFor(event.ToolName)
	counters.RecordInvocation(event.Success, uint64(event.DurationMS), event.RequestSize)
}

// countersFor returns the counter set for a tool, inserting (and possibly
// evicting) under the table lock. The counters themselves are updated
// outside the lock.
func (a *Aggregator) countersFor(toolName string) *ToolCounters {
	a.mu.Lock()
	defer a.mu.Unlock()

	if counters, ok := a.tools[toolName]; ok {
		return counters
	}

	if len(a.tools) >= a.maxTools {
		for victim := range a.tools {
			delete(a.tools, victim)
			break
		}
	}

	counters := NewToolCounters()
	a.tools[toolName] = counters
	return counters
}

// ToolSnapshots returns a snapshot of every tracked tool.
func (a *Aggregator) ToolSnapshots() map[string]ToolSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snapshots := make(map[string]ToolSnapshot, len(a.tools))
	for name, counters := range a.tools {
		snapshots[name] = counters.Snapshot()
	}
	return snapshots
}

// Global returns the process-wide counters.
func (a *Aggregator) Global() GlobalSnapshot {
	return GlobalSnapshot{
		TotalInvocations:  a.totalInvocations.Load(),
		ActiveInvocations: a.activeInvocations.Load(),
		PeakConcurrency:   a.peakConcurrency.Load(),
	}
}

// AllMetrics returns the JSON export shape: every tool keyed by name plus the
// reserved "_global" key.
func (a *Aggregator) AllMetrics() map[string]any {
	metrics := make(map[string]any)
	metrics["_global"] = a.Global()

	for name, snapshot := range a.ToolSnapshots() {
		metrics[name] = snapshot
	}
	return metrics
}

// ToolMetrics returns one tool's snapshot.
func (a *Aggregator) ToolMetrics(toolName string) (ToolSnapshot, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	counters, ok := a.tools[toolName]
	if !ok {
		return ToolSnapshot{}, false
	}
	return counters.Snapshot(), true
}
