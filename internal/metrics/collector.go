package metrics

import (
	"context"
	"log/slog"
	"sync"
)

// Options configures a Collector.
type Options struct {
	// MaxTools caps the tracked tool names; non-positive selects the default.
	MaxTools int

	// Emitters is the ordered emission pipeline. Nil means aggregate-only.
	Emitters *EmissionPipeline
}

// Collector owns the process-wide aggregator and the emission pipeline.
type Collector struct {
	aggregator *Aggregator
	emission   *EmissionPipeline
}

// NewCollector creates a collector from options.
func NewCollector(opts Options) *Collector {
	emission := opts.Emitters
	if emission == nil {
		emission = NewEmissionPipeline()
	}

	return &Collector{
		aggregator: NewAggregator(opts.MaxTools),
		emission:   emission,
	}
}

// defaultCollector is the lazily constructed process-wide instance used when
// no explicit wiring happens. It aggregates only; emitters require endpoints.
var defaultCollector = sync.OnceValue(func() *Collector {
	return NewCollector(Options{})
})

// Default returns the process-wide collector, constructing it at first use.
// The events handler falls back to it when wired without explicit options.
func Default() *Collector {
	return defaultCollector()
}

// RecordEvent pushes the event through the emission pipeline, then folds it
// into the local aggregation. Emission failures are logged and swallowed;
// they never affect the caller.
func (c *Collector) RecordEvent(ctx context.Context, event Event) {
	for _, named := range c.emission.EmitEvent(ctx, event) {
		switch named.Result.Status {
		case EmissionFailed:
			slog.Warn("metric emission failed", "emitter", named.Name, "reason", named.Result.Reason)
		case EmissionFallback:
			slog.Warn("metric emission degraded", "emitter", named.Name, "reason", named.Result.Reason)
		}
	}

	c.aggregator.RecordEvent(event)
}

// Aggregator exposes the counter table for the export handlers.
func (c *Collector) Aggregator() *Aggregator {
	return c.aggregator
}

// Emission exposes the emission pipeline for health reporting.
func (c *Collector) Emission() *EmissionPipeline {
	return c.emission
}
