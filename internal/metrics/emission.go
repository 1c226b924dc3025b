package metrics

import (
	"context"
	"fmt"
)

// EmissionStatus classifies the outcome of one emitter run.
type EmissionStatus int

const (
	// EmissionSuccess means the sink accepted the event.
	EmissionSuccess EmissionStatus = iota

	// EmissionFailed means the sink rejected the event or was unreachable.
	EmissionFailed

	// EmissionFallback means the emitter degraded instead of attempting
	// delivery (e.g. its circuit breaker is open).
	EmissionFallback
)

// EmissionResult is the outcome of one emitter run.
type EmissionResult struct {
	Status EmissionStatus
	Reason string
}

// String renders the result for logs.
func (r EmissionResult) String() string {
	switch r.Status {
	case EmissionSuccess:
		return "Success"
	case EmissionFailed:
		return fmt.Sprintf("Failed: %s", r.Reason)
	case EmissionFallback:
		return fmt.Sprintf("Fallback: %s", r.Reason)
	default:
		return "Unknown"
	}
}

// Succeeded creates a success result.
func Succeeded() EmissionResult {
	return EmissionResult{Status: EmissionSuccess}
}

// FailedResult creates a failure result with a message.
func FailedResult(message string) EmissionResult {
	return EmissionResult{Status: EmissionFailed, Reason: message}
}

// FallbackResult creates a degradation result with a reason.
func FallbackResult(reason string) EmissionResult {
	return EmissionResult{Status: EmissionFallback, Reason: reason}
}

// Emitter pushes metric events to one external sink.
type Emitter interface {
	// EmitEvent delivers the event, returning the per-run outcome.
	EmitEvent(ctx context.Context, event Event) EmissionResult

	// Name identifies the emitter for logging.
	Name() string

	// HealthCheck reports whether the emitter is currently usable.
	HealthCheck(ctx context.Context) bool
}

// NamedResult pairs an emitter name with its run outcome.
type NamedResult struct {
	Name   string
	Result EmissionResult
}

// EmissionPipeline clones each event to an ordered list of emitters.
// Emitters run sequentially; each request owns its own pipeline run, so a
// slow emitter does not block other requests.
type EmissionPipeline struct {
	emitters []Emitter
}

// NewEmissionPipeline creates an empty pipeline.
func NewEmissionPipeline() *EmissionPipeline {
	return &EmissionPipeline{}
}

// Add appends an emitter.
func (p *EmissionPipeline) Add(emitter Emitter) {
	p.emitters = append(p.emitters, emitter)
}

// Len returns the number of emitters.
func (p *EmissionPipeline) Len() int {
	return len(p.emitters)
}

// EmitEvent runs every emitter in order and collects the outcomes.
func (p *EmissionPipeline) EmitEvent(ctx context.Context, event Event) []NamedResult {
	results := make([]NamedResult, 0, len(p.emitters))
	for _, emitter := range p.emitters {
		results = append(results, NamedResult{
			Name:   emitter.Name(),
			Result: emitter.EmitEvent(ctx, event),
		})
	}
	return results
}

// HealthStatus reports each emitter's health.
func (p *EmissionPipeline) HealthStatus(ctx context.Context) map[string]bool {
	status := make(map[string]bool, len(p.emitters))
	for _, emitter := range p.emitters {
		status[emitter.Name()] = emitter.HealthCheck(ctx)
	}
	return status
}
