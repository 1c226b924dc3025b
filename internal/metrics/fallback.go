package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// BreakerState is the circuit breaker's current state.
type BreakerState int

const (
	// BreakerClosed allows requests; failures are counted.
	BreakerClosed BreakerState = iota

	// BreakerOpen rejects requests until the reset interval elapses.
	BreakerOpen

	// BreakerHalfOpen allows a probe request; its outcome decides the next state.
	BreakerHalfOpen
)

// CircuitBreaker gates calls to a failing downstream to prevent cascading
// failure.
//
// Transitions: Closed --threshold failures--> Open --(reset elapsed)-->
// HalfOpen --success--> Closed. A single failure in HalfOpen reopens the
// circuit.
type CircuitBreaker struct {
	mu               sync.Mutex
	failureThreshold int
	resetInterval    time.Duration
	state            BreakerState
	failures         int
	openedAt         time.Time
	now              func() time.Time
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(failureThreshold, resetSeconds int) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		resetInterval:    time.Duration(resetSeconds) * time.Second,
		state:            BreakerClosed,
		now:              time.Now,
	}
}

// ShouldAllowRequest reports whether a call may proceed. While open it
// returns false until the reset interval elapses, at which point the breaker
// moves to half-open and allows a probe.
func (b *CircuitBreaker) ShouldAllowRequest() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case BreakerOpen:
		if b.now().Sub(b.openedAt) >= b.resetInterval {
			b.state = BreakerHalfOpen
			return true
		}
		return false
	default:
		return true
	}
}

// RecordSuccess closes the breaker and clears the failure count.
func (b *CircuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = BreakerClosed
	b.failures = 0
}

// RecordFailure counts a failure. Reaching the threshold, or any failure
// while half-open, opens the circuit.
func (b *CircuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == BreakerHalfOpen {
		b.open()
		return
	}

	b.failures++
	if b.failures >= b.failureThreshold {
		b.open()
	}
}

// open transitions to the open state. Callers hold the lock.
func (b *CircuitBreaker) open() {
	b.state = BreakerOpen
	b.failures = 0
	b.openedAt = b.now()
}

// State returns the breaker's current state.
func (b *CircuitBreaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// FallbackEmitter is the last emitter in the pipeline, guarded by a circuit
// breaker so a dead sink degrades to Fallback results instead of burning a
// timeout per event.
type FallbackEmitter struct {
	endpoint   string
	breaker    *CircuitBreaker
	httpClient *http.Client
}

// NewFallbackEmitter creates a fallback emitter with its breaker.
func NewFallbackEmitter(endpoint string, breaker *CircuitBreaker) *FallbackEmitter {
	return &FallbackEmitter{
		endpoint: endpoint,
		breaker:  breaker,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Name identifies the emitter for logging.
func (e *FallbackEmitter) Name() string {
	return "fallback"
}

// EmitEvent delivers the event unless the circuit is open.
func (e *FallbackEmitter) EmitEvent(ctx context.Context, event Event) EmissionResult {
	if !e.breaker.ShouldAllowRequest() {
		return FallbackResult("circuit open")
	}

	if err := e.post(ctx, event); err != nil {
		e.breaker.RecordFailure()
		return FailedResult(err.Error())
	}

	e.breaker.RecordSuccess()
	return Succeeded()
}

// post performs one delivery attempt.
func (e *FallbackEmitter) post(ctx context.Context, event Event) error {
	body, err := json.Marshal(EventEnvelope{Event: event})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("fallback sink returned status %d", resp.StatusCode)
	}

	return nil
}

// HealthCheck reports whether the circuit currently admits requests.
func (e *FallbackEmitter) HealthCheck(context.Context) bool {
	return e.breaker.ShouldAllowRequest()
}
