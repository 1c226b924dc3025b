package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// DurableEmitter delivers events to a durable sink with a bounded retry
// policy: exponential backoff with a capped interval, surfacing Failed after
// the attempt budget is spent.
type DurableEmitter struct {
	endpoint    string
	maxAttempts int
	httpClient  *http.Client
}

// NewDurableEmitter creates a durable emitter targeting the given endpoint.
// A non-positive maxAttempts defaults to 5.
func NewDurableEmitter(endpoint string, maxAttempts int) *DurableEmitter {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &DurableEmitter{
		endpoint:    endpoint,
		maxAttempts: maxAttempts,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Name identifies the emitter for logging.
func (e *DurableEmitter) Name() string {
	return "durable"
}

// EmitEvent posts the event, retrying transient failures with exponential
// backoff until the attempt budget is spent.
func (e *DurableEmitter) EmitEvent(ctx context.Context, event Event) EmissionResult {
	body, err := json.Marshal(EventEnvelope{Event: event})
	if err != nil {
		return FailedResult(err.Error())
	}

	operation := func() (struct{}, error) {
		return struct{}{}, e.post(ctx, body)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxInterval = 2 * time.Second

	if _, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(e.maxAttempts)),
	); err != nil {
		return FailedResult(err.Error())
	}

	return Succeeded()
}

// post performs one delivery attempt.
func (e *DurableEmitter) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("durable sink returned status %d", resp.StatusCode)
	}

	return nil
}

// HealthCheck reports whether the emitter is usable.
func (e *DurableEmitter) HealthCheck(context.Context) bool {
	return true
}
