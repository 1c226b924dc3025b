package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestDurableEmitter_RetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int64
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(sink.Close)

	emitter := NewDurableEmitter(sink.URL, 5)

	result := emitter.EmitEvent(context.Background(), event("echo", true, 1))
	if result.Status != EmissionSuccess {
		t.Fatalf("result = %v, want Success after retries", result)
	}
	if attempts.Load() != 3 {
		t.Errorf("attempts = %d, want 3", attempts.Load())
	}
}

func TestDurableEmitter_BoundedAttempts(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int64
	sink := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(sink.Close)

	emitter := NewDurableEmitter(sink.URL, 2)

	result := emitter.EmitEvent(context.Background(), event("echo", true, 1))
	if result.Status != EmissionFailed {
		t.Fatalf("result = %v, want Failed after exhausting attempts", result)
	}
	if attempts.Load() != 2 {
		t.Errorf("attempts = %d, want 2", attempts.Load())
	}
}
