package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fastertools/ftl-gateway/internal/metrics"
)

// TrackerConfig configures the invocation tracker.
type TrackerConfig struct {
	// Enabled toggles event emission.
	Enabled bool

	// CollectorURL is the metrics collector's events endpoint.
	CollectorURL string
}

// DefaultTrackerConfig returns the tracker defaults.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{
		Enabled:      true,
		CollectorURL: "http://ftl-metrics.spin.internal/events",
	}
}

// InvocationTracker emits one metric event per tool invocation to the
// collector. Emission is fire-and-forget: failures never affect the
// user-visible request.
type InvocationTracker struct {
	config     TrackerConfig
	httpClient *http.Client
}

// NewInvocationTracker creates the tracker middleware.
func NewInvocationTracker(config TrackerConfig) *InvocationTracker {
	return &InvocationTracker{
		config: config,
		httpClient: &http.Client{
			Timeout: 2 * time.Second,
		},
	}
}

// PreProcess is a no-op; timing capture happens in the dispatcher.
func (t *InvocationTracker) PreProcess(context.Context, *Context) *Error {
	return nil
}

// PostProcess synthesizes the metric event from the context and posts it.
func (t *InvocationTracker) PostProcess(ctx context.Context, mc *Context) *Error {
	if !t.config.Enabled {
		return nil
	}

	metadata := make(map[string]string)
	if tenantID, ok := GetExtension[TenantID](mc); ok {
		metadata["tenant_id"] = string(tenantID)
	}
	if userID, ok := mc.Metadata.Additional["user_id"]; ok {
		metadata["user_id"] = userID
	}
	if authProvider, ok := mc.Metadata.Additional["auth_provider"]; ok {
		metadata["auth_provider"] = authProvider
	}

	event := metrics.Event{
		Timestamp:     uint64(time.Now().UnixMilli()),
		ToolName:      mc.ToolName,
		ComponentName: mc.ComponentName,
		DurationMS:    float64(mc.Timing.ToolDuration()) / float64(time.Millisecond),
		Success:       mc.IsSuccess(),
		RequestSize:   mc.RequestSize(),
		Metadata:      metadata,
	}

	body, err := json.Marshal(metrics.EventEnvelope{Event: event})
	if err != nil {
		return NewError(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.config.CollectorURL, bytes.NewReader(body))
	if err != nil {
		return NewError(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	// Failures are swallowed: metrics never affect the request.
	if resp, err := t.httpClient.Do(req); err == nil {
		_ = resp.Body.Close()
	}

	return nil
}

// Shutdown has nothing to clean up.
func (t *InvocationTracker) Shutdown(context.Context) *Error {
	return nil
}

// TenantID is the extension slot upstream auth middleware uses to tag the
// invocation's tenant.
type TenantID string
