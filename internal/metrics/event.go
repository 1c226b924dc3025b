// Package metrics implements the invocation metrics collector: per-tool
// aggregation with atomic counters, Prometheus and JSON export, and the
// emission pipeline pushing events to external sinks.
package metrics

// Event is one tool invocation observed by the gateway. It is the wire type
// posted to the collector's /events endpoint as {"event": ...}.
type Event struct {
	// Timestamp is milliseconds since the Unix epoch.
	Timestamp uint64 `json:"timestamp"`

	// ToolName is the invoked tool; ComponentName is its owning worker.
	ToolName      string `json:"tool_name"`
	ComponentName string `json:"component_name"`

	// DurationMS is the tool execution time.
	DurationMS float64 `json:"duration_ms"`

	// Success reports whether the invocation succeeded.
	Success bool `json:"success"`

	// RequestSize is the argument payload size in bytes, when known.
	RequestSize *uint64 `json:"request_size,omitempty"`

	// Metadata carries optional dimensions (tenant_id, user_id, auth_provider).
	Metadata map[string]string `json:"metadata"`
}

// EventEnvelope is the POST body the collector accepts.
type EventEnvelope struct {
	Event Event `json:"event"`
}
