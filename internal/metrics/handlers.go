package metrics

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fastertools/ftl-gateway/internal/transport"
)

// eventsHandler accepts fire-and-forget invocation events from the gateway.
type eventsHandler struct {
	collector *Collector
}

// NewEventsHandler creates the POST /events handler.
// A nil collector selects the process-wide default instance.
func NewEventsHandler(collector *Collector) http.Handler {
	if collector == nil {
		collector = Default()
	}
	return &eventsHandler{collector: collector}
}

// ServeHTTP records one event.
func (h *eventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var envelope EventEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		slog.Warn("rejecting malformed metric event", "error", err)
		transport.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error": "invalid event payload",
		})
		return
	}

	h.collector.RecordEvent(r.Context(), envelope.Event)

	transport.WriteJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// metricsHandler serves the aggregated metrics in Prometheus or JSON form.
type metricsHandler struct {
	collector  *Collector
	prometheus http.Handler
}

// NewMetricsHandler creates the GET /metrics handler.
// The default response is Prometheus text; ?format=json selects JSON.
func NewMetricsHandler(collector *Collector) http.Handler {
	if collector == nil {
		panic("collector cannot be nil")
	}
	return &metricsHandler{
		collector:  collector,
		prometheus: NewPrometheusHandler(collector.Aggregator()),
	}
}

// ServeHTTP serves the metrics export.
func (h *metricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("format") == "json" {
		transport.WriteJSON(w, http.StatusOK, h.collector.Aggregator().AllMetrics())
		return
	}

	h.prometheus.ServeHTTP(w, r)
}

// toolMetricsHandler serves one tool's counters as JSON.
type toolMetricsHandler struct {
	collector *Collector
}

// NewToolMetricsHandler creates the GET /tool_metrics handler.
func NewToolMetricsHandler(collector *Collector) http.Handler {
	if collector == nil {
		panic("collector cannot be nil")
	}
	return &toolMetricsHandler{collector: collector}
}

// ServeHTTP serves one tool's snapshot, keyed by the tool_name query parameter.
func (h *toolMetricsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	toolName := r.URL.Query().Get("tool_name")
	if toolName == "" {
		transport.WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error": "tool_name query parameter is required",
		})
		return
	}

	snapshot, ok := h.collector.Aggregator().ToolMetrics(toolName)
	if !ok {
		transport.WriteJSON(w, http.StatusNotFound, map[string]string{
			"error": "no metrics found for tool: " + toolName,
		})
		return
	}

	transport.WriteJSON(w, http.StatusOK, snapshot)
}
