package metrics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// OTELEmitter converts events to an OTLP-style metrics payload and posts
// them to an OpenTelemetry collector endpoint.
type OTELEmitter struct {
	endpoint   string
	httpClient *http.Client
}

// NewOTELEmitter creates an OTEL emitter targeting the given endpoint.
func NewOTELEmitter(endpoint string) *OTELEmitter {
	return &OTELEmitter{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Name identifies the emitter for logging.
func (e *OTELEmitter) Name() string {
	return "otel"
}

// EmitEvent posts the event as an OTLP metrics payload.
func (e *OTELEmitter) EmitEvent(ctx context.Context, event Event) EmissionResult {
	payload := otlpPayload(event)

	body, err := json.Marshal(payload)
	if err != nil {
		return FailedResult(err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return FailedResult(err.Error())
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return FailedResult(err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return FailedResult(fmt.Sprintf("collector returned status %d", resp.StatusCode))
	}

	return Succeeded()
}

// HealthCheck reports whether the emitter is usable. The OTEL sink is
// stateless on this side, so it is always considered available.
func (e *OTELEmitter) HealthCheck(context.Context) bool {
	return true
}

// otlpPayload renders one invocation as an OTLP ExportMetricsServiceRequest
// in JSON encoding, carrying the tool duration as a gauge datapoint.
func otlpPayload(event Event) map[string]any {
	attributes := []map[string]any{
		{"key": "tool.name", "value": map[string]any{"stringValue": event.ToolName}},
		{"key": "component.name", "value": map[string]any{"stringValue": event.ComponentName}},
		{"key": "invocation.success", "value": map[string]any{"boolValue": event.Success}},
	}
	for key, value := range event.Metadata {
		attributes = append(attributes, map[string]any{
			"key":   key,
			"value": map[string]any{"stringValue": value},
		})
	}

	return map[string]any{
		"resourceMetrics": []map[string]any{{
			"resource": map[string]any{
				"attributes": []map[string]any{
					{"key": "service.name", "value": map[string]any{"stringValue": "ftl-metrics"}},
				},
			},
			"scopeMetrics": []map[string]any{{
				"scope": map[string]any{"name": "ftl-gateway"},
				"metrics": []map[string]any{{
					"name": "ftl.tool.duration",
					"unit": "ms",
					"gauge": map[string]any{
						"dataPoints": []map[string]any{{
							"timeUnixNano": fmt.Sprintf("%d", event.Timestamp*uint64(time.Millisecond)),
							"asDouble":     event.DurationMS,
							"attributes":   attributes,
						}},
					},
				}},
			}},
		}},
	}
}
