package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Prometheus descriptors for the exported series. All are monotonic counters
// except the average duration, which is a gauge derived from two counters.
var (
	descGlobalInvocations = prometheus.NewDesc(
		"ftl_global_invocations_total",
		"The total number of tool invocations across all tools",
		nil, nil,
	)
	descToolInvocations = prometheus.NewDesc(
		"ftl_tool_invocations_total",
		"The total number of tool invocations",
		[]string{"tool"}, nil,
	)
	descToolSuccesses = prometheus.NewDesc(
		"ftl_tool_success_total",
		"The total number of successful tool invocations",
		[]string{"tool"}, nil,
	)
	descToolFailures = prometheus.NewDesc(
		"ftl_tool_failures_total",
		"The total number of failed tool invocations",
		[]string{"tool"}, nil,
	)
	descToolDuration = prometheus.NewDesc(
		"ftl_tool_duration_ms_total",
		"The total tool execution time in milliseconds",
		[]string{"tool"}, nil,
	)
	descToolDurationAvg = prometheus.NewDesc(
		"ftl_tool_duration_ms_avg",
		"The mean tool execution time in milliseconds",
		[]string{"tool"}, nil,
	)
)

// exporter adapts the aggregator's counter table to a prometheus.Collector.
// Series are materialized from counter snapshots at scrape time.
type exporter struct {
	aggregator *Aggregator
}

// Describe sends the fixed descriptor set.
func (e *exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- descGlobalInvocations
	ch <- descToolInvocations
	ch <- descToolSuccesses
	ch <- descToolFailures
	ch <- descToolDuration
	ch <- descToolDurationAvg
}

// Collect materializes the metrics from counter snapshots.
func (e *exporter) Collect(ch chan<- prometheus.Metric) {
	global := e.aggregator.Global()
	ch <- prometheus.MustNewConstMetric(descGlobalInvocations, prometheus.CounterValue,
		float64(global.TotalInvocations))

	for tool, snapshot := range e.aggregator.ToolSnapshots() {
		ch <- prometheus.MustNewConstMetric(descToolInvocations, prometheus.CounterValue,
			float64(snapshot.Invocations), tool)
		ch <- prometheus.MustNewConstMetric(descToolSuccesses, prometheus.CounterValue,
			float64(snapshot.Successes), tool)
		ch <- prometheus.MustNewConstMetric(descToolFailures, prometheus.CounterValue,
			float64(snapshot.Failures), tool)
		ch <- prometheus.MustNewConstMetric(descToolDuration, prometheus.CounterValue,
			float64(snapshot.TotalDurationMS), tool)
		ch <- prometheus.MustNewConstMetric(descToolDurationAvg, prometheus.GaugeValue,
			snapshot.AvgDurationMS, tool)
	}
}

// NewPrometheusHandler serves the aggregator in Prometheus text format on a
// private registry, keeping Go runtime metrics out of the export.
func NewPrometheusHandler(aggregator *Aggregator) http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(&exporter{aggregator: aggregator})

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
