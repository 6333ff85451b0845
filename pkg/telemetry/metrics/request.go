package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// RequestMetrics tracks gateway request processing.
//
// Metrics:
//   - <ns>_gateway_requests_total: request count by model, target model, status
//   - <ns>_gateway_request_duration_seconds: request duration histogram
//   - <ns>_gateway_tokens_total: input/output token throughput
//   - <ns>_gateway_stream_events_total: outbound SSE events by event name
type RequestMetrics struct {
	registry *prometheus.Registry

	requestsTotal     *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
	tokensTotal       *prometheus.CounterVec
	streamEventsTotal *prometheus.CounterVec
}

// NewRequestMetrics creates gateway metrics registered on a fresh registry.
func NewRequestMetrics(namespace string) *RequestMetrics {
	rm := &RequestMetrics{
		registry: prometheus.NewRegistry(),

		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "requests_total",
				Help:      "Total number of gateway requests processed",
			},
			[]string{"model", "target_model", "status"},
		),

		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "request_duration_seconds",
				Help:      "Duration of gateway requests in seconds",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"model", "target_model"},
		),

		tokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "tokens_total",
				Help:      "Total number of tokens processed",
			},
			[]string{"model", "type"},
		),

		streamEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "stream_events_total",
				Help:      "Total number of outbound stream events emitted",
			},
			[]string{"event"},
		),
	}

	rm.registry.MustRegister(
		rm.requestsTotal,
		rm.requestDuration,
		rm.tokensTotal,
		rm.streamEventsTotal,
	)
	return rm
}

// RecordRequest records one completed request.
func (rm *RequestMetrics) RecordRequest(model, targetModel, status string, duration time.Duration) {
	rm.requestsTotal.WithLabelValues(model, targetModel, status).Inc()
	rm.requestDuration.WithLabelValues(model, targetModel).Observe(duration.Seconds())
}

// RecordTokens records input and output token counts for a request.
func (rm *RequestMetrics) RecordTokens(model string, inputTokens, outputTokens int) {
	if inputTokens > 0 {
		rm.tokensTotal.WithLabelValues(model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		rm.tokensTotal.WithLabelValues(model, "output").Add(float64(outputTokens))
	}
}

// RecordStreamEvent records one emitted SSE event by name.
func (rm *RequestMetrics) RecordStreamEvent(event string) {
	rm.streamEventsTotal.WithLabelValues(event).Inc()
}
