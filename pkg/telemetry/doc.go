// Package telemetry provides observability for the gateway.
//
// Its sub-packages:
//
//   - metrics: Prometheus counters and histograms for requests, tokens,
//     and stream events, plus the exposition handler
package telemetry
