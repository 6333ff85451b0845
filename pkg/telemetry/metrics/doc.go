// Package metrics exposes Prometheus counters and histograms for gateway
// traffic: request volume and latency per model pair, token throughput, and
// stream event counts.
package metrics
