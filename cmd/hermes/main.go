// Hermes is a protocol gateway that accepts Anthropic Messages API
// traffic and serves it from an OpenAI-style chat-completion backend.
//
// It translates requests, responses, streaming events, and errors
// between the two wire protocols, providing:
//   - Model routing from inbound model names to configured backend models
//   - Streaming reconstruction of the Anthropic SSE event grammar
//   - Error taxonomy mapping with provider diagnostics preserved
//   - Local token estimation for the count_tokens endpoint
//   - Optional Prometheus metrics and a SQLite usage ledger
//
// Usage:
//
//	# Start the gateway with default configuration
//	hermes run
//
//	# Start with a custom configuration file
//	hermes run --config /etc/hermes/config.yaml
//
//	# Show version information
//	hermes version
package main

func main() {
	Execute()
}
