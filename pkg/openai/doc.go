// Package openai implements the outbound side of the gateway: the
// OpenAI-compatible chat-completions wire types, an HTTP client with
// connection pooling, an SSE stream reader for incremental deltas, and the
// typed transport errors the translate package maps into the inbound
// error taxonomy.
package openai
