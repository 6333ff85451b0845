// Package handlers implements the HTTP endpoints of the gateway: the
// messages endpoint (non-streaming and streaming), the token-count
// endpoint, and the health probe.
//
// Handlers parse and validate the inbound body, route the model through
// the translation core, call the backend, and render the result in the
// inbound wire shape. Streaming responses are reconstructed event by
// event through translate.StreamAdapter and written as SSE.
package handlers
