// Package server ties the gateway together: it wires the HTTP routes,
// chains the middleware, and manages the server lifecycle including
// graceful shutdown on SIGTERM/SIGINT.
//
// # Routes
//
//   - POST /v1/messages - message creation (streaming and non-streaming)
//   - POST /v1/messages/count_tokens - input-token estimation
//   - GET / - liveness probe with service name and version
//   - GET <metrics path> - Prometheus exposition, when metrics are enabled
//
// # Middleware Chain
//
// Requests pass through, outermost first: RequestID, Logging, Recovery,
// ResponseTime. Recovery sits inside Logging so a recovered panic is still
// logged as a 500 response.
package server
