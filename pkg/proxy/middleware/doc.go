// Package middleware provides the HTTP middleware chain for cross-cutting
// concerns: request id generation and propagation, structured request
// logging, response-time reporting, and panic recovery.
//
// The chain is assembled outermost-first:
//
//	handler = RequestID(Logging(logger)(Recovery(logger)(ResponseTime(handler))))
//
// so every log line carries the request id and panics are caught after the
// request is already identified.
package middleware
