// Package translate is the protocol core of the gateway. It converts
// inbound Anthropic-style message requests into backend chat-completion
// requests, converts completed backend responses back, reconstructs the
// inbound streaming event grammar from the backend's delta stream, and maps
// backend failures into the inbound error taxonomy.
//
// Everything here degrades rather than fails: unsupported constructs are
// dropped with a warning, malformed tool arguments become placeholder
// payloads, and the only hard failures are the backend's own.
package translate
