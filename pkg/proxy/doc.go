// Package proxy holds the HTTP plumbing between the wire and the
// translation core: request parsing and validation, JSON and SSE response
// writing, and the middleware chain in the middleware subpackage. No
// protocol logic lives here.
package proxy
