// Package config loads gateway configuration from YAML with environment
// variable overrides, validates it, and holds it as a process-wide
// singleton. A file watcher supports hot reload of the routing and logging
// sections without a restart.
package config
