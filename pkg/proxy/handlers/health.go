package handlers

import (
	"net/http"
	"time"

	"mercator-hq/hermes/pkg/proxy"
)

// HealthHandler answers liveness probes on the root path.
type HealthHandler struct {
	name    string
	version string
}

// NewHealthHandler creates a health handler reporting the given service
// name and version.
func NewHealthHandler(name, version string) *HealthHandler {
	return &HealthHandler{name: name, version: version}
}

// ServeHTTP implements http.Handler.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	proxy.WriteJSON(w, http.StatusOK, map[string]any{
		"name":      h.name,
		"version":   h.version,
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
