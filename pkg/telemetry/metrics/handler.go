package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler returns the Prometheus exposition endpoint for these metrics,
// typically mounted at /metrics.
func (rm *RequestMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(rm.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
