// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tolgaeren/swish/pkg/metrics"
)

// MetricsHandler serves the Prometheus scrape endpoint.
type MetricsHandler struct {
	inner http.Handler
}

// NewMetricsHandler creates a handler over the service's custom registry.
func NewMetricsHandler() *MetricsHandler {
	return &MetricsHandler{
		inner: promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}),
	}
}

// HandleMetrics handles GET /metrics requests.
func (h *MetricsHandler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	h.inner.ServeHTTP(w, r)
}
