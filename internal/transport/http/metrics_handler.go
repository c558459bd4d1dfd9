package http

import (
	"net/http"

	apierrors "levelcheck/internal/errors"
)

// MetricsHandler exposes the Prometheus scrape endpoint
type MetricsHandler struct {
	prometheus   http.Handler
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler creates a new metrics handler. A nil prometheus handler
// means metrics export is disabled and the endpoint answers 404.
func NewMetricsHandler(prometheus http.Handler, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	return &MetricsHandler{prometheus: prometheus, errorHandler: errorHandler}
}

// GetMetrics handles GET /metrics
func (h *MetricsHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		h.errorHandler.NotFound(w, r)
		return
	}
	h.prometheus.ServeHTTP(w, r)
}
