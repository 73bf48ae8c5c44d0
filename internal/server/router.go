package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gridpoint-systems/sensor-bridge/internal/handlers"
	"github.com/gridpoint-systems/sensor-bridge/internal/middleware"
)

// NewRouter constructs a ServeMux with bridge API routes registered.
func NewRouter(h *handlers.WebhookHandler) http.Handler {
	mux := http.NewServeMux()

	// Sensor webhook endpoint
	mux.HandleFunc("POST /receiver", h.Receive)

	// Health endpoints
	mux.HandleFunc("/healthz", handlers.Health)
	mux.HandleFunc("/readyz", handlers.Ready)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
