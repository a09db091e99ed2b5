package routers

import (
	"github.com/go-chi/chi/v5"

	"prepai/interview/internal/handlers"
	"prepai/interview/internal/metrics"
)

func HealthRoutes(router *chi.Mux, healthHandler *handlers.HealthHandler) {
	router.Get("/healthz", healthHandler.HealthzHandler)
	router.Get("/readyz", healthHandler.ReadyzHandler)
	router.Get("/api/v1/healthz", healthHandler.HealthzHandler)
	router.Handle("/metrics", metrics.Handler())
}
