package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter creates and configures a Chi router with all routes
func NewRouter(h *APIHandler) http.Handler {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Report site
	r.Get("/", h.handleIndex)
	r.Get("/report.html", h.handleIndex)
	r.Get(`/{name:report_[0-9]{8}\.html}`, h.handleDatedReport)
	r.Get("/charts/{name}", h.handleChart)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.handleHealth)
		r.Post("/run", h.handleRun)
	})

	// Metrics
	r.Handle("/metrics", promhttp.Handler())

	return r
}
