package api

import (
	"encoding/json"
	"net/http"

	"github.com/jays-visionAI/ZINC-sub003/internal/api/handlers"
	"github.com/jays-visionAI/ZINC-sub003/internal/api/middleware"
	"github.com/jays-visionAI/ZINC-sub003/internal/config"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const serviceName = "zinc-config"

// NewRouter creates the HTTP router with all API routes.
func NewRouter(cfg *config.Config, h *handlers.Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.Identity)
	r.Use(middleware.Logger)
	r.Use(middleware.Telemetry)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.API.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Project-Id", "X-User-Id", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.NewAPIKeyAuth(cfg.API.Keys).Middleware)

	// Health & info
	r.Get("/health", healthHandler(h))
	r.Get("/version", versionHandler(cfg))
	if cfg.Telemetry.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/instances", h.ListInstances)
		r.Route("/instances/{instanceId}", func(r chi.Router) {
			r.Get("/config/{engineType}", h.GetEffectiveConfig)

			r.Route("/overrides", func(r chi.Router) {
				r.Get("/", h.GetOverrides)
				r.Put("/", h.SaveOverrides)
				r.Delete("/", h.ResetAllOverrides)
				r.Delete("/{engineType}/{field}", h.ResetOverride)
			})
		})

		r.Get("/overrides/allowed", h.ListAllowedOverrides)
		r.Get("/packs", h.ListBehaviourPacks)

		// Runtime model router
		r.Route("/runtime", func(r chi.Router) {
			r.Post("/resolve", h.ResolveRuntime)
			r.Post("/validate", h.ValidateRuntime)
			r.Get("/tiers", h.ListTiers)
			r.Get("/rules", h.ListRules)
		})

		r.Route("/versions", func(r chi.Router) {
			r.Post("/compare", h.CompareVersions)
			r.Post("/can-upgrade", h.CanUpgrade)
			r.Post("/increment", h.IncrementVersion)
		})
	})

	return r
}

func healthHandler(h *handlers.Handlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := "healthy"
		if err := h.Store.Ping(r.Context()); err != nil {
			status = "degraded"
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"status":  status,
			"service": serviceName,
		})
	}
}

func versionHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"version": cfg.Version,
			"service": serviceName,
		})
	}
}
