// Package api provides the HTTP API for the Voisilab map service.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/voisilab/voisimap/internal/api/handler"
	"github.com/voisilab/voisimap/internal/api/middleware"
	"github.com/voisilab/voisimap/internal/ppn"
	"github.com/voisilab/voisimap/internal/provider/resilience"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version        string
	BuildTime      string
	Logger         zerolog.Logger
	ServiceName    string
	Metrics        *middleware.Metrics
	PPNService     *ppn.Service
	SessionManager *handler.SessionManager
	Providers      *resilience.Registry
	Readiness      map[string]handler.ReadinessCheck
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "voisimap-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware())
	}
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.ContentTypeJSON)

	opsHandler := handler.NewOpsHandler(cfg.Version, cfg.BuildTime, cfg.SessionManager.Registry(), cfg.Providers, cfg.Readiness)
	ppnHandler := handler.NewPPNHandler(cfg.PPNService)
	sessionHandler := handler.NewSessionHandler(cfg.SessionManager, cfg.Logger)

	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)
	sessionRateLimit := middleware.RateLimitByIP(middleware.SessionRateLimit)
	directionsRateLimit := middleware.RateLimitByIP(middleware.DirectionsRateLimit)

	r.Route("/v1", func(r chi.Router) {
		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			r.Get("/status", opsHandler.SystemStatus)
		})

		// PPN catalog (public, read-only)
		r.Route("/ppns", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", ppnHandler.ListPPNs)
			r.Get("/{ppnId}", ppnHandler.GetPPN)
		})

		// Navigation sessions
		r.Route("/sessions", func(r chi.Router) {
			r.With(sessionRateLimit).Post("/", sessionHandler.CreateSession)

			r.Route("/{sessionId}", func(r chi.Router) {
				r.Get("/", sessionHandler.GetSession)
				r.Delete("/", sessionHandler.DeleteSession)

				// The websocket stream carries its own backpressure; no
				// rate limiting on the upgrade.
				r.Get("/stream", sessionHandler.Stream)

				r.With(sessionRateLimit).Post("/locate", sessionHandler.Locate)
				r.With(sessionRateLimit).Post("/cancel", sessionHandler.Cancel)
				r.With(sessionRateLimit).Post("/recenter", sessionHandler.Recenter)
				r.With(sessionRateLimit).Post("/select", sessionHandler.Select)

				// Directions may reach the external routing provider.
				r.With(directionsRateLimit).Post("/directions", sessionHandler.RequestDirections)
			})
		})
	})

	return r
}
