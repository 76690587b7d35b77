package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/doctrack/doctrack/internal/httpserver/handlers"
	"github.com/doctrack/doctrack/internal/httpserver/middleware"
)

// setupRouter configures the Chi router with all routes and middleware.
func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Tracing())
	r.Use(middleware.Logger())
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.StrictTransportSecurity(31536000))
	r.Use(s.corsMiddleware())

	// Health check (unauthenticated)
	health := handlers.Health(s.version)
	r.Get("/health", health)
	r.Get("/api/v1/health", health)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(s.config.APIKey))
		if s.rateLimiter != nil {
			r.Use(middleware.RateLimit(s.rateLimiter, time.Minute))
		}

		// The live feed is not compressed: the upgrade needs the raw writer.
		r.Get("/ws", s.wsHub.HandleConnection)

		r.Group(func(r chi.Router) {
			r.Use(chimw.Compress(5))
			r.Use(middleware.Caller())

			h := s.doctorates
			r.Route("/doctorates", func(r chi.Router) {
				r.Get("/", h.List)
				r.Post("/", h.Initialize)
				r.Get("/actions", h.Actions)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.Get())
					r.Get("/allowed-actions", h.AllowedActions)
					r.Post("/actions/{action}", h.Execute)
					r.Get("/supervision", h.Supervision())
					r.Get("/confirmations", h.Confirmations())
					r.Get("/confirmations/last", h.LastConfirmation())
					r.Get("/jury", h.Jury())
					r.Get("/admissibility", h.Admissibility())
					r.Get("/admissibilities", h.Admissibilities())
					r.Get("/private-defenses", h.PrivateDefenses())
					r.Get("/private-defenses/current", h.CurrentPrivateDefense())
					r.Get("/private-defenses/{defenseID}", h.PrivateDefense)
					r.Get("/authorization", h.Authorization())
				})
			})
		})
	})

	return r
}

// corsMiddleware returns configured CORS middleware. Without origins no
// CORS headers are sent.
func (s *Server) corsMiddleware() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type", "X-API-Key",
			middleware.HeaderPersonID, middleware.HeaderGrants,
		},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	})
}
