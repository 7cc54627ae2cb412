package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/keanu3244/shop-chat/internal/api/middleware"
	"github.com/keanu3244/shop-chat/internal/handlers"
	"github.com/keanu3244/shop-chat/internal/hub"
	"github.com/keanu3244/shop-chat/internal/models"
	"github.com/keanu3244/shop-chat/internal/store"
)

// NewRouter creates and configures the HTTP router. cache may be nil.
func NewRouter(logger zerolog.Logger, st store.MessageStore, cache *store.RedisStore, chatHub *hub.Hub, jwtSecret string) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(chimw.Recoverer)

	// CORS - the shop front-end runs on its own origin in development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	h := handlers.NewHandler(st, cache)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes
	r.Get("/health", h.Health)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtSecret))

		r.Get("/messages/history", h.History)

		// The live transport authenticates from the same token (query
		// param, since browsers cannot set ws handshake headers).
		r.Get("/ws", chatHub.ServeWS)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleMerchant))
			r.Get("/rooms", h.Rooms)
		})
	})

	return r
}
