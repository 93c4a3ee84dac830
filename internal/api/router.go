package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nicbou/homeserver/internal/api/handlers"
	mw "github.com/nicbou/homeserver/internal/api/middleware"
	"github.com/nicbou/homeserver/internal/cache"
	"github.com/nicbou/homeserver/internal/library"
	"github.com/nicbou/homeserver/internal/services"
)

// RouterDependencies holds dependencies for the router
type RouterDependencies struct {
	AuthService *services.AuthService
	Store       *library.Store
	Sessions    *library.SessionManager
	Cache       *cache.Cache
	Frontend    http.Handler // Optional: serves the player UI build
}

// NewRouter creates and configures the HTTP router
func NewRouter(deps *RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.AuthService)
	moviesHandler := handlers.NewMoviesHandler(deps.Store, deps.Cache)
	libraryHandler := handlers.NewLibraryHandler(deps.Store)
	playerHandler := handlers.NewPlayerHandler(deps.Sessions)
	configHandler := handlers.NewConfigHandler()
	statusHandler := handlers.NewServiceStatusHandler()

	// Public routes
	r.Get("/health", healthHandler.Handle)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Public API routes
		r.Post("/auth/login", authHandler.Login)

		// Protected API routes
		r.Group(func(r chi.Router) {
			r.Use(mw.Auth)

			// Movie collection routes
			r.Route("/movies", func(r chi.Router) {
				r.Get("/", moviesHandler.List)
				r.Post("/", moviesHandler.SaveTriaged)

				r.Route("/{tmdbId}", func(r chi.Router) {
					r.Get("/", moviesHandler.Get)
					r.Post("/star", moviesHandler.Star)
					r.Post("/unstar", moviesHandler.Unstar)

					r.Route("/episodes/{episodeId}", func(r chi.Router) {
						r.Post("/watched", moviesHandler.MarkWatched)
						r.Post("/unwatched", moviesHandler.MarkUnwatched)
						r.Post("/progress", moviesHandler.SetProgress)
						r.Delete("/", moviesHandler.DeleteEpisode)
						r.Delete("/originalFile", moviesHandler.DeleteOriginalFile)
					})
				})
			})

			// Library routes
			r.Get("/library/status", libraryHandler.Status)
			r.Post("/library/refresh", libraryHandler.Refresh)

			// Player session routes
			r.Post("/player/sessions", playerHandler.Open)
			r.Put("/player/sessions/{sessionId}", playerHandler.Update)
			r.Delete("/player/sessions/{sessionId}", playerHandler.Close)

			// Config routes
			r.Get("/config", configHandler.GetConfig)
			r.Put("/config", configHandler.UpdateConfig)

			// Service status routes
			r.Get("/system/services", statusHandler.CheckStatus)
		})
	})

	// Everything outside /api and /health is the player UI
	if deps.Frontend != nil {
		r.Handle("/*", deps.Frontend)
	}

	return r
}
