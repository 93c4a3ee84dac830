package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nicbou/homeserver/internal/api"
	"github.com/nicbou/homeserver/internal/api/handlers"
	"github.com/nicbou/homeserver/internal/cache"
	"github.com/nicbou/homeserver/internal/clients"
	"github.com/nicbou/homeserver/internal/config"
	"github.com/nicbou/homeserver/internal/library"
	"github.com/nicbou/homeserver/internal/services"
	"github.com/nicbou/homeserver/internal/utils"
	"github.com/rs/zerolog/log"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	// Initialize logger
	logLevel := getEnv("LOG_LEVEL", "info")
	logFormat := getEnv("LOG_FORMAT", "json")
	utils.InitLogger(logLevel, logFormat, "homeserver")

	log.Info().Msg("Starting homeserver...")

	// Load configuration (priority: flag > env var > default)
	configPathValue := *configPath
	if configPathValue == "" {
		configPathValue = getEnv("HOMESERVER_CONFIG_PATH", "")
	}
	cfg, err := config.Load(configPathValue)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Str("media_server", cfg.MediaServer.URL).
		Str("config_path", configPathValue).
		Msg("Configuration loaded")

	// Initialize JWT
	jwtSecret := getEnv("JWT_SECRET", "")
	jwtExpiry, _ := time.ParseDuration(getEnv("JWT_EXPIRATION", "24h"))
	utils.InitJWT(jwtSecret, jwtExpiry)

	// Initialize cache
	appCache := cache.New()
	log.Info().Msg("Cache initialized")

	// Initialize services
	authService := services.NewAuthService(cfg)
	log.Info().Msg("Authentication service initialized")

	// Initialize the movie collection
	mediaClient := clients.NewMediaClient(cfg.MediaServer)
	store := library.NewStore(mediaClient)
	store.OnChange(func() {
		appCache.DeletePattern(cache.CacheKeyListPrefix)
		appCache.DeletePattern(cache.CacheKeyItemPrefix)
	})
	log.Info().Msg("Movie collection initialized")

	// Initialize playback session manager
	flushInterval, err := time.ParseDuration(cfg.Player.ProgressFlushInterval)
	if err != nil {
		flushInterval = library.DefaultProgressFlushInterval
	}
	sessions := library.NewSessionManager(store, flushInterval)
	log.Info().Dur("flush_interval", flushInterval).Msg("Session manager initialized")

	// Serve the player UI when a build is present
	frontendRoot := getEnv("FRONTEND_DIST_PATH", "./web/dist")
	var frontend http.Handler
	if h, err := handlers.NewFrontendHandler(frontendRoot); err != nil {
		log.Warn().Err(err).Msg("Player UI not available, running in API-only mode")
	} else {
		frontend = h
	}

	// Create router with dependencies
	router := api.NewRouter(&api.RouterDependencies{
		AuthService: authService,
		Store:       store,
		Sessions:    sessions,
		Cache:       appCache,
		Frontend:    frontend,
	})
	log.Info().Msg("Router initialized")

	// Start config watcher for hot-reload
	if err := config.StartWatcher(func() {
		log.Info().Msg("Configuration reloaded, clearing cache")
		appCache.Clear()
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to start config watcher, hot-reload disabled")
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().
			Str("address", addr).
			Msg("HTTP server starting")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	log.Info().Msg("Homeserver started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Flush open playback sessions before stopping
	sessions.CloseAll()
	log.Info().Msg("Playback sessions closed")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Wait for in-flight persistence calls
	store.Close()

	log.Info().Msg("Server stopped")
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
