package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nexus-capture/internal/config"
	"nexus-capture/internal/handler"

	"github.com/joho/godotenv"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// Wiring
	container, err := config.NewContainer()
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer container.Close()

	// Handlers
	captureHandler := handler.NewCaptureHandler(
		container.CaptureService,
		container.HistoryService,
		container.SyncService,
		container.TranscriptionService,
		container.SettingsRepository,
		container.Logger,
	)
	messageHandler := handler.NewMessageHandler(
		container.CaptureService,
		container.TranscriptionService,
		container.SettingsRepository,
		container.Logger,
	)
	settingsHandler := handler.NewSettingsHandler(
		container.SettingsRepository,
		container.HealthService,
		container.Logger,
	)
	eventsHandler := handler.NewEventsHandler(
		container.StreamHub,
		container.Logger,
	)

	authMiddleware := handler.NewAuthMiddleware(
		container.Config.GetAPISecret(),
		container.Logger,
	)
	if container.Config.GetAPISecret() == "" {
		container.Logger.Warn("API_SECRET is not set; the API is open to any local caller")
	}

	// Router
	router := handler.NewRouter(
		captureHandler,
		messageHandler,
		settingsHandler,
		eventsHandler,
		authMiddleware.Middleware,
		container.Config.GetAllowedOrigins(),
		container.Logger,
	)

	// start server
	server := &http.Server{
		Addr:              ":" + container.Config.GetServerPort(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Run server
	go func() {
		container.Logger.Info("Server listening", "address", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			container.Logger.Error("Server failed to start", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	container.Logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		// Open event streams keep connections busy; cut them off.
		container.Logger.Warn("Graceful shutdown timed out", "error", err)
		_ = server.Close()
	}

	container.Logger.Info("Server exited")
}
