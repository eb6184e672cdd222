package handler

import (
	"net/http"

	"nexus-capture/internal/domain"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

// NewRouter creates a new HTTP router with all routes configured
func NewRouter(
	captureHandler *CaptureHandler,
	messageHandler *MessageHandler,
	settingsHandler *SettingsHandler,
	eventsHandler *EventsHandler,
	authMiddleware func(http.Handler) http.Handler,
	allowedOrigins []string,
	logger domain.Logger,
) http.Handler {
	router := mux.NewRouter()
	router.Use(RequestIDMiddleware(logger))

	// Health check endpoint (no auth required)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "nexus-capture"})
	}).Methods(http.MethodGet)

	// Protected routes
	protected := router.PathPrefix("/api/v1").Subrouter()
	protected.Use(authMiddleware)

	// Extension message envelope
	protected.HandleFunc("/messages", messageHandler.HandleMessage).Methods(http.MethodPost)

	// Capture routes
	protected.HandleFunc("/captures", captureHandler.CreateCapture).Methods(http.MethodPost)
	protected.HandleFunc("/captures", captureHandler.ListCaptures).Methods(http.MethodGet)
	protected.HandleFunc("/captures", captureHandler.ClearCaptures).Methods(http.MethodDelete)
	protected.HandleFunc("/captures/stats", captureHandler.GetStats).Methods(http.MethodGet)
	protected.HandleFunc("/captures/sync", captureHandler.SyncCaptures).Methods(http.MethodPost)
	protected.HandleFunc("/captures/{id:[0-9]+}", captureHandler.GetCapture).Methods(http.MethodGet)
	protected.HandleFunc("/transcribe", captureHandler.Transcribe).Methods(http.MethodPost)

	// Settings routes
	protected.HandleFunc("/settings", settingsHandler.GetSettings).Methods(http.MethodGet)
	protected.HandleFunc("/settings", settingsHandler.UpdateSettings).Methods(http.MethodPut)
	protected.HandleFunc("/status", settingsHandler.GetStatus).Methods(http.MethodGet)

	// Event stream
	protected.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)

	// Configure CORS
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{
			"Accept",
			"Authorization",
			"Content-Type",
			"X-Request-ID",
		},
		ExposedHeaders: []string{
			"X-Request-ID",
		},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	})

	return c.Handler(router)
}
