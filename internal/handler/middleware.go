package handler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"nexus-capture/internal/domain"
	apperrors "nexus-capture/pkg/errors"

	"github.com/oklog/ulid/v2"
)

// AuthMiddleware guards the API with a shared bearer secret.
// With no secret configured every request passes.
type AuthMiddleware struct {
	secret string
	logger domain.Logger
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(secret string, logger domain.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		secret: secret,
		logger: logger,
	}
}

// Middleware validates the Authorization header against the configured secret
func (m *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.secret == "" {
			next.ServeHTTP(w, r)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.reject(w, r, "Authorization header required")
			return
		}

		// Extract token from "Bearer <token>" format
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.reject(w, r, "Invalid authorization header format")
			return
		}

		token := strings.TrimSpace(parts[1])
		if token == "" {
			m.reject(w, r, "Token required")
			return
		}

		if subtle.ConstantTimeCompare([]byte(token), []byte(m.secret)) != 1 {
			m.logger.Warn("Rejected request with invalid token", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
			m.reject(w, r, "Invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) reject(w http.ResponseWriter, r *http.Request, message string) {
	writeAppError(w, r, m.logger, apperrors.NewUnauthorizedError(message))
}

// RequestIDMiddleware tags each request with a ULID, echoes it in X-Request-ID and logs the request.
func RequestIDMiddleware(logger domain.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = ulid.Make().String()
			}
			w.Header().Set("X-Request-ID", requestID)

			start := time.Now()
			ctx := context.WithValue(r.Context(), requestIDContextKey, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))

			logger.Debug("Request handled",
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", requestID,
				"duration_ms", time.Since(start).Milliseconds())
		})
	}
}
