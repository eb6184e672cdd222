package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"nexus-capture/internal/domain"
	apperrors "nexus-capture/pkg/errors"
)

type contextKey string

const requestIDContextKey contextKey = "request_id"

// GetRequestIDFromContext extracts the request id set by RequestIDMiddleware
func GetRequestIDFromContext(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(requestIDContextKey).(string)
	return id, ok
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeAppError maps err onto a status code and logs anything that is not a client error.
func writeAppError(w http.ResponseWriter, r *http.Request, logger domain.Logger, err error) {
	appErr := apperrors.FromDomain(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		requestID, _ := GetRequestIDFromContext(r)
		logger.Error("Request failed", err, "path", r.URL.Path, "request_id", requestID)
	}

	body := map[string]string{"error": appErr.Message}
	if appErr.Details != "" {
		body["details"] = appErr.Details
	}
	writeJSON(w, appErr.StatusCode, body)
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &domain.ValidationError{Message: "request body is too large"}
		}
		return &domain.ValidationError{Message: "invalid JSON body"}
	}
	return nil
}
