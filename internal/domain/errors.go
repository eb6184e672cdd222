package domain

import "errors"

// Domain errors
var (
	ErrEmptyContent    = errors.New("content is required")
	ErrCaptureNotFound = errors.New("capture not found")
	ErrMissingSecret   = errors.New("API secret is not configured")
	ErrInvalidAudio    = errors.New("invalid audio data")
	ErrStoreClosed     = errors.New("store is closed")
	ErrUnknownAction   = errors.New("unknown action")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}
