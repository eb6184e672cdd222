package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"nexus-capture/internal/domain"
)

// Message actions accepted by the envelope endpoint.
const (
	ActionCapture         = "capture"
	ActionTranscribeAudio = "transcribeAudio"
	ActionGetSettings     = "getSettings"
)

// messageRequest is the envelope the extension posts for every background action.
type messageRequest struct {
	Action    string          `json:"action"`
	Data      json.RawMessage `json:"data,omitempty"`
	AudioData string          `json:"audioData,omitempty"`
}

// MessageHandler routes extension messages to the capture, voice and settings use cases
type MessageHandler struct {
	captureService domain.CaptureService
	transcriber    domain.Transcriber
	settingsRepo   domain.SettingsRepository
	logger         domain.Logger
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(
	captureService domain.CaptureService,
	transcriber domain.Transcriber,
	settingsRepo domain.SettingsRepository,
	logger domain.Logger,
) *MessageHandler {
	return &MessageHandler{
		captureService: captureService,
		transcriber:    transcriber,
		settingsRepo:   settingsRepo,
		logger:         logger,
	}
}

// HandleMessage dispatches on the envelope action
func (h *MessageHandler) HandleMessage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMessageBytes)

	var msg messageRequest
	if err := decodeJSON(r, &msg); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	settings, err := h.settingsRepo.Get(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	switch msg.Action {
	case ActionCapture:
		var input domain.RawInput
		if len(msg.Data) == 0 || string(msg.Data) == "null" {
			writeAppError(w, r, h.logger, &domain.ValidationError{Field: "data", Message: "is required"})
			return
		}
		if err := json.Unmarshal(msg.Data, &input); err != nil {
			writeAppError(w, r, h.logger, &domain.ValidationError{Field: "data", Message: "must be a capture object"})
			return
		}
		result, err := h.captureService.Dispatch(r.Context(), input, settings)
		if err != nil {
			writeAppError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, result)

	case ActionTranscribeAudio:
		audio, err := decodeAudio(msg.AudioData)
		if err != nil {
			writeAppError(w, r, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, h.transcriber.Transcribe(r.Context(), audio, settings))

	case ActionGetSettings:
		writeJSON(w, http.StatusOK, settings.Public())

	default:
		h.logger.Debug("Unknown message action", "action", msg.Action)
		writeAppError(w, r, h.logger, fmt.Errorf("%w: %q", domain.ErrUnknownAction, msg.Action))
	}
}
