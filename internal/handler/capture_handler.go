package handler

import (
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nexus-capture/internal/domain"
	"nexus-capture/internal/service"

	"github.com/gorilla/mux"
)

// maxAudioBytes caps an uploaded recording.
const maxAudioBytes = 25 << 20

// maxMessageBytes fits a base64-encoded recording of maxAudioBytes plus the envelope.
const maxMessageBytes = maxAudioBytes*4/3 + 64<<10

// CaptureHandler handles capture, history and voice HTTP requests
type CaptureHandler struct {
	captureService domain.CaptureService
	historyService domain.HistoryService
	syncService    domain.SyncService
	transcriber    domain.Transcriber
	settingsRepo   domain.SettingsRepository
	logger         domain.Logger
}

// NewCaptureHandler creates a new capture handler
func NewCaptureHandler(
	captureService domain.CaptureService,
	historyService domain.HistoryService,
	syncService domain.SyncService,
	transcriber domain.Transcriber,
	settingsRepo domain.SettingsRepository,
	logger domain.Logger,
) *CaptureHandler {
	return &CaptureHandler{
		captureService: captureService,
		historyService: historyService,
		syncService:    syncService,
		transcriber:    transcriber,
		settingsRepo:   settingsRepo,
		logger:         logger,
	}
}

// CreateCapture dispatches a new capture to the enabled sinks
func (h *CaptureHandler) CreateCapture(w http.ResponseWriter, r *http.Request) {
	var input domain.RawInput
	if err := decodeJSON(r, &input); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	settings, err := h.settingsRepo.Get(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	result, err := h.captureService.Dispatch(r.Context(), input, settings)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListCaptures returns the newest captures. ?limit=0 returns the whole history.
func (h *CaptureHandler) ListCaptures(w http.ResponseWriter, r *http.Request) {
	limit := service.RecentCaptureLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	captures, err := h.historyService.List(r.Context(), limit)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"captures": captures,
		"count":    len(captures),
	})
}

// GetStats returns the today/week/book/total counters
func (h *CaptureHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.historyService.Stats(r.Context(), time.Now())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetCapture returns a single capture by id
func (h *CaptureHandler) GetCapture(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Capture ID must be numeric")
		return
	}

	capture, err := h.historyService.Find(r.Context(), id)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, capture)
}

// ClearCaptures drops the local history
func (h *CaptureHandler) ClearCaptures(w http.ResponseWriter, r *http.Request) {
	if err := h.historyService.Clear(r.Context()); err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SyncCaptures re-sends the newest history entries to NEXUS
func (h *CaptureHandler) SyncCaptures(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsRepo.Get(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	report, err := h.syncService.SyncRecent(r.Context(), settings)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Transcribe accepts a recording as multipart field "audio" or as the raw request body
func (h *CaptureHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)

	audio, err := readAudio(r)
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	settings, err := h.settingsRepo.Get(r.Context())
	if err != nil {
		writeAppError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, h.transcriber.Transcribe(r.Context(), audio, settings))
}

func readAudio(r *http.Request) ([]byte, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(maxAudioBytes); err != nil {
			return nil, domain.ErrInvalidAudio
		}
		file, _, err := r.FormFile("audio")
		if err != nil {
			return nil, domain.ErrInvalidAudio
		}
		defer file.Close()
		return io.ReadAll(file)
	}

	audio, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &domain.ValidationError{Field: "audio", Message: "recording is too large"}
		}
		return nil, err
	}
	return audio, nil
}

// decodeAudio decodes the base64 payload sent by the extension.
func decodeAudio(encoded string) ([]byte, error) {
	audio, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(audio) == 0 {
		return nil, domain.ErrInvalidAudio
	}
	return audio, nil
}
