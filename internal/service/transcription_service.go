package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"

	"nexus-capture/internal/domain"
)

const (
	transcribeField    = "audio"
	transcribeFilename = "recording.webm"
	transcribeMIMEType = "audio/webm"
)

// missingSecretMessage is reported without calling the API.
const missingSecretMessage = "transcription requires an API secret"

// TranscriptionService forwards recorded audio to the NEXUS transcription endpoint.
type TranscriptionService struct {
	baseURL string
	client  *http.Client
	logger  domain.Logger
}

func NewTranscriptionService(baseURL string, client *http.Client, logger domain.Logger) *TranscriptionService {
	if client == nil {
		client = &http.Client{}
	}
	return &TranscriptionService{
		baseURL: baseURL,
		client:  client,
		logger:  logger,
	}
}

// Transcribe never returns an error; failures are reported in the result.
func (s *TranscriptionService) Transcribe(ctx context.Context, audio []byte, settings domain.Settings) domain.TranscriptionResult {
	if settings.AstraPassword == "" {
		return domain.TranscriptionResult{OK: false, Error: missingSecretMessage}
	}
	if len(audio) == 0 {
		return domain.TranscriptionResult{OK: false, Error: domain.ErrInvalidAudio.Error()}
	}

	body, contentType, err := encodeAudio(audio)
	if err != nil {
		return domain.TranscriptionResult{OK: false, Error: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/transcribe", body)
	if err != nil {
		return domain.TranscriptionResult{OK: false, Error: err.Error()}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+settings.AstraPassword)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("Transcription request failed", "error", err)
		return domain.TranscriptionResult{OK: false, Error: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return domain.TranscriptionResult{OK: false, Error: fmt.Sprintf("Transcribe API error: %d", resp.StatusCode)}
	}

	var payload struct {
		OK    *bool  `json:"ok"`
		Text  string `json:"text"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return domain.TranscriptionResult{OK: false, Error: fmt.Sprintf("failed to decode response: %v", err)}
	}
	if (payload.OK != nil && !*payload.OK) || payload.Text == "" {
		msg := payload.Error
		if msg == "" {
			msg = "no transcription returned"
		}
		return domain.TranscriptionResult{OK: false, Error: msg}
	}

	s.logger.Debug("Audio transcribed", "audio_bytes", len(audio), "text_length", len(payload.Text))
	return domain.TranscriptionResult{OK: true, Text: payload.Text}
}

// encodeAudio wraps audio as the single "audio" part of a multipart form.
func encodeAudio(audio []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, transcribeField, transcribeFilename))
	header.Set("Content-Type", transcribeMIMEType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create audio part: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("failed to write audio part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart body: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}
