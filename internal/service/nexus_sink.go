package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"nexus-capture/internal/domain"
)

// NexusSink posts captures to the NEXUS generic capture API.
type NexusSink struct {
	baseURL string
	client  *http.Client
	logger  domain.Logger
}

func NewNexusSink(baseURL string, client *http.Client, logger domain.Logger) *NexusSink {
	if client == nil {
		client = &http.Client{}
	}
	return &NexusSink{
		baseURL: baseURL,
		client:  client,
		logger:  logger,
	}
}

func (s *NexusSink) Name() string {
	return domain.SinkNexus
}

// Ready is true unless the user switched NEXUS off.
func (s *NexusSink) Ready(settings domain.Settings) bool {
	return settings.IsNexusEnabled()
}

// Attempt sends the capture as JSON and returns the decoded response body.
func (s *NexusSink) Attempt(ctx context.Context, capture *domain.Capture, settings domain.Settings) (json.RawMessage, error) {
	resp, err := s.post(ctx, capture, settings)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := readJSONBody(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to decode NEXUS response: %w", err)
	}

	s.logger.Debug("Capture sent to NEXUS", "capture_id", capture.ID, "status", resp.StatusCode)
	return payload, nil
}

// Post sends the capture and only checks the status code; the body is discarded.
func (s *NexusSink) Post(ctx context.Context, capture *domain.Capture, settings domain.Settings) error {
	resp, err := s.post(ctx, capture, settings)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// post returns the open response of a 2xx reply.
func (s *NexusSink) post(ctx context.Context, capture *domain.Capture, settings domain.Settings) (*http.Response, error) {
	body, err := json.Marshal(capture)
	if err != nil {
		return nil, fmt.Errorf("failed to encode capture: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/capture", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if settings.AstraPassword != "" {
		req.Header.Set("Authorization", "Bearer "+settings.AstraPassword)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if !isSuccess(resp.StatusCode) {
		resp.Body.Close()
		return nil, fmt.Errorf("NEXUS API error: %d", resp.StatusCode)
	}
	return resp, nil
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// readJSONBody reads the whole body and checks it is a single JSON object.
// null, arrays and scalars are rejected.
func readJSONBody(r io.Reader) (json.RawMessage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return nil, fmt.Errorf("invalid JSON body")
	}
	if data[0] != '{' {
		return nil, fmt.Errorf("expected a JSON object")
	}
	return json.RawMessage(data), nil
}
